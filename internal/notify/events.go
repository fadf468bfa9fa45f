package notify

import (
	"context"

	"pinco/internal/logs"
	"pinco/internal/models"
)

// Типизированные события вместо глобального pub/sub: мутация возвращает
// значение, диспетчер разбирает очередь в одной горутине.

type UserInvited struct {
	User        models.User
	Site        models.Site
	InviteToken string
}

type UserMentioned struct {
	User    models.User // кого упомянули
	Author  models.User // кто написал
	Site    models.Site
	PageURL string
	Text    string
}

type Sender interface {
	SendInvite(ev UserInvited) error
	SendMention(ev UserMentioned) error
}

// Dispatcher — буферизованная очередь событий с одним потребителем.
// Ошибки отправки только логируются и в запросы не протекают.
type Dispatcher struct {
	sender Sender
	ch     chan any
	done   chan struct{}
}

func NewDispatcher(sender Sender, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		sender: sender,
		ch:     make(chan any, buffer),
		done:   make(chan struct{}),
	}
}

// Publish не блокирует запрос: при переполненной очереди событие
// отбрасывается с логом.
func (d *Dispatcher) Publish(ev any) {
	select {
	case d.ch <- ev:
	default:
		logs.Logger.Warnf("notify: queue full, dropping %T", ev)
	}
}

// Run крутится до отмены контекста, затем дорабатывает очередь.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case ev := <-d.ch:
			d.handle(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-d.ch:
					d.handle(ev)
				default:
					return
				}
			}
		}
	}
}

// Wait блокируется до завершения Run.
func (d *Dispatcher) Wait() { <-d.done }

func (d *Dispatcher) handle(ev any) {
	var err error
	switch e := ev.(type) {
	case UserInvited:
		err = d.sender.SendInvite(e)
	case UserMentioned:
		err = d.sender.SendMention(e)
	default:
		logs.Logger.Warnf("notify: unknown event %T", ev)
		return
	}
	if err != nil {
		logs.Logger.Errorf("notify: send failed: %v", err)
	}
}
