package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"pinco/config"
)

// Mailer шлёт письма через SMTP (PlainAuth + STARTTLS на стороне smtp.SendMail).
type Mailer struct {
	cfg     *config.Config
	invite  *template.Template
	mention *template.Template
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		cfg:     cfg,
		invite:  template.Must(template.New("invite").Parse(inviteBody)),
		mention: template.Must(template.New("mention").Parse(mentionBody)),
	}
}

const inviteBody = `<p>Привет, {{.Username}}!</p>
<p>Вас пригласили комментировать <b>{{.SiteName}}</b>.</p>
<p><a href="{{.Link}}">Принять приглашение</a></p>`

const mentionBody = `<p>Привет, {{.Username}}!</p>
<p>{{.Author}} упомянул вас на странице <a href="{{.PageURL}}">{{.SiteName}}</a>:</p>
<blockquote>{{.Text}}</blockquote>`

func (m *Mailer) SendInvite(ev UserInvited) error {
	link := fmt.Sprintf("%s/auth/login?invite=%s", m.cfg.Widget.APIBaseURL, ev.InviteToken)
	return m.send(ev.User.Email, "Приглашение на "+ev.Site.Name, m.invite, map[string]any{
		"Username": ev.User.Username,
		"SiteName": ev.Site.Name,
		"Link":     link,
	})
}

func (m *Mailer) SendMention(ev UserMentioned) error {
	return m.send(ev.User.Email, "Вас упомянули на "+ev.Site.Name, m.mention, map[string]any{
		"Username": ev.User.Username,
		"Author":   ev.Author.Username,
		"SiteName": ev.Site.Name,
		"PageURL":  ev.PageURL,
		"Text":     ev.Text,
	})
}

func (m *Mailer) send(to, subject string, tpl *template.Template, data any) error {
	if m.cfg.SMTP.Host == "" {
		// SMTP не настроен — письма просто не уходят
		return nil
	}
	var body bytes.Buffer
	if err := tpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render mail: %w", err)
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.SMTP.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTP.Host, m.cfg.SMTP.Port)
	var a smtp.Auth
	if m.cfg.SMTP.Username != "" {
		a = smtp.PlainAuth("", m.cfg.SMTP.Username, m.cfg.SMTP.Password, m.cfg.SMTP.Host)
	}
	return smtp.SendMail(addr, a, m.cfg.SMTP.From, []string{to}, msg.Bytes())
}
