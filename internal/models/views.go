package models

import "time"

// Явные view-модели для ответов API: виджет и бэкофис видят разные срезы
// одних и тех же сущностей, поэтому поля отбираются маппером, а не тегами.

type UserView struct {
	ID       uint     `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Active   bool     `json:"active"`
	Roles    RoleList `json:"roles"`
}

// AuthorView — то, что виджет показывает рядом с комментарием.
type AuthorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type SiteView struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

type MembershipView struct {
	Site    SiteView `json:"site"`
	Roles   RoleList `json:"roles"`
	Pending bool     `json:"pending"`
}

type ReplyView struct {
	ID        uint       `json:"id"`
	Text      string     `json:"text"`
	Author    AuthorView `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

type CommentResponse struct {
	ID         uint        `json:"id"`
	URL        string      `json:"url"`
	Text       string      `json:"text"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Resolved   bool        `json:"resolved"`
	Screenshot *string     `json:"screenshot,omitempty"`
	Author     AuthorView  `json:"author"`
	Replies    []ReplyView `json:"replies"`
	Viewed     bool        `json:"viewed"` // просмотрел ли вызывающий
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func NewUserView(u *User) UserView {
	return UserView{ID: u.ID, Email: u.Email, Username: u.Username, Active: u.Active, Roles: u.Roles}
}

func NewAuthorView(u *User) AuthorView {
	return AuthorView{ID: u.ID, Username: u.Username}
}

func NewSiteView(s *Site) SiteView {
	return SiteView{ID: s.ID, Name: s.Name, Domain: s.Domain, URL: s.URL, Active: s.Active}
}

func NewMembershipView(m *UserSite) MembershipView {
	return MembershipView{Site: NewSiteView(&m.Site), Roles: m.Roles, Pending: m.Pending()}
}

// NewCommentResponse собирает ответ виджета; viewerID — кто спрашивает.
func NewCommentResponse(c *Comment, viewerID uint) CommentResponse {
	replies := make([]ReplyView, 0, len(c.Replies))
	for i := range c.Replies {
		r := &c.Replies[i]
		replies = append(replies, ReplyView{
			ID:        r.ID,
			Text:      r.Text,
			Author:    NewAuthorView(&r.User),
			CreatedAt: r.CreatedAt,
		})
	}
	viewed := false
	for _, v := range c.Views {
		if v.UserID == viewerID {
			viewed = true
			break
		}
	}
	return CommentResponse{
		ID:         c.ID,
		URL:        c.URL,
		Text:       c.Text,
		X:          c.X,
		Y:          c.Y,
		Resolved:   c.Resolved,
		Screenshot: c.Screenshot,
		Author:     NewAuthorView(&c.User),
		Replies:    replies,
		Viewed:     viewed,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
