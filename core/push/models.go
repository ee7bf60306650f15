package push

import (
	"strings"
	"time"
)

// Keys are the client's encryption keys of a Web Push subscription.
type Keys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// Subscription is a browser's Web Push subscription, owned by one user.
type Subscription struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"-"`
	Endpoint       string    `json:"endpoint" validate:"required,url"`
	ExpirationTime *int64    `json:"expirationTime,omitempty"`
	Keys           Keys      `json:"keys" validate:"required"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

func (s Subscription) clean() Subscription {
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	s.Keys.P256dh = strings.TrimSpace(s.Keys.P256dh)
	s.Keys.Auth = strings.TrimSpace(s.Keys.Auth)
	return s
}

// Notification is the JSON payload the dashboard's service worker displays.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

const (
	DefaultTitle = "Student Sync Alert"
	DefaultURL   = "/dashboard"
)

func NewNotification(body string) Notification {
	return Notification{Title: DefaultTitle, Body: body, URL: DefaultURL}
}
