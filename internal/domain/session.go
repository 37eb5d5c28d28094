package domain

import "time"

// Page is a top-level screen of the application.
type Page string

const (
	PageWelcome   Page = "welcome"
	PageSignup    Page = "signup"
	PageLogin     Page = "login"
	PageDashboard Page = "dashboard"
	PageChat      Page = "chat"
)

// Valid reports whether p names a known page.
func (p Page) Valid() bool {
	switch p {
	case PageWelcome, PageSignup, PageLogin, PageDashboard, PageChat:
		return true
	}
	return false
}

// Profile is the mock signed-in user. It is never persisted.
type Profile struct {
	Username  string
	Email     string
	LoginTime time.Time
}
