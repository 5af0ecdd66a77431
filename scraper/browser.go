package scraper

import (
	"context"
	"truck-scraper/session"
)

// Browser is one automated browser tab. Every blocking call honours the
// deadline on ctx; the collector bounds each call with a timeout.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until an element matching selector is in the DOM.
	WaitReady(ctx context.Context, selector string) error
	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)
	Location(ctx context.Context) (string, error)
	ScrollToBottom(ctx context.Context) error
	Cookies(ctx context.Context) ([]session.Cookie, error)
	SetCookies(ctx context.Context, cookies []session.Cookie) error
	Close() error
}

// Launcher starts browsers. The collector owns each browser it launches
// and closes it before the run returns.
type Launcher interface {
	Launch(ctx context.Context, headless bool) (Browser, error)
}

// LoginPrompter hands a visible browser to a person and returns once they
// say they have logged in.
type LoginPrompter interface {
	WaitForLogin(ctx context.Context, siteURL string) error
}
