// Package session keeps an authenticated browser session between runs so
// that sites behind a login can be scraped without logging in every time.
//
// The saved state is a set of cookies. Its lifetime is decided by the site:
// nothing here tracks expiry. A state is trusted only after a Checker has
// seen the site accept it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"truck-scraper/utils"
)

type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"http_only,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"same_site,omitempty"`
}

type State struct {
	Account string    `json:"account"`
	Cookies []Cookie  `json:"cookies"`
	SavedAt time.Time `json:"saved_at"`
}

type Status int

const (
	NoSession Status = iota
	Valid
)

func (s Status) String() string {
	if s == Valid {
		return "valid"
	}
	return "no-session"
}

// Checker reports whether the site still accepts state, typically by
// loading a page with its cookies and looking for a login wall.
type Checker interface {
	Check(ctx context.Context, state *State) (bool, error)
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context, state *State) (bool, error)

func (f CheckFunc) Check(ctx context.Context, state *State) (bool, error) {
	return f(ctx, state)
}

// Manager tracks the session for one account of one site.
type Manager struct {
	store   Store
	site    string
	account string
	status  Status
	now     func() time.Time
}

func NewManager(store Store, site, account string) *Manager {
	return &Manager{
		store:   store,
		site:    site,
		account: account,
		now:     time.Now,
	}
}

func (m *Manager) key() string {
	return m.site + ":" + m.account
}

func (m *Manager) Status() Status {
	return m.status
}

// Load returns the saved state, or nil when there is none. A blob that no
// longer decodes is treated as absent and removed.
func (m *Manager) Load(ctx context.Context) (*State, error) {
	data, err := m.store.Load(ctx, m.key())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session %s: %w", m.key(), err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil || len(state.Cookies) == 0 {
		utils.Warn("Saved session for %s is unreadable, discarding it", m.key())
		return nil, m.Discard(ctx)
	}
	return &state, nil
}

// Save persists cookies as the current state and marks the session valid.
func (m *Manager) Save(ctx context.Context, cookies []Cookie) error {
	state := State{
		Account: m.account,
		Cookies: cookies,
		SavedAt: m.now().UTC(),
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Save(ctx, m.key(), data); err != nil {
		return fmt.Errorf("save session %s: %w", m.key(), err)
	}
	m.status = Valid
	utils.Debug("Saved %d cookies for %s", len(cookies), m.key())
	return nil
}

// IsValid asks checker whether state is still accepted. Any error counts as
// invalid. An invalid state is discarded so the next run starts from login.
func (m *Manager) IsValid(ctx context.Context, state *State, checker Checker) bool {
	if state == nil {
		m.status = NoSession
		return false
	}

	ok, err := checker.Check(ctx, state)
	if err != nil {
		utils.Warn("Session check for %s failed: %v", m.key(), err)
	}
	if err != nil || !ok {
		if derr := m.Discard(ctx); derr != nil {
			utils.Warn("%v", derr)
		}
		return false
	}

	m.status = Valid
	return true
}

// Discard deletes the saved state and returns to NoSession.
func (m *Manager) Discard(ctx context.Context) error {
	m.status = NoSession
	if err := m.store.Delete(ctx, m.key()); err != nil {
		return fmt.Errorf("discard session %s: %w", m.key(), err)
	}
	return nil
}
