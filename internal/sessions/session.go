// Package sessions is the server-side session capability shared by the
// credential verifier and the session guard.
package sessions

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	SessionName = "admin_session"
	adminIDKey  = "admin_id"
)

// Manager reads and writes the admin session of a request.
type Manager struct {
	store *ServerStore
}

// Options configure a Manager.
type Options struct {
	Secret string
	MaxAge time.Duration
	Secure bool
}

// NewManager derives a signing key and an encryption key from opt.Secret
// and stores session bodies in backend.
func NewManager(backend Backend, opt Options) *Manager {
	h := sha256.Sum256([]byte("auth:" + opt.Secret))
	e := sha256.Sum256([]byte("enc:" + opt.Secret))

	store := NewServerStore(backend, opt.MaxAge, h[:], e[:])
	store.Options.Secure = opt.Secure
	return &Manager{store: store}
}

// Store exposes the underlying gorilla store.
func (m *Manager) Store() *ServerStore { return m.store }

// Get returns the request's session; see ServerStore.New.
func (m *Manager) Get(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, SessionName)
}

// SetAdminID starts an authenticated session for adminID. Any previous
// session of the request is discarded and a new token is issued.
func (m *Manager) SetAdminID(w http.ResponseWriter, r *http.Request, adminID int64) error {
	s, err := m.Get(r)
	if err != nil {
		return err
	}
	if err := m.store.Forget(r, s); err != nil {
		return err
	}
	s.Values = map[interface{}]interface{}{adminIDKey: adminID}
	s.IsNew = true
	return s.Save(r, w)
}

// AdminID reports the administrator id stored in the session, if any.
// The id is not checked against the database here.
func (m *Manager) AdminID(r *http.Request) (int64, bool, error) {
	s, err := m.Get(r)
	if err != nil {
		return 0, false, err
	}
	if v, ok := s.Values[adminIDKey].(int64); ok && v > 0 {
		return v, true, nil
	}
	return 0, false, nil
}

// Touch re-saves an existing session, extending its expiry.
func (m *Manager) Touch(w http.ResponseWriter, r *http.Request) error {
	s, err := m.Get(r)
	if err != nil {
		return err
	}
	if s.IsNew {
		return nil
	}
	return s.Save(r, w)
}

// Clear deletes the session server-side and expires the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	s, err := m.Get(r)
	if err != nil {
		return err
	}
	s.Options.MaxAge = -1
	s.Values = map[interface{}]interface{}{}
	return s.Save(r, w)
}
