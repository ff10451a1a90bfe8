package sessions

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// ServerStore is a gorilla sessions.Store that keeps session values in a
// Backend. The cookie carries only the signed and encrypted opaque token.
type ServerStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	backend    Backend
	ttl        time.Duration
	serializer securecookie.Serializer
	newToken   func() string
}

// NewServerStore builds a store. keyPairs are securecookie hash/block key
// pairs, as for sessions.NewCookieStore.
func NewServerStore(backend Backend, ttl time.Duration, keyPairs ...[]byte) *ServerStore {
	s := &ServerStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		backend:    backend,
		ttl:        ttl,
		serializer: securecookie.GobEncoder{},
		newToken:   uuid.NewString,
	}
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(s.Options.MaxAge)
		}
	}
	return s
}

// Get returns the session cached for this request, loading it on first use.
func (s *ServerStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie. A missing, tampered or
// expired cookie, or a token the backend no longer knows, yields a fresh
// empty session. Only backend failures are returned as errors.
func (s *ServerStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var token string
	if err := securecookie.DecodeMulti(name, c.Value, &token, s.Codecs...); err != nil || token == "" {
		return session, nil
	}

	data, ok, err := s.backend.Load(r.Context(), token)
	if err != nil {
		return session, err
	}
	if !ok {
		return session, nil
	}
	if err := s.serializer.Deserialize(data, &session.Values); err != nil {
		return session, nil
	}
	session.ID = token
	session.IsNew = false
	return session, nil
}

// Save writes the session body to the backend and refreshes the cookie.
// MaxAge < 0 deletes the record and expires the cookie.
func (s *ServerStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(r.Context(), session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = s.newToken()
	}
	data, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if session.Options.MaxAge > 0 {
		ttl = time.Duration(session.Options.MaxAge) * time.Second
	}
	if err := s.backend.Save(r.Context(), session.ID, data, ttl); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Forget deletes the backend record of session and clears its id so the
// next Save mints a new token.
func (s *ServerStore) Forget(r *http.Request, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	if err := s.backend.Delete(r.Context(), session.ID); err != nil {
		return err
	}
	session.ID = ""
	return nil
}
