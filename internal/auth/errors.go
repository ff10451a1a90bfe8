package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown/inactive email and a wrong
	// password. Callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated means the request has no session, or its session
	// no longer resolves to an active administrator.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// PersistenceError wraps a failure of the database or session store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "auth: " + e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
