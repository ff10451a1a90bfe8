package models

// Administrator is a row of admin_user.
// PasswordHash is only populated on the verification path and is cleared
// before the record leaves the auth package.
type Administrator struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Active       bool   `json:"active"`
	FullName     string `json:"full_name"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Public returns a copy without the password hash.
func (a Administrator) Public() Administrator {
	a.PasswordHash = ""
	return a
}
