package models

// SessionUser is the auth-scoped state cached after a successful login
// against the remote API: the bearer token plus display fields. It is held
// in the session cookie and mirrored into the settings collection, and
// cleared on logout. No credential is ever stored locally.
type SessionUser struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoggedIn reports whether the session carries a usable bearer token.
func (u SessionUser) LoggedIn() bool {
	return u.Token != ""
}
