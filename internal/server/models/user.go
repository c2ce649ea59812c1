package models

// User is the authenticated identity resolved upstream from a bearer token.
// It is trusted as-is; this engine never re-validates it.
type User struct {
	ID       string
	Username string
	Email    string
}
