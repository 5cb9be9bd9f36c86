package domain

// User represents the authenticated shopper for a session. At most one user
// is active per session; it is created by login or register and destroyed by
// logout.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}
