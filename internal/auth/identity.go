package auth

// Identity is an authenticated session: the canonical user id plus the bearer
// token that proves it to the remote store.
type Identity struct {
	UserID string
	Token  string
}
