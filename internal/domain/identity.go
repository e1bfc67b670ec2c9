package domain

// UserIdentity is the verified caller of a request. Handlers pass it
// explicitly to every service call that acts on behalf of a user.
type UserIdentity struct {
	UserID string `json:"user_id"`
	Email  string `json:"user_email"`
}

// Is reports whether the identity belongs to userID.
func (u *UserIdentity) Is(userID string) bool {
	return u != nil && u.UserID != "" && u.UserID == userID
}
