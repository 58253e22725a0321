package domain

// Identity is who is checking out. UserID is never empty: anonymous visitors carry
// GuestUserID.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

func GuestIdentity() Identity {
	return Identity{UserID: GuestUserID}
}

func (i Identity) IsGuest() bool {
	return i.UserID == GuestUserID
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != "" && !i.IsGuest()
}
