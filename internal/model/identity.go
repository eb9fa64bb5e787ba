package model

import "time"

// Identity is an authenticated shopper as seen by the cart layer.
type Identity struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the identity's token has passed its expiry.
// A zero ExpiresAt never expires.
func (id *Identity) Expired(now time.Time) bool {
	return id != nil && !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}

// Same reports whether two identities denote the same signed-in session.
func (id *Identity) Same(other *Identity) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.UserID == other.UserID && id.Token == other.Token
}
