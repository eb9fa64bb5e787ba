package session

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"storefront-cart/internal/model"
)

// tokenClaims covers the user id claim names the storefront API has issued.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId,omitempty"`
	LegacyID string `json:"id,omitempty"`
}

func (c tokenClaims) userID() string {
	switch {
	case c.Subject != "":
		return c.Subject
	case c.UserID != "":
		return c.UserID
	default:
		return c.LegacyID
	}
}

// IdentityFromToken reads the user and expiry from a bearer JWT.
// The signature is not checked here; the storefront API verifies the token
// on every call.
func IdentityFromToken(token string) (*model.Identity, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("parsing bearer token: %w", err)
	}

	id := &model.Identity{
		UserID: claims.userID(),
		Token:  token,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// ParseIdentity is IdentityFromToken for tokens that may be opaque: a token
// that isn't a JWT yields an identity with no user or expiry.
func ParseIdentity(token string) *model.Identity {
	id, err := IdentityFromToken(token)
	if err != nil {
		return &model.Identity{Token: token}
	}
	return id
}

// BearerToken extracts the token from an Authorization header, or "".
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}
