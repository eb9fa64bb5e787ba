package gateway

import (
	"context"
	"net/http"

	"storefront-cart/internal/model"
)

// Login exchanges credentials for a bearer token (POST /auth/login).
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("credentials", "email and password are required")
	}

	var out wireLogin
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", loginBody{Email: email, Password: password}, &out, "account"); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, model.NewUpstreamError(serviceName, errMissingToken)
	}

	return &LoginResult{Identity: model.Identity{
		UserID: out.User.ID,
		Name:   out.User.Name,
		Email:  out.User.Email,
		Token:  out.Token,
	}}, nil
}
