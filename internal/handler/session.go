package handler

import (
	"log/slog"
	"net/http"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/model"
	"storefront-cart/internal/reconcile"
	"storefront-cart/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
	cartResponse
	Merge *reconcile.Report `json:"merge,omitempty"`
}

// handleLogin signs in against the storefront API and merges the device's
// guest cart into the account cart.
// POST /session/login
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, collector := cart.WithCollector(r.Context())

	sess := session.FromContext(ctx)
	if sess == nil {
		h.writeError(w, model.NewValidationError(session.ClientHeader, "header required"), nil)
		return
	}
	if h.api == nil {
		h.writeError(w, model.NewUnavailableError("login", nil), nil)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}

	result, err := h.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	// Build the identity the way later requests will see the token so the
	// registry recognizes the session as already signed in.
	id := session.ParseIdentity(result.Identity.Token)
	id.Name = result.Identity.Name
	id.Email = result.Identity.Email

	f := h.sessions.Get(sess.Client.DeviceID)
	report, err := f.SignIn(ctx, *id)
	if err != nil && !f.Identity().Same(id) {
		h.writeError(w, err, collector.Messages())
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "cart refresh after login failed", slog.String("error", err.Error()))
	}

	h.logger.InfoContext(ctx, "login",
		slog.String("device", sess.Client.DeviceID),
		slog.String("user_id", result.Identity.UserID),
	)

	h.writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Identity.Token,
		User: userView{
			ID:    result.Identity.UserID,
			Name:  result.Identity.Name,
			Email: result.Identity.Email,
		},
		cartResponse: newCartResponse(f.Cart(), collector.Messages()),
		Merge:        report,
	})
}

// handleLogout returns the device to its guest cart.
// POST /session/logout
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, collector := cart.WithCollector(r.Context())

	sess := session.FromContext(ctx)
	if sess == nil {
		h.writeError(w, model.NewValidationError(session.ClientHeader, "header required"), nil)
		return
	}

	c, err := h.sessions.Get(sess.Client.DeviceID).SignOut(ctx)
	if err != nil {
		h.writeError(w, err, collector.Messages())
		return
	}
	h.writeJSON(w, http.StatusOK, newCartResponse(c, collector.Messages()))
}
