package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/localcart"
	"storefront-cart/internal/model"
	"storefront-cart/internal/reconcile"
	"storefront-cart/internal/storage"
)

// sessionKey is stored as <data>/session.json.
const sessionKey = "session"

var apiClient gateway.API

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cartctl")
	}
	return ".cartctl"
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// api returns the storefront API client, creating it on first use.
func api() gateway.API {
	if apiClient == nil {
		c, err := gateway.New(gateway.Config{BaseURL: apiURL, Logger: newLogger()})
		if err != nil {
			fatal("Invalid -api: %v", err)
		}
		apiClient = c
	}
	return apiClient
}

// openFacade builds the facade over the data directory and restores the
// saved session. A session the API no longer accepts is dropped and the
// guest cart is used.
func openFacade(ctx context.Context) (*cart.Facade, error) {
	logger := newLogger()

	st, err := storage.NewFile(filepath.Join(dataDir, "carts"), 0)
	if err != nil {
		return nil, err
	}

	f := cart.New(cart.Options{
		Local:      localcart.New(st, "", logger),
		Gateway:    api(),
		Reconciler: reconcile.New(reconcile.ClearAlways, logger),
		Notifier:   cart.CollectingNotifier{Next: cart.LogNotifier{Logger: logger}},
		Logger:     logger,
	})

	id, err := loadSession(dataDir)
	if err != nil {
		printWarning("Ignoring unreadable session: %v", err)
		return f, nil
	}
	if id == nil {
		return f, nil
	}

	if _, err := f.SignIn(ctx, *id); err != nil && !f.Identity().Same(id) {
		printWarning("Session ended (%s), using the guest cart", describeError(err))
		if err := clearSession(dataDir); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func sessionStore(dir string) (*storage.File, error) {
	return storage.NewFile(dir, 0)
}

// loadSession returns the saved identity, or nil when signed out.
func loadSession(dir string) (*model.Identity, error) {
	st, err := sessionStore(dir)
	if err != nil {
		return nil, err
	}
	data, err := st.Get(context.Background(), sessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var id model.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if id.Token == "" {
		return nil, nil
	}
	return &id, nil
}

// saveSession persists id; a nil id clears the session.
func saveSession(dir string, id *model.Identity) error {
	if id == nil {
		return clearSession(dir)
	}
	st, err := sessionStore(dir)
	if err != nil {
		return err
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := st.Set(context.Background(), sessionKey, data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func clearSession(dir string) error {
	st, err := sessionStore(dir)
	if err != nil {
		return err
	}
	return st.Delete(context.Background(), sessionKey)
}
