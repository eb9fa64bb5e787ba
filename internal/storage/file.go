package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// File stores each key as a JSON file in a directory.
// This is the device-local equivalent of browser local storage.
type File struct {
	dir string
	ttl time.Duration
}

// NewFile creates the directory if needed. A positive ttl makes entries
// older than ttl (by modification time) read as missing.
func NewFile(dir string, ttl time.Duration) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &File{dir: dir, ttl: ttl}, nil
}

// path maps a key to a file name; QueryEscape covers ':' and '/'.
func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+".json")
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	p := f.path(key)

	if f.ttl > 0 {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", key, err)
		}
		if time.Since(info.ModTime()) > f.ttl {
			return nil, ErrNotFound
		}
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Set writes to a temp file and renames it over the target so readers never
// observe a partial document.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("replacing %s: %w", key, err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (f *File) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *File) Close() error { return nil }
