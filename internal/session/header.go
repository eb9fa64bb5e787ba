// Package session ties HTTP requests to a shopper's cart.
//
// Browser and app clients identify their device with the Storefront-Client
// header and their account with a bearer token. The Registry keeps one cart
// facade per device and aligns its sign-in state with each request, so the
// guest cart is merged the first time a new token shows up.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
	"golang.org/x/mod/semver"
)

// ClientHeader identifies the calling device and app version.
// Format: device="<id>", version="v1.4.0" (RFC 8941 Dictionary).
const ClientHeader = "Storefront-Client"

// Client is the parsed Storefront-Client header.
type Client struct {
	DeviceID string
	Version  string // canonical semver with "v" prefix, or empty
}

// ParseClientHeader parses a Storefront-Client header value.
//
// Examples:
//   - device="d-123"                     → {d-123, ""}
//   - device="d-123", version="1.4.0"    → {d-123, v1.4.0}
//   - device="d-123";trace=?1            → {d-123, ""} (params ignored)
func ParseClientHeader(header string) (Client, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Client{}, errors.New("empty Storefront-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return Client{}, fmt.Errorf("invalid Storefront-Client header: %w", err)
	}

	device, err := stringMember(dict, "device")
	if err != nil {
		return Client{}, err
	}
	if device == "" {
		return Client{}, errors.New("device must not be empty")
	}

	client := Client{DeviceID: device}
	if _, ok := dict.Get("version"); ok {
		v, err := stringMember(dict, "version")
		if err != nil {
			return Client{}, err
		}
		v = normalizeVersion(v)
		if !semver.IsValid(v) {
			return Client{}, fmt.Errorf("version %q is not a semantic version", v)
		}
		client.Version = semver.Canonical(v)
	}
	return client, nil
}

func stringMember(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", fmt.Errorf("%s key not found in Storefront-Client header", key)
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}
	s, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s value must be a string", key)
	}
	return strings.TrimSpace(s), nil
}

// normalizeVersion adds the "v" prefix semver requires.
func normalizeVersion(v string) string {
	if v != "" && v[0] != 'v' {
		return "v" + v
	}
	return v
}

// SupportedVersion reports whether version satisfies min. An empty min
// accepts everything; an empty version only satisfies an empty min.
func SupportedVersion(version, min string) bool {
	if min == "" {
		return true
	}
	if version == "" {
		return false
	}
	return semver.Compare(normalizeVersion(version), normalizeVersion(min)) >= 0
}
