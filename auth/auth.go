// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/netip"
	"strings"
)

var (
	ErrEmptyOrigin = errors.New("empty network origin")
)

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// 128 bits keeps collisions out of reach for per-poll deduplication
	return hex.EncodeToString(sum[:16])
}

// VoterIdentity derives the identity used to deduplicate votes from the
// requester's network origin. Equivalent spellings of one address (IPv4
// mapped into IPv6, zones, surrounding whitespace) map to the same identity.
// Origins that do not parse as an IP are hashed verbatim.
func VoterIdentity(origin, salt string) (string, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", ErrEmptyOrigin
	}
	if addr, err := netip.ParseAddr(origin); err == nil {
		origin = addr.Unmap().WithZone("").String()
	}
	return HashIP(origin, salt), nil
}
