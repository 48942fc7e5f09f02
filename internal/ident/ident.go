// Package ident derives the deterministic, collision-resistant identifiers
// used as primary keys throughout the cache. The same remote record viewed
// in different sharing contexts must land in distinct cache rows, so the
// viewer name participates in the derivation when present.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Separator joins the parts of a derivation input before hashing.
const Separator = "_"

// Hash returns the hex-encoded SHA-256 of the parts joined with Separator.
func Hash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, Separator)))
	return hex.EncodeToString(sum[:])
}

// Derive maps (owner public key, logical path, optional viewer name) to a
// cache identifier. Pure and deterministic: equal inputs always produce
// equal identifiers, and distinct triples collide only with negligible
// probability.
func Derive(ownerPublicKey, path, viewer string) string {
	if viewer == "" {
		return Hash(ownerPublicKey, path)
	}
	return Hash(ownerPublicKey, path, viewer)
}

// Section builds the composite scan key scoping cache rows to one owner
// and record type.
func Section(ownerPublicKey, recordType string) string {
	return ownerPublicKey + Separator + recordType
}
