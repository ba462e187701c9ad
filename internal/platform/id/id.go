// Package id generates roll identifiers.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// The extended hex alphabet keeps byte order, so ids sort by creation time.
var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// NewRollID returns a v7 UUID encoded as 26 lowercase base32hex characters.
func NewRollID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}

// ParseRollID decodes an id produced by NewRollID.
func ParseRollID(value string) (uuid.UUID, error) {
	raw, err := encoding.DecodeString(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(raw)
}
