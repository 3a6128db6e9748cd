// Package barcode derives the printable 13-character slip identifier. The
// code is an HMAC over the round id and slip id, so it can be re-derived and
// checked server-side but not forged without the process secret.
package barcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Length is the fixed barcode length.
const Length = 13

var codeRe = regexp.MustCompile(`^[0-9A-Z]{13}$`)

// Codec encodes and verifies slip barcodes with a process-wide secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec. The secret must be non-empty; length policy is
// enforced by config validation.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("barcode secret must not be empty")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Encode produces the 13-character [0-9A-Z] barcode for a slip.
// HMAC-SHA256("{gameID}_{first 8 hex chars of slip id, uppercased}"), first
// 8 bytes big-endian as uint64, rendered Base36 uppercase, left-padded.
func (c *Codec) Encode(gameID string, slipID uuid.UUID) string {
	prefix := strings.ToUpper(slipID.String()[:8])
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(gameID + "_" + prefix))
	sum := mac.Sum(nil)

	n := binary.BigEndian.Uint64(sum[:8])
	code := strings.ToUpper(strconv.FormatUint(n, 36))
	if len(code) < Length {
		code = strings.Repeat("0", Length-len(code)) + code
	}
	return code
}

// Verify re-encodes and compares in constant time.
func (c *Codec) Verify(gameID string, slipID uuid.UUID, code string) bool {
	if !Valid(code) {
		return false
	}
	expected := c.Encode(gameID, slipID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1
}

// Valid reports whether s has the exact barcode shape.
func Valid(s string) bool {
	return codeRe.MatchString(s)
}

// Normalize uppercases a scanned code so lookups are case-insensitive.
// Returns an error when the result is not a well-formed barcode.
func Normalize(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if !Valid(code) {
		return "", fmt.Errorf("malformed barcode %q", s)
	}
	return code, nil
}
