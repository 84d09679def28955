package payref

import (
	"crypto/rand"
	"encoding/base32"
)

// Generate creates a short reference code shown to the user for a
// withdrawal request, e.g. "WD-K7Q2M4XNP".
func Generate() (string, error) {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:])
	if len(code) > 9 {
		code = code[:9]
	}
	return "WD-" + code, nil
}
