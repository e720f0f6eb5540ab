// Package token generates the opaque external tokens used for sessions,
// users, trips, events and embedded sub-documents.
package token

import (
	"crypto/rand"
	"math/big"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Length matches the 32-character tokens the mobile clients already store.
	Length = 32
)

// New returns a collision-resistant random token of Length alphanumeric
// characters. It panics only if the platform CSPRNG is unavailable, which is
// not a recoverable condition for this service.
func New() string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("token: csprng unavailable: " + err.Error())
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}
