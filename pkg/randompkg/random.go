// Package randompkg provides functionality for generating random application items in tests.
package randompkg

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"
	digits   = "0123456789"
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

func fromSet(set string, n int) string {
	var sb strings.Builder

	k := len(set)

	for i := 0; i < n; i++ {
		c := set[Intn(k)]

		_ = sb.WriteByte(c) // The returned err is always nil.
	}

	return sb.String()
}

// String generates a random string of length n.
func String(n int) string {
	return fromSet(alphabet, n)
}

// Nick generates a random player nick.
func Nick() string {
	return String(6)
}

// Card generates a random card code.
func Card() string {
	return strings.ToUpper(String(4)) + "-" + fromSet(digits, 8)
}

// LedgerID generates a random numeric ledger account id.
func LedgerID() string {
	return fromSet("123456789", 1) + fromSet(digits, 7)
}

// Identity generates a random actor identity.
func Identity() uuid.UUID {
	return uuid.New()
}
