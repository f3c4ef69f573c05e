// Package tokenpkg creates and verifies bearer tokens for the HTTP facade.
package tokenpkg

import "time"

// Maker manages tokens.
type Maker interface {
	// CreateToken creates a new token for a specific username and duration.
	CreateToken(username string, duration time.Duration) (string, *Payload, error)

	// VerifyToken checks if the token is valid or not.
	VerifyToken(token string) (*Payload, error)
}

// Supported token types.
const (
	TypePaseto = "paseto"
	TypeJWT    = "jwt"
)

// New returns the Maker for the given token type.
func New(tokenType, symmetricKey string) (Maker, error) {
	if tokenType == TypeJWT {
		return NewJWTMaker(symmetricKey)
	}

	return NewPasetoMaker(symmetricKey)
}
