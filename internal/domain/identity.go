package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrIdentityNotFound indicates that the identity has no stored mapping.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrCardNotSet indicates that the identity has not registered a card.
	ErrCardNotSet = errors.New("card is not set")
	// ErrAccountNotSet indicates that the identity has not registered its account id.
	ErrAccountNotSet = errors.New("account id is not set")
	// ErrUnknownRecipient indicates that a recipient could not be resolved to an account.
	ErrUnknownRecipient = errors.New("unknown recipient")
)

// Identity maps a local actor to its display name and ledger account.
//
// Account is the public id that receives coins. Card is the secret that authorizes
// spending from it and is never serialized.
type Identity struct {
	ID      uuid.UUID `json:"id"`
	Nick    string    `json:"nick"`
	Account string    `json:"account"`
	Card    string    `json:"-"`
}

// KnownAccount is one enumerated account holder.
type KnownAccount struct {
	Identity    uuid.UUID `json:"identity"`
	DisplayName string    `json:"display_name"`
	Account     string    `json:"account"`
}
