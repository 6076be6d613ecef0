package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const dummyPlaintext = "user-service-timing-equalizer"

// CredentialHasher turns plaintext passwords into stored digests and checks
// them back.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher hashes with a fixed bcrypt cost. Verify against an empty
// digest still burns one comparison so unknown users cost the same as
// wrong passwords.
type BcryptHasher struct {
	cost      int
	dummyHash []byte
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf(msgBcryptCostRangeFmt, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPlaintext), cost)
	if err != nil {
		return nil, fmt.Errorf(msgDummyHashFmt, err)
	}

	return &BcryptHasher{cost: cost, dummyHash: dummy}, nil
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New(msgPasswordEmpty)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf(msgHashPasswordFmt, err)
	}

	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plaintext))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// NeedsRehash reports whether digest was produced with a lower cost than the
// hasher's current one.
func (h *BcryptHasher) NeedsRehash(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false
	}
	return cost < h.cost
}
