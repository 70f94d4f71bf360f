package identity

import "golang.org/x/crypto/bcrypt"

// Hasher is the credential-hashing collaborator: a slow, salted one-way
// function.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
