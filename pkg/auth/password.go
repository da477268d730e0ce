package auth

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// Hasher hashes and checks passwords with argon2id.
type Hasher struct {
	Params *argon2id.Params
}

func NewHasher() *Hasher {
	return &Hasher{Params: argon2id.DefaultParams}
}

// NewTestHasher uses cheap parameters so tests stay fast.
func NewTestHasher() *Hasher {
	return &Hasher{Params: &argon2id.Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}}
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, h.Params)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Compare reports whether password matches hash. A malformed hash is an error.
func (h *Hasher) Compare(password, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, hash)
}
