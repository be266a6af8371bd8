package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials holds the single configured API user. The password is hashed at
// construction so the plaintext never outlives startup.
type Credentials struct {
	username string
	hash     []byte
}

func NewCredentials(username, password string) (*Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		username: strings.TrimSpace(username),
		hash:     hash,
	}, nil
}

func (c *Credentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(c.username)) == 1

	// compare regardless of username match to keep timing flat
	passErr := bcrypt.CompareHashAndPassword(c.hash, []byte(strings.TrimSpace(password)))

	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
