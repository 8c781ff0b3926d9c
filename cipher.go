package session

import (
	"crypto/rand"
	"io"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/nacl/secretbox"
)

// TokenCipher encrypts the session token before it touches durable storage.
type TokenCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

const secretBoxKeySize = 32
const secretBoxNonceSize = 24

// SecretBoxCipher implements TokenCipher with NaCl secretbox: authenticated
// encryption, random nonce prepended to the ciphertext.
type SecretBoxCipher struct {
	key [secretBoxKeySize]byte
}

var _ TokenCipher = (*SecretBoxCipher)(nil)

// NewSecretBoxCipher requires a 32 byte key.
func NewSecretBoxCipher(key []byte) (*SecretBoxCipher, error) {
	if len(key) != secretBoxKeySize {
		return nil, errors.New("secretbox key must be 32 bytes", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}
	c := &SecretBoxCipher{}
	copy(c.key[:], key)
	return c, nil
}

func (c *SecretBoxCipher) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [secretBoxNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to generate nonce")
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &c.key), nil
}

func (c *SecretBoxCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < secretBoxNonceSize {
		return nil, errors.New("stored token ciphertext too short", errors.CategoryAuth).
			WithTextCode(textCodeTokenDecode).
			WithCode(errors.CodeUnauthorized)
	}
	var nonce [secretBoxNonceSize]byte
	copy(nonce[:], ciphertext[:secretBoxNonceSize])
	plaintext, ok := secretbox.Open(nil, ciphertext[secretBoxNonceSize:], &nonce, &c.key)
	if !ok {
		return nil, errors.New("unable to decrypt stored token", errors.CategoryAuth).
			WithTextCode(textCodeTokenDecode).
			WithCode(errors.CodeUnauthorized)
	}
	return plaintext, nil
}
