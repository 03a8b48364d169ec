package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Signer supplies the authentication material attached to every request.
// *Credentials is the standard implementation.
type Signer interface {
	AccessKey() string
	Passphrase() string
	Sign(timestamp, method, path, body string) (string, error)
}

// Credentials holds the API key triple. A Credentials value is immutable and
// safe to share across goroutines.
type Credentials struct {
	accessKey  string
	passphrase string
	signingKey string
}

// NewCredentials validates and returns a Credentials value. Every field must
// be non-blank.
func NewCredentials(accessKey, passphrase, signingKey string) (*Credentials, error) {
	if strings.TrimSpace(accessKey) == "" {
		return nil, newClientError("access key is required", ErrInvalidCredentials)
	}
	if strings.TrimSpace(passphrase) == "" {
		return nil, newClientError("passphrase is required", ErrInvalidCredentials)
	}
	if strings.TrimSpace(signingKey) == "" {
		return nil, newClientError("signing key is required", ErrInvalidCredentials)
	}

	return &Credentials{
		accessKey:  accessKey,
		passphrase: passphrase,
		signingKey: signingKey,
	}, nil
}

// AccessKey returns the raw access key.
func (c *Credentials) AccessKey() string {
	return c.accessKey
}

// Passphrase returns the raw passphrase.
func (c *Credentials) Passphrase() string {
	return c.passphrase
}

// String hides the secret parts so a Credentials value can be logged.
func (c *Credentials) String() string {
	return "Credentials{accessKey: " + c.accessKey + ", passphrase: ***, signingKey: ***}"
}

// Sign returns the base64 HMAC-SHA256 of timestamp+method+path+body.
//
// The key is the signing key decoded as standard base64 when it is valid
// base64, and its raw UTF-8 bytes otherwise.
func (c *Credentials) Sign(timestamp, method, path, body string) (string, error) {
	key := c.hmacKey()
	if len(key) == 0 {
		return "", newClientError("failed to generate signature", ErrInvalidCredentials)
	}

	mac := hmac.New(sha256.New, key)
	message := timestamp + method + path + body
	if _, err := mac.Write([]byte(message)); err != nil {
		return "", newClientError("failed to generate signature", err)
	}

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (c *Credentials) hmacKey() []byte {
	if c == nil || c.signingKey == "" {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(c.signingKey); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(c.signingKey)
}
