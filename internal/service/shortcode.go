package service

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

// Alphanumeric charset for generated short codes.
const codeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Custom aliases additionally allow hyphen and underscore.
var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,20}$`)

// GenerateCode produces a random short code of the given length using
// a cryptographically secure source.
func GenerateCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		b[i] = codeCharset[n.Int64()]
	}
	return string(b), nil
}

// ValidateAlias checks a caller-chosen short code against the allowed
// shape: 2-20 characters of alphanumerics, hyphen, underscore.
func ValidateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return ErrInvalidAlias
	}
	return nil
}

// NormalizeURL coerces a destination to an absolute http(s) URL,
// prepending https:// when no scheme is present. Non-http(s) schemes
// are rejected.
func NormalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}
