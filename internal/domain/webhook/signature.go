package webhook

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // accepted for senders that still sign with SHA-1
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

type algorithm struct {
	name string
	new  func() hash.Hash
}

// algorithms are tried strongest first.
var algorithms = []algorithm{
	{name: "sha512", new: sha512.New},
	{name: "sha3-256", new: sha3.New256},
	{name: "sha256", new: sha256.New},
	{name: "sha1", new: sha1.New},
}

// Algorithms returns the supported HMAC algorithm names, strongest first.
func Algorithms() []string {
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = a.name
	}
	return names
}

// Verify reports whether header carries a valid HMAC of body keyed with secret.
// The header may be "algo=digest"; only the part after the first "=" is
// compared. Digests are accepted hex or base64 encoded.
//
// An empty secret disables verification and Verify returns true: callers that
// leave the secret unset accept unauthenticated input.
func Verify(body []byte, secret, header string) bool {
	if secret == "" {
		return true
	}
	provided := header
	if i := strings.IndexByte(header, '='); i >= 0 {
		provided = header[i+1:]
	}
	if provided == "" {
		return false
	}

	for _, a := range algorithms {
		sum := digest(a, body, secret)
		if constantTimeEqual(hex.EncodeToString(sum), provided) ||
			constantTimeEqual(base64.StdEncoding.EncodeToString(sum), provided) {
			return true
		}
	}
	return false
}

// Sign returns "algo=<hex digest>" for body keyed with secret.
func Sign(body []byte, secret, algo string) (string, error) {
	for _, a := range algorithms {
		if a.name == algo {
			return a.name + "=" + hex.EncodeToString(digest(a, body, secret)), nil
		}
	}
	return "", fmt.Errorf("unsupported signature algorithm %q", algo)
}

func digest(a algorithm, body []byte, secret string) []byte {
	mac := hmac.New(a.new, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// constantTimeEqual compares without short-circuiting on the first differing
// byte. Unequal lengths are never equal.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
