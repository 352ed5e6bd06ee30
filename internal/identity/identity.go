// Package identity verifies bearer credentials issued by the external
// identity provider.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrUnauthenticated means the credential is missing, malformed, expired or
// rejected by the provider.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the verified result of a bearer credential.
type Identity struct {
	// ExternalRef is the provider's stable subject id.
	ExternalRef string
	Email       string
	DisplayName string
	PictureURL  string
	// ExpiresAt is when the credential stops being valid.
	ExpiresAt time.Time
}

// Verifier checks a bearer credential and returns the identity it proves.
// Implementations return ErrUnauthenticated for any credential they reject.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (*Identity, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}
