package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrMissingToken is returned when no bearer token accompanies a request.
var ErrMissingToken = errors.New("auth: bearer token missing")

// ExternalIdentity is the subject asserted by the authentication provider.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// Normalise trims fields and lower-cases the email address.
func (i ExternalIdentity) Normalise() ExternalIdentity {
	i.Subject = strings.TrimSpace(i.Subject)
	i.Email = strings.ToLower(strings.TrimSpace(i.Email))
	i.Name = strings.TrimSpace(i.Name)
	i.AvatarURL = strings.TrimSpace(i.AvatarURL)
	return i
}

// Verifier validates a raw bearer token and returns the identity it carries.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error)
}

func stringClaim(claims map[string]any, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func boolClaim(claims map[string]any, key string) bool {
	if v, ok := claims[key]; ok {
		switch val := v.(type) {
		case bool:
			return val
		case string:
			return strings.EqualFold(val, "true")
		}
	}
	return false
}
