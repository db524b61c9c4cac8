package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/strivetech/saiplatform/internal/auth"
)

const (
	AuthProviderJWT  = "jwt"
	AuthProviderOIDC = "oidc"
)

// ProviderName returns the normalised verifier name, defaulting to jwt.
func (c AuthConfig) ProviderName() string {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider == "" {
		return AuthProviderJWT
	}
	return provider
}

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		Audience:       strings.TrimSpace(c.JWT.Audience),
		AccessTokenTTL: ttl,
	}
}

// OIDCVerifierConfig converts AuthConfig into OIDC verifier parameters.
func (c AuthConfig) OIDCVerifierConfig() auth.OIDCConfig {
	return auth.OIDCConfig{
		Issuer:   strings.TrimSpace(c.OIDC.Issuer),
		ClientID: strings.TrimSpace(c.OIDC.ClientID),
		Timeout:  c.OIDC.Timeout,
	}
}

// NewVerifier builds the bearer token verifier chosen by auth.provider.
func (c AuthConfig) NewVerifier(ctx context.Context) (auth.Verifier, error) {
	switch c.ProviderName() {
	case AuthProviderJWT:
		svc, err := auth.NewJWTService(c.JWTServiceConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise jwt verifier: %w", err)
		}
		return svc, nil
	case AuthProviderOIDC:
		verifier, err := auth.NewOIDCVerifier(ctx, c.OIDCVerifierConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise oidc verifier: %w", err)
		}
		return verifier, nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", c.Provider)
	}
}
