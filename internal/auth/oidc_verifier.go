package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCConfig configures verification of ID tokens issued by an OpenID provider.
type OIDCConfig struct {
	Issuer     string
	ClientID   string
	HTTPClient *http.Client
	Timeout    time.Duration
	Clock      func() time.Time
}

// OIDCVerifier validates ID tokens against the provider's published keys.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier performs discovery against the issuer and prepares a verifier.
func NewOIDCVerifier(ctx context.Context, cfg OIDCConfig) (*OIDCVerifier, error) {
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, errors.New("oidc: issuer is required")
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errors.New("oidc: client id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	// The provider keeps this context for later key set refreshes.
	ctx = oidc.ClientContext(context.WithoutCancel(ctx), client)

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discover %s: %w", issuer, err)
	}

	verifierCfg := &oidc.Config{ClientID: clientID}
	if cfg.Clock != nil {
		verifierCfg.Now = cfg.Clock
	}

	return &OIDCVerifier{verifier: provider.Verifier(verifierCfg)}, nil
}

// Verify implements Verifier.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrMissingToken
	}
	if ctx == nil {
		ctx = context.Background()
	}

	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("oidc: verify id token: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc: decode claims: %w", err)
	}

	identity := ExternalIdentity{
		Subject:       idToken.Subject,
		Email:         stringClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		Name:          stringClaim(claims, "name"),
		AvatarURL:     stringClaim(claims, "picture"),
	}.Normalise()
	if identity.Email == "" {
		return nil, errors.New("oidc: email claim missing")
	}
	return &identity, nil
}
