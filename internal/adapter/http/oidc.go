package adapthttp

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the provider and OAuth2 client for single sign-on.
type OIDCConfig struct {
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// NewOIDCConfig discovers the issuer and builds the authorization-code client.
func NewOIDCConfig(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}
	return &OIDCConfig{
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

func (c *OIDCConfig) verifier() *oidc.IDTokenVerifier {
	return c.Provider.Verifier(&oidc.Config{ClientID: c.OAuth2Config.ClientID})
}
