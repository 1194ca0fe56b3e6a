package auth

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// OAuth2Refresher refreshes tokens with the refresh_token grant
type OAuth2Refresher struct {
	cfg    *oauth2.Config
	client *http.Client
}

// NewOAuth2Refresher targets the identity provider's token endpoint
func NewOAuth2Refresher(tokenURL, clientID, clientSecret string) *OAuth2Refresher {
	return &OAuth2Refresher{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// WithHTTPClient makes the refresher use hc for token requests
func (r *OAuth2Refresher) WithHTTPClient(hc *http.Client) *OAuth2Refresher {
	r.client = hc
	return r
}

// Refresh implements Refresher
func (r *OAuth2Refresher) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	if r.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	}

	// an empty access token forces the source to hit the token endpoint
	src := r.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken})
	return src.Token()
}
