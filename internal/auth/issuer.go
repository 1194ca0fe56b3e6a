package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Issuer mints and verifies HS256 session tokens. The simulator uses it
// as a stand-in identity provider.
type Issuer struct {
	Secret     []byte
	ClientID   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// ErrWrongTokenType is returned when a refresh token is used as an access token or vice versa
var ErrWrongTokenType = errors.New("wrong token type")

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Issue creates an access/refresh token pair for subject holding roles
func (i *Issuer) Issue(subject string, roles []string) (*oauth2.Token, error) {
	now := i.now()
	accessTTL := i.AccessTTL
	if accessTTL == 0 {
		accessTTL = 5 * time.Minute
	}
	refreshTTL := i.RefreshTTL
	if refreshTTL == 0 {
		refreshTTL = 30 * time.Minute
	}

	access, err := i.sign(Claims{
		TokenType:         TypeAccess,
		PreferredUsername: subject,
		ResourceAccess:    map[string]Roles{i.ClientID: {Roles: roles}},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
	})
	if err != nil {
		return nil, err
	}

	refresh, err := i.sign(Claims{
		TokenType:      TypeRefresh,
		ResourceAccess: map[string]Roles{i.ClientID: {Roles: roles}},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(refreshTTL)),
		},
	})
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken:  access,
		TokenType:    TypeAccess,
		RefreshToken: refresh,
		Expiry:       now.Add(accessTTL),
	}, nil
}

// Verify checks signature, expiry and type of an access token
func (i *Issuer) Verify(accessToken string) (*Claims, error) {
	return i.parse(accessToken, TypeAccess)
}

// Refresh exchanges a valid refresh token for a new pair with the same roles
func (i *Issuer) Refresh(refreshToken string) (*oauth2.Token, error) {
	claims, err := i.parse(refreshToken, TypeRefresh)
	if err != nil {
		return nil, err
	}
	return i.Issue(claims.Subject, claims.ResourceAccess[i.ClientID].Roles)
}

func (i *Issuer) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.Secret)
}

func (i *Issuer) parse(raw, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return i.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if claims.TokenType != typ {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.TokenType, typ)
	}
	return claims, nil
}
