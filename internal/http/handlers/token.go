package handlers

import (
	"net/http"
	"time"

	"imsidesk/internal/auth"

	"github.com/rs/zerolog/log"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// Token serves the OAuth2 refresh_token grant
func Token(iss *auth.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, tokenError{Error: "invalid_request"})
			return
		}
		if grant := r.PostForm.Get("grant_type"); grant != "refresh_token" {
			writeJSON(w, http.StatusBadRequest, tokenError{Error: "unsupported_grant_type", Description: grant})
			return
		}
		if id := r.PostForm.Get("client_id"); id != "" && id != iss.ClientID {
			writeJSON(w, http.StatusUnauthorized, tokenError{Error: "invalid_client"})
			return
		}

		tok, err := iss.Refresh(r.PostForm.Get("refresh_token"))
		if err != nil {
			log.Debug().Err(err).Msg("refresh rejected")
			writeJSON(w, http.StatusBadRequest, tokenError{Error: "invalid_grant", Description: "refresh token is invalid or expired"})
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			TokenType:    tok.TokenType,
			ExpiresIn:    int64(time.Until(tok.Expiry).Seconds()),
		})
	}
}
