package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imsidesk/internal/provider/base"

	"golang.org/x/oauth2"
)

type countingRefresher struct {
	calls int
	err   error
	next  func() *oauth2.Token
}

func (r *countingRefresher) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.next(), nil
}

func testIssuer(now time.Time) *Issuer {
	return &Issuer{
		Secret:    []byte("test-secret"),
		ClientID:  "dirbs",
		AccessTTL: time.Minute,
		Now:       func() time.Time { return now },
	}
}

func mustIssue(t *testing.T, iss *Issuer, roles ...string) *oauth2.Token {
	t.Helper()
	tok, err := iss.Issue("operator-1", roles)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

var unauthorized = &base.APIError{Status: http.StatusUnauthorized, Code: base.ErrUnauthorized, Message: "expired"}

func TestDoUsesValidTokenWithoutRefresh(t *testing.T) {
	now := time.Now()
	iss := testIssuer(now)
	ref := &countingRefresher{next: func() *oauth2.Token { return mustIssue(t, iss, "jazz") }}
	s := NewSession(ref, nil, WithClock(func() time.Time { return now }))
	if err := s.Start(context.Background(), mustIssue(t, iss, "jazz")); err != nil {
		t.Fatalf("start: %v", err)
	}

	calls := 0
	err := s.Do(context.Background(), func(ctx context.Context, token string) error {
		calls++
		if token == "" {
			t.Fatal("empty bearer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || ref.calls != 0 {
		t.Fatalf("expected 1 call and no refresh, got calls=%d refreshes=%d", calls, ref.calls)
	}
}

func TestDoRefreshesExpiredTokenBeforeCall(t *testing.T) {
	now := time.Now()
	iss := testIssuer(now)
	expired := mustIssue(t, iss, "jazz")
	expired.Expiry = now.Add(-time.Second)

	fresh := mustIssue(t, iss, "jazz")
	fresh.AccessToken = "fresh-token"
	ref := &countingRefresher{next: func() *oauth2.Token { return fresh }}
	store := NewMemoryStore()
	s := NewSession(ref, store, WithClock(func() time.Time { return now }))
	if err := s.Start(context.Background(), expired); err != nil {
		t.Fatalf("start: %v", err)
	}

	var seen string
	if err := s.Do(context.Background(), func(ctx context.Context, token string) error {
		seen = token
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.calls != 1 || seen != "fresh-token" {
		t.Fatalf("expected call with refreshed token, refreshes=%d token=%q", ref.calls, seen)
	}
	stored, _ := store.Load(context.Background())
	if stored == nil || stored.AccessToken != "fresh-token" {
		t.Fatalf("refreshed token not persisted: %+v", stored)
	}
}

func TestDoRetriesOnceAfterUnauthorized(t *testing.T) {
	now := time.Now()
	iss := testIssuer(now)
	ref := &countingRefresher{next: func() *oauth2.Token {
		tok := mustIssue(t, iss, "jazz")
		tok.AccessToken = "second"
		return tok
	}}
	s := NewSession(ref, nil, WithClock(func() time.Time { return now }))
	if err := s.Start(context.Background(), mustIssue(t, iss, "jazz")); err != nil {
		t.Fatalf("start: %v", err)
	}

	var tokens []string
	err := s.Do(context.Background(), func(ctx context.Context, token string) error {
		tokens = append(tokens, token)
		if token != "second" {
			return unauthorized
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.calls != 1 || len(tokens) != 2 || tokens[1] != "second" {
		t.Fatalf("expected one refresh and one retry, refreshes=%d tokens=%v", ref.calls, tokens)
	}
}

func TestDoLogsOutWhenRefreshFails(t *testing.T) {
	now := time.Now()
	iss := testIssuer(now)
	ref := &countingRefresher{err: errors.New("refresh token revoked")}
	loggedOut := 0
	store := NewMemoryStore()
	s := NewSession(ref, store,
		WithClock(func() time.Time { return now }),
		WithLogout(func() { loggedOut++ }),
	)
	if err := s.Start(context.Background(), mustIssue(t, iss, "jazz")); err != nil {
		t.Fatalf("start: %v", err)
	}

	calls := 0
	err := s.Do(context.Background(), func(ctx context.Context, token string) error {
		calls++
		return unauthorized
	})
	if !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected ErrLoggedOut, got %v", err)
	}
	if calls != 1 || ref.calls != 1 || loggedOut != 1 {
		t.Fatalf("expected exactly one call, refresh and logout; calls=%d refreshes=%d logouts=%d", calls, ref.calls, loggedOut)
	}
	if stored, _ := store.Load(context.Background()); stored != nil {
		t.Fatal("token should be cleared on logout")
	}
	if _, err := s.Token(context.Background()); !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("session should stay logged out, got %v", err)
	}
}

func TestDoLogsOutOnSecondUnauthorized(t *testing.T) {
	now := time.Now()
	iss := testIssuer(now)
	ref := &countingRefresher{next: func() *oauth2.Token { return mustIssue(t, iss, "jazz") }}
	s := NewSession(ref, nil, WithClock(func() time.Time { return now }))
	if err := s.Start(context.Background(), mustIssue(t, iss, "jazz")); err != nil {
		t.Fatalf("start: %v", err)
	}

	calls := 0
	err := s.Do(context.Background(), func(ctx context.Context, token string) error {
		calls++
		return unauthorized
	})
	if !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected ErrLoggedOut, got %v", err)
	}
	if calls != 2 || ref.calls != 1 {
		t.Fatalf("expected two calls and one refresh, calls=%d refreshes=%d", calls, ref.calls)
	}
}

func TestDoDoesNotRetryOtherErrors(t *testing.T) {
	now := time.Now()
	iss := testIssuer(now)
	ref := &countingRefresher{next: func() *oauth2.Token { return mustIssue(t, iss, "jazz") }}
	s := NewSession(ref, nil, WithClock(func() time.Time { return now }))
	if err := s.Start(context.Background(), mustIssue(t, iss, "jazz")); err != nil {
		t.Fatalf("start: %v", err)
	}

	boom := &base.APIError{Status: http.StatusInternalServerError, Code: base.ErrAPI, Message: "boom"}
	calls := 0
	err := s.Do(context.Background(), func(ctx context.Context, token string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected upstream error back, got %v", err)
	}
	if calls != 1 || ref.calls != 0 {
		t.Fatalf("non-401 errors must not retry, calls=%d refreshes=%d", calls, ref.calls)
	}
}

func TestStartLoadsFromStore(t *testing.T) {
	iss := testIssuer(time.Now())
	store := NewMemoryStore()
	if err := store.Save(context.Background(), mustIssue(t, iss, "jazz")); err != nil {
		t.Fatal(err)
	}

	s := NewSession(nil, store, WithClientID("dirbs"))
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("start from store: %v", err)
	}
	op, err := s.Operator()
	if err != nil || op != "jazz" {
		t.Fatalf("expected operator jazz, got %q (%v)", op, err)
	}

	empty := NewSession(nil, NewMemoryStore())
	if err := empty.Start(context.Background(), nil); !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected ErrLoggedOut with empty store, got %v", err)
	}
}

func TestResolveOperatorSkipsReservedRoles(t *testing.T) {
	iss := testIssuer(time.Now())
	tok := mustIssue(t, iss, "offline_access", "uma_authorization", "telenor")

	op, err := ResolveOperator(tok.AccessToken, "dirbs", DefaultReservedRoles)
	if err != nil || op != "telenor" {
		t.Fatalf("expected telenor, got %q (%v)", op, err)
	}

	op, err = ResolveOperator(tok.AccessToken, "", DefaultReservedRoles)
	if err != nil || op != "telenor" {
		t.Fatalf("expected telenor across clients, got %q (%v)", op, err)
	}

	onlyReserved := mustIssue(t, iss, "offline_access")
	if _, err := ResolveOperator(onlyReserved.AccessToken, "dirbs", DefaultReservedRoles); !errors.Is(err, ErrNoOperatorRole) {
		t.Fatalf("expected ErrNoOperatorRole, got %v", err)
	}
}

func TestIssuerRejectsExpiredAndWrongType(t *testing.T) {
	now := time.Now()
	iss := testIssuer(now)
	tok := mustIssue(t, iss, "jazz")

	if _, err := iss.Verify(tok.AccessToken); err != nil {
		t.Fatalf("fresh token should verify: %v", err)
	}
	if _, err := iss.Verify(tok.RefreshToken); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("refresh token must not pass as access token, got %v", err)
	}

	later := testIssuer(now.Add(2 * time.Minute))
	if _, err := later.Verify(tok.AccessToken); err == nil {
		t.Fatal("expired token should not verify")
	}
	if _, err := later.Refresh(tok.RefreshToken); err != nil {
		t.Fatalf("refresh token outlives access token: %v", err)
	}
}

func TestOAuth2RefresherUsesRefreshGrant(t *testing.T) {
	iss := testIssuer(time.Now())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected grant %q", r.Form.Get("grant_type"))
		}
		tok, err := iss.Refresh(r.Form.Get("refresh_token"))
		if err != nil {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  tok.AccessToken,
			"refresh_token": tok.RefreshToken,
			"token_type":    tok.TokenType,
			"expires_in":    60,
		})
	}))
	defer srv.Close()

	ref := NewOAuth2Refresher(srv.URL, "dirbs", "").WithHTTPClient(srv.Client())
	old := mustIssue(t, iss, "jazz")
	fresh, err := ref.Refresh(context.Background(), old)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Fatalf("incomplete token: %+v", fresh)
	}

	if _, err := ref.Refresh(context.Background(), &oauth2.Token{RefreshToken: "garbage"}); err == nil {
		t.Fatal("expected invalid grant to fail")
	}
}
