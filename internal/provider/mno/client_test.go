package mno

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"imsidesk/internal/domain/request"
	"imsidesk/internal/provider/base"
)

type staticAuth struct {
	token string
	calls int
}

func (a *staticAuth) Do(ctx context.Context, op func(ctx context.Context, accessToken string) error) error {
	a.calls++
	return op(ctx, a.token)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *staticAuth) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	auth := &staticAuth{token: "tok-1"}
	c := New(srv.URL+"/api/v1", 5, auth)
	c.HTTP().WithHTTPClient(srv.Client())
	return c, auth
}

func TestFirstPageSendsPagingAndBearer(t *testing.T) {
	c, auth := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/mno-first-page" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		q := r.URL.Query()
		if q.Get("mno") != "jazz" || q.Get("start") != "3" || q.Get("limit") != "10" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cases":[{"Req_id":7,"MSISDN":"923001234567"}],"count":21,"Country_Code":"92"}`))
	})

	page, err := c.FirstPage(context.Background(), "jazz", 3, 10)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if auth.calls != 1 {
		t.Fatalf("expected one authorized call, got %d", auth.calls)
	}
	if page.Count != 21 || page.CountryCode != "92" || len(page.Cases) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Cases[0] != (request.Case{RequestID: 7, MSISDN: "923001234567"}) {
		t.Fatalf("unexpected case %+v", page.Cases[0])
	}
}

func TestFirstPageMapsUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	})

	_, err := c.FirstPage(context.Background(), "jazz", 1, 10)
	if !base.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if base.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", base.StatusOf(err))
	}
}

func TestFirstPageRejectsMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.FirstPage(context.Background(), "jazz", 1, 10)
	var apiErr *base.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != base.ErrResponseFormat {
		t.Fatalf("expected response format error, got %v", err)
	}
}

func TestBulkDownloadReturnsCSV(t *testing.T) {
	csv := "Req_id,MSISDN\n1,923001234567\n"
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/mno-bulk-download" || r.URL.Query().Get("mno") != "jazz" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(csv))
	})

	body, err := c.BulkDownload(context.Background(), "jazz")
	if err != nil {
		t.Fatalf("bulk download: %v", err)
	}
	if string(body) != csv {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestAttachIMSIPutsPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/mno-single-upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body request.AttachIMSI
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		want := request.AttachIMSI{
			Operator:   "jazz",
			Subscriber: request.Subscriber{CC: "92", SN: "3001234567"},
			IMSI:       "410011234567890",
		}
		if body != want {
			t.Errorf("unexpected payload %+v", body)
		}
		_, _ = w.Write([]byte(`{"msg":"IMSI added successfully"}`))
	})

	res, err := c.AttachIMSI(context.Background(), request.AttachIMSI{
		Operator:   "jazz",
		Subscriber: request.Subscriber{CC: "92", SN: "3001234567"},
		IMSI:       "410011234567890",
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if res.Message != "IMSI added successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestAttachIMSISurfacesServerMessage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"msg":"IMSI already attached"}`))
	})

	_, err := c.AttachIMSI(context.Background(), request.AttachIMSI{Operator: "jazz"})
	var apiErr *base.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "IMSI already attached" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}
