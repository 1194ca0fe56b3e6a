package request

import (
	"errors"
	"testing"
)

func TestSplitMSISDN(t *testing.T) {
	sub, err := SplitMSISDN("15551234567", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.CC != "1" || sub.SN != "5551234567" {
		t.Fatalf("unexpected split: %+v", sub)
	}
	if sub.MSISDN() != "15551234567" {
		t.Fatalf("round trip mismatch: %s", sub.MSISDN())
	}

	sub, err = SplitMSISDN("+923001234567", "92")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.SN != "3001234567" {
		t.Fatalf("expected plus sign to be ignored, got %+v", sub)
	}
}

func TestSplitMSISDNRejectsForeignNumbers(t *testing.T) {
	cases := []struct{ msisdn, cc string }{
		{"445551234567", "1"},
		{"15551234567", ""},
		{"92", "92"},
	}
	for _, c := range cases {
		if _, err := SplitMSISDN(c.msisdn, c.cc); !errors.Is(err, ErrCountryCodeMismatch) {
			t.Fatalf("SplitMSISDN(%q, %q): expected ErrCountryCodeMismatch, got %v", c.msisdn, c.cc, err)
		}
	}
}

func TestWindowPagination(t *testing.T) {
	w := NewWindow(10)
	if w.ShowPagination() {
		t.Fatal("empty list should not show pagination")
	}

	w = w.WithTotal(10)
	if w.ShowPagination() {
		t.Fatal("exactly one full page should not show pagination")
	}

	w = w.WithTotal(11)
	if !w.ShowPagination() {
		t.Fatal("11 items over 10 per page should show pagination")
	}
	if w.Pages() != 2 {
		t.Fatalf("expected 2 pages, got %d", w.Pages())
	}

	if got := w.WithTotal(-5).TotalCount; got != 0 {
		t.Fatalf("negative totals must clamp to 0, got %d", got)
	}
}

func TestWindowClampAndCaption(t *testing.T) {
	w := NewWindow(10).WithTotal(45)
	if w.Clamp(0) != 1 || w.Clamp(9) != 5 || w.Clamp(3) != 3 {
		t.Fatal("clamp out of range")
	}

	w = w.WithPage(5)
	if w.StartIndex != 5 {
		t.Fatalf("start index should track the page number, got %d", w.StartIndex)
	}
	if got := w.Caption(); got != "Showing 41 to 45 of 45 requests" {
		t.Fatalf("unexpected caption %q", got)
	}

	// a page past the end never yields an inverted range
	if got := NewWindow(10).WithTotal(10).WithPage(2).Caption(); got != "Showing 10 to 10 of 10 requests" {
		t.Fatalf("unexpected caption past the end %q", got)
	}

	if got := NewWindow(0).PageSize; got != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", got)
	}
}
