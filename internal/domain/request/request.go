package request

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultPageSize matches the page limit used by the operator portal
const DefaultPageSize = 10

// ExportFileName is the name the bulk download is saved under
const ExportFileName = "Request-Document.csv"

// Case is a pending IMSI request for one subscriber phone number
type Case struct {
	RequestID int64  `json:"Req_id"`
	MSISDN    string `json:"MSISDN"`
}

// Page is one page of cases as returned by the operator API
type Page struct {
	Cases       []Case `json:"cases"`
	Count       int    `json:"count"`
	CountryCode string `json:"Country_Code"`
}

// Window describes which slice of the request list is displayed.
// StartIndex is the value sent upstream as "start", which the operator
// API interprets as a 1-based page number.
type Window struct {
	StartIndex  int `json:"start"`
	PageSize    int `json:"limit"`
	CurrentPage int `json:"page"`
	TotalCount  int `json:"total"`
}

// NewWindow returns the window for the first page
func NewWindow(pageSize int) Window {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Window{StartIndex: 1, PageSize: pageSize, CurrentPage: 1}
}

// Pages returns the number of pages needed for TotalCount (at least 1)
func (w Window) Pages() int {
	if w.TotalCount <= 0 || w.PageSize <= 0 {
		return 1
	}
	return (w.TotalCount + w.PageSize - 1) / w.PageSize
}

// ShowPagination reports whether a pager is needed at all
func (w Window) ShowPagination() bool {
	return w.TotalCount > w.PageSize
}

// Clamp keeps page inside [1, Pages()]
func (w Window) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if n := w.Pages(); page > n {
		return n
	}
	return page
}

// WithPage moves the window to page
func (w Window) WithPage(page int) Window {
	w.CurrentPage = page
	w.StartIndex = page
	return w
}

// WithTotal records the total count reported by the server
func (w Window) WithTotal(total int) Window {
	if total < 0 {
		total = 0
	}
	w.TotalCount = total
	return w
}

// FirstItem is the 1-based index of the first row on the current page
func (w Window) FirstItem() int {
	if w.TotalCount == 0 {
		return 0
	}
	first := (w.CurrentPage-1)*w.PageSize + 1
	if first > w.TotalCount {
		return w.TotalCount
	}
	return first
}

// LastItem is the 1-based index of the last row on the current page
func (w Window) LastItem() int {
	last := w.CurrentPage * w.PageSize
	if last > w.TotalCount {
		last = w.TotalCount
	}
	return last
}

// Caption renders the "Showing x to y of z requests" line
func (w Window) Caption() string {
	return fmt.Sprintf("Showing %d to %d of %d requests", w.FirstItem(), w.LastItem(), w.TotalCount)
}

// Subscriber is an MSISDN split into country code and national number
type Subscriber struct {
	CC string `json:"CC"`
	SN string `json:"SN"`
}

// ErrCountryCodeMismatch is returned when an MSISDN does not start with
// the operator's country code
var ErrCountryCodeMismatch = errors.New("msisdn does not start with country code")

// SplitMSISDN strips the country code prefix from msisdn
func SplitMSISDN(msisdn, countryCode string) (Subscriber, error) {
	msisdn = strings.TrimPrefix(strings.TrimSpace(msisdn), "+")
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if countryCode == "" || !strings.HasPrefix(msisdn, countryCode) || len(msisdn) == len(countryCode) {
		return Subscriber{}, fmt.Errorf("%w: msisdn=%s cc=%s", ErrCountryCodeMismatch, msisdn, countryCode)
	}
	return Subscriber{CC: countryCode, SN: msisdn[len(countryCode):]}, nil
}

// MSISDN joins the subscriber back into a full phone number
func (s Subscriber) MSISDN() string {
	return s.CC + s.SN
}

// AttachIMSI is the body of the single upload call
type AttachIMSI struct {
	Operator   string     `json:"mno"`
	Subscriber Subscriber `json:"MSISDN"`
	IMSI       string     `json:"IMSI"`
}

// AttachResult is the single upload response
type AttachResult struct {
	Message string `json:"msg"`
}
