package requests

import (
	"errors"

	"imsidesk/internal/domain/imsi"
)

// DialogState is the lifecycle of the add-IMSI dialog
type DialogState int

const (
	DialogClosed DialogState = iota
	DialogOpen
	DialogSubmitting
)

func (s DialogState) String() string {
	switch s {
	case DialogOpen:
		return "open"
	case DialogSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

var (
	// ErrDialogClosed is returned when submitting without a selected row
	ErrDialogClosed = errors.New("add imsi dialog is not open")
	// ErrDialogBusy is returned while a submission is in flight
	ErrDialogBusy = errors.New("add imsi dialog is submitting")
)

// Dialog is the add-IMSI form bound to one selected phone number
type Dialog struct {
	State  DialogState
	MSISDN string
	Form   imsi.Submission
	Errors imsi.ValidationErrors
}

// Title is the heading shown above the form
func (d Dialog) Title() string {
	return "Add IMSI for " + d.MSISDN
}

// IsOpen reports whether the dialog is visible
func (d Dialog) IsOpen() bool {
	return d.State != DialogClosed
}

func (d *Dialog) open(msisdn string) error {
	if d.State == DialogSubmitting {
		return ErrDialogBusy
	}
	*d = Dialog{State: DialogOpen, MSISDN: msisdn}
	return nil
}

func (d *Dialog) reject(form imsi.Submission, verrs imsi.ValidationErrors) {
	d.Form = form
	d.Errors = verrs
}

// begin moves Open to Submitting and clears the form
func (d *Dialog) begin() (string, error) {
	switch d.State {
	case DialogClosed:
		return "", ErrDialogClosed
	case DialogSubmitting:
		return "", ErrDialogBusy
	}
	d.State = DialogSubmitting
	d.Form.Clear()
	d.Errors = nil
	return d.MSISDN, nil
}

// fail returns to Open after a rejected submission
func (d *Dialog) fail() {
	if d.State == DialogSubmitting {
		d.State = DialogOpen
	}
}

func (d *Dialog) close() {
	*d = Dialog{}
}
