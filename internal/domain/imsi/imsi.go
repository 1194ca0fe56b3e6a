package imsi

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Length is the number of digits in an IMSI
const Length = 15

// Submission is the double-entry form used to attach an IMSI
type Submission struct {
	IMSI        string `json:"imsi" validate:"required,digits,len=15"`
	ConfirmIMSI string `json:"confirmImsi" validate:"required,eqfield=IMSI"`
}

// Clear empties both fields
func (s *Submission) Clear() {
	s.IMSI = ""
	s.ConfirmIMSI = ""
}

// ValidationErrors maps a form field (json name) to its message
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid imsi submission: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, empty when it passed
func (v ValidationErrors) Field(name string) string {
	return v[name]
}

// Messages shown to the operator, keyed by validation tag
const (
	MsgRequired = "This field is required"
	MsgDigits   = "IMSI must be digits only [0-9]"
	MsgLength   = "IMSI length should be 15 digits"
	MsgMismatch = "IMSIs does not match"
)

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

var (
	once     sync.Once
	validate *validator.Validate
	trans    ut.Translator
	initErr  error
)

func engine() (*validator.Validate, ut.Translator, error) {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// report json names so messages line up with the form fields
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		if err := v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
			return digitsRe.MatchString(fl.Field().String())
		}); err != nil {
			initErr = err
			return
		}

		enT := en.New()
		uni := ut.New(enT, enT)
		t, _ := uni.GetTranslator("en")
		if err := en_translations.RegisterDefaultTranslations(v, t); err != nil {
			initErr = err
			return
		}

		for tag, msg := range map[string]string{
			"required": MsgRequired,
			"digits":   MsgDigits,
			"len":      MsgLength,
			"eqfield":  MsgMismatch,
		} {
			if err := registerFixed(v, t, tag, msg); err != nil {
				initErr = err
				return
			}
		}

		validate, trans = v, t
	})
	return validate, trans, initErr
}

func registerFixed(v *validator.Validate, t ut.Translator, tag, msg string) error {
	return v.RegisterTranslation(tag, t,
		func(t ut.Translator) error {
			return t.Add(tag, msg, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag)
			if err != nil {
				return msg
			}
			return s
		},
	)
}

// Validate checks a submission. It returns ValidationErrors when one or
// more fields fail, with at most one message per field.
func Validate(s Submission) error {
	v, t, err := engine()
	if err != nil {
		return err
	}

	err = v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := ValidationErrors{}
	for ns, msg := range verrs.Translate(t) {
		// drop the "Submission." prefix
		out[ns[strings.Index(ns, ".")+1:]] = msg
	}
	return out
}
