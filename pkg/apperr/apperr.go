// Package apperr carries the error taxonomy shared by all billing services.
// Kinds decide both the HTTP status and whether the original cause may be
// shown to the caller; gateway and database causes stay in the logs only.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: malformed or out-of-policy input, user-fixable.
	KindValidation
	// KindNotFound: missing or inactive resource.
	KindNotFound
	// KindBusinessRule: input is well-formed but violates a billing rule.
	KindBusinessRule
	// KindGateway: the remote payment provider failed or was unreachable.
	KindGateway
	// KindDatabase: persistence layer failure.
	KindDatabase
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind via the exported sentinel-style helpers below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func Validation(msg string) error            { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error              { return &Error{Kind: KindNotFound, Msg: msg} }
func BusinessRule(msg string) error          { return &Error{Kind: KindBusinessRule, Msg: msg} }
func Gateway(msg string, err error) error    { return &Error{Kind: KindGateway, Msg: msg, Err: err} }
func Database(msg string, err error) error   { return &Error{Kind: KindDatabase, Msg: msg, Err: err} }
func Wrap(k Kind, msg string, e error) error { return &Error{Kind: k, Msg: msg, Err: e} }

// KindOf extracts the kind from an error chain; unwrapped errors are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }

// HTTPStatus maps a kind to the status code the HTTP layer responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns what may be surfaced to the caller. Validation and
// business-rule messages pass through; infrastructure causes are masked.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "internal error"
	}
	switch e.Kind {
	case KindValidation, KindBusinessRule, KindNotFound:
		return e.Msg
	case KindGateway:
		return "payment provider is temporarily unavailable"
	default:
		return "internal error"
	}
}
