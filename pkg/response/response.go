package response

import "github.com/tierbill/tierbill/pkg/apperr"

type APIResponseCode int

const (
	APIResponseCodeOK         APIResponseCode = 0
	APIResponseCodeBadRequest APIResponseCode = 40000
	APIResponseCodeNotFound   APIResponseCode = 40400
	APIResponseCodeGateway    APIResponseCode = 50200
	APIResponseCodeError      APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:         "ok",
	APIResponseCodeBadRequest: "bad request",
	APIResponseCodeNotFound:   "not found",
	APIResponseCodeGateway:    "gateway error",
	APIResponseCodeError:      "unexpected error",
}

// APIResponse is the generic response envelope used by HTTP APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// FromError maps an apperr kind to the envelope, carrying only the
// user-safe message as data.
func FromError(err error) *APIResponse[any] {
	var code APIResponseCode
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindBusinessRule:
		code = APIResponseCodeBadRequest
	case apperr.KindNotFound:
		code = APIResponseCodeNotFound
	case apperr.KindGateway:
		code = APIResponseCodeGateway
	default:
		code = APIResponseCodeError
	}
	return &APIResponse[any]{Code: code, Message: codeToMsg[code], Data: apperr.UserMessage(err)}
}
