package tripletex

import (
	"errors"
	"fmt"
)

// Error codes produced by the client layer
const (
	CodeTokensMissing    = "tokens_missing"
	CodeSessionTransport = "session_transport"
	CodeSessionHTTP      = "session_http"
	CodeSessionMissing   = "session_missing"
	CodeTransport        = "transport"
	CodeJSON             = "json"
	CodeHTTP             = "http"
	CodeEncode           = "encode"
	CodeUnknown          = "unknown"
	CodeIDInvalid        = "id_invalid"
	CodePayloadInvalid   = "payload_invalid"
	CodeCreateMissingID  = "create_missing_id"
	CodeCustomerMissing  = "customer_missing"
	CodePriceMissing     = "price_missing"
	CodeStockMissing     = "stock_missing"
	CodeSKUNotFound      = "sku_not_found"
)

// Kind groups error codes by how callers should react to them
type Kind string

const (
	KindConfig     Kind = "config"
	KindTransport  Kind = "transport"
	KindHTTP       Kind = "http"
	KindParse      Kind = "parse"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
)

var codeKinds = map[string]Kind{
	CodeTokensMissing:    KindConfig,
	CodeSessionTransport: KindTransport,
	CodeTransport:        KindTransport,
	CodeSessionHTTP:      KindHTTP,
	CodeHTTP:             KindHTTP,
	CodeUnknown:          KindHTTP,
	CodeJSON:             KindParse,
	CodeSessionMissing:   KindParse,
	CodeCreateMissingID:  KindParse,
	CodeCustomerMissing:  KindParse,
	CodePriceMissing:     KindParse,
	CodeStockMissing:     KindParse,
	CodeIDInvalid:        KindValidation,
	CodePayloadInvalid:   KindValidation,
	CodeEncode:           KindValidation,
	CodeSKUNotFound:      KindNotFound,
}

// Error represents any failure of the Tripletex client layer
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	RequestID  string
	Details    map[string]any
}

func newError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: map[string]any{},
	}
}

func (err *Error) Error() string {
	if err.HTTPStatus > 0 {
		return fmt.Sprintf("tripletex: %s (status %d): %s", err.Code, err.HTTPStatus, err.Message)
	}
	return fmt.Sprintf("tripletex: %s: %s", err.Code, err.Message)
}

// Kind returns the error kind of the error code
func (err *Error) Kind() Kind {
	if kind, ok := codeKinds[err.Code]; ok {
		return kind
	}
	return KindHTTP
}

// Retryable reports whether retrying the whole operation later may succeed.
// The request engine has already exhausted its own retries when this error is returned.
func (err *Error) Retryable() bool {
	switch err.Kind() {
	case KindTransport:
		return true
	case KindHTTP:
		return err.HTTPStatus == 0 || err.HTTPStatus == 429 || err.HTTPStatus >= 500
	default:
		return false
	}
}

// IsCode reports whether err is a client layer error with the given code
func IsCode(err error, code string) bool {
	var ttxErr *Error
	return errors.As(err, &ttxErr) && ttxErr.Code == code
}

// AsError extracts the client layer error out of err
func AsError(err error) (*Error, bool) {
	var ttxErr *Error
	ok := errors.As(err, &ttxErr)
	return ttxErr, ok
}
