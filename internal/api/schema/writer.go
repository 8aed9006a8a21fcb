package schema

import (
	"encoding/json"
	"net/http"
)

// internalErrorBody is sent if a response value cannot be encoded
var internalErrorBody, _ = json.Marshal(&ErrorResponse{
	Status: http.StatusInternalServerError,
	Errors: []*Error{ErrInternal.withDetails()},
})

// Writer writes the JSON answers of the webhook and operations APIs
type Writer struct {
	// InternalErrorHook is called with every error answered as 500; may be nil
	InternalErrorHook func(err error)
}

// WriteJSONCode writes the JSON representation of value using the given HTTP status code.
// Values that cannot be encoded are answered with the internal error envelope.
func (writer *Writer) WriteJSONCode(rw http.ResponseWriter, code int, value any) {
	val, err := json.Marshal(value)
	if err != nil {
		writer.reportInternal(err)
		code, val = http.StatusInternalServerError, internalErrorBody
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_, _ = rw.Write(val)
}

// WriteJSON writes the JSON representation of value with 200 OK
func (writer *Writer) WriteJSON(rw http.ResponseWriter, value any) {
	writer.WriteJSONCode(rw, http.StatusOK, value)
}

// WriteErrors sends an error envelope.
// Shared error values are never mutated.
func (writer *Writer) WriteErrors(rw http.ResponseWriter, code int, errors ...*Error) {
	response := &ErrorResponse{
		Status: code,
		Errors: make([]*Error, 0, len(errors)),
	}
	for _, err := range errors {
		if err != nil {
			response.Errors = append(response.Errors, err.withDetails())
		}
	}
	writer.WriteJSONCode(rw, code, response)
}

// WriteInternalError reports an unexpected error and answers it as 500 without leaking its message
func (writer *Writer) WriteInternalError(rw http.ResponseWriter, err error) {
	writer.reportInternal(err)
	writer.WriteErrors(rw, http.StatusInternalServerError, ErrInternal)
}

func (writer *Writer) reportInternal(err error) {
	if writer.InternalErrorHook != nil {
		writer.InternalErrorHook(err)
	}
}
