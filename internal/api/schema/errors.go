package schema

var (
	ErrInternal = &Error{
		Type:    "generic.internal",
		Message: "An internal error occurred.",
	}
	ErrNotFound = &Error{
		Type:    "generic.notFound",
		Message: "Resource not found.",
	}
	ErrMethodNotAllowed = &Error{
		Type:    "generic.methodNotAllowed",
		Message: "Method not allowed.",
	}
	ErrUnauthorized = &Error{
		Type:    "access.unauthorized",
		Message: "Unauthorized",
	}
)

// ErrorResponse is the envelope of every 4xx/5xx answer of the webhook and operations APIs
type ErrorResponse struct {
	Status int      `json:"status"`
	Errors []*Error `json:"errors"`
}

// Error is a single entry of an ErrorResponse.
// Details is always serialized as an object, never null.
type Error struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// NewError creates an error entry; nil details become an empty object
func NewError(typ, message string, details map[string]any) *Error {
	if details == nil {
		details = map[string]any{}
	}
	return &Error{
		Type:    typ,
		Message: message,
		Details: details,
	}
}

// Error implements the error interface so entries can be logged directly
func (err *Error) Error() string {
	return err.Type + ": " + err.Message
}

// withDetails returns a shallow copy carrying a non-nil details map
func (err *Error) withDetails() *Error {
	if err.Details != nil {
		return err
	}
	return NewError(err.Type, err.Message, nil)
}
