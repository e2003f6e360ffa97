package plugin

// Error codes returned to the hosting application.
const (
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeServiceFailure   = "SERVICE_FAILURE"
)

// Error is a boundary error with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidArgument  = &Error{Code: CodeInvalidArgument, Message: "One or more arguments are missing"}
	ErrPermissionDenied = &Error{Code: CodePermissionDenied, Message: "Location permissions are not granted"}
)
