package tools

import "errors"

// Registration errors.
var (
	ErrToolNameEmpty         = errors.New("tool name cannot be empty")
	ErrToolExecuteNil        = errors.New("tool execute function cannot be nil")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)

// Call errors. Agents report these back to the model as tool results.
var (
	// ErrToolNotFound is returned when a tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolNotPermitted is returned when a role calls a tool outside its grant.
	ErrToolNotPermitted = errors.New("tool not available")

	ErrMissingRequiredArg = errors.New("missing required argument")

	// ErrInvalidArgType is returned when a string property holds another type.
	ErrInvalidArgType = errors.New("invalid argument type")

	// ErrBlankArgument is returned when a required string is only whitespace.
	ErrBlankArgument = errors.New("argument is blank")
)
