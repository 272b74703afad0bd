package domain

import "errors"

var (
	// ErrTransport indicates the backend was unreachable or failed outright.
	ErrTransport = errors.New("backend unreachable")

	// ErrProtocol indicates a response that does not match the collaborator
	// contract: missing required fields, or a status/round value outside the
	// defined enumerations. It must never be swallowed.
	ErrProtocol = errors.New("protocol violation")
)
