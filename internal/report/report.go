// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report classifies operation failures and renders them as the
// single-line status every officebridge operation prints: "ok" on success,
// a short description otherwise.
package report

import (
	"errors"
	"fmt"

	"github.com/pdiddy/officebridge/internal/folder"
)

// OK is the status line for a successful operation.
const OK = "ok"

// Kind classifies a failure.
type Kind string

const (
	InputNotFound       Kind = "input_not_found"
	OutputAlreadyExists Kind = "output_already_exists"
	OpenFailure         Kind = "collaborator_open_failure"
	SaveFailure         Kind = "collaborator_save_failure"
	StartupFailure      Kind = "collaborator_startup_failure"
	NotFound            Kind = "not_found"
	Unknown             Kind = "unknown"
)

// Error is a classified failure. Message is what the user sees; Err is the
// underlying cause, kept for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Constructors for each failure kind. The messages mirror the wording users
// of the conversion scripts already match on.

func MissingInput(path string) *Error {
	return &Error{Kind: InputNotFound, Message: "File does not exist: " + path}
}

func OutputExists(path string) *Error {
	return &Error{Kind: OutputAlreadyExists, Message: "File does already exist: " + path}
}

func OpenFailed(path string, cause error) *Error {
	return &Error{Kind: OpenFailure, Message: "Failed to open file: " + path, Err: cause}
}

func SaveFailed(path string, cause error) *Error {
	return &Error{Kind: SaveFailure, Message: "Failed to save file: " + path, Err: cause}
}

func StartupFailed(app string, cause error) *Error {
	return &Error{Kind: StartupFailure, Message: fmt.Sprintf("Failed to create %s Application", app), Err: cause}
}

func MailboxNotFound(name string) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf("Mailbox: %s not found!", name)}
}

// KindOf returns the kind of err. Folder lookups that failed are NotFound;
// anything unclassified is Unknown.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	if errors.Is(err, folder.ErrNotFound) {
		return NotFound
	}
	return Unknown
}

// Status converts the outcome of an operation into its status line.
func Status(err error) string {
	if err == nil {
		return OK
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
