package core

// error_messages.go maps technical errors to user-facing messages with a
// code support staff can look up.
//
//	DOC001 unsupported document format     DOC002 file too large
//	DOC003 no file provided                DOC004 document could not be read
//	KEY001 encryption key missing          KEY002 encryption key rejected
//	IMP001 registry busy                   IMP002 import run not found
//	IMP003 request cancelled               IMP004 request timed out
//	VAL001 invalid import date              VAL002 invalid request option
//	DB001  duplicate case                  DB002  database unreachable
//	DB003  connection interrupted          DB004  deadlock
//	RATE001 rate limited
//	ERR000 anything else; check the logs for the technical error
//
// Sentinel errors are matched with errors.Is first. Errors from drivers that
// carry no sentinel fall back to case-insensitive substring patterns; the
// first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/docket/internal/document"
	"github.com/JonMunkholm/docket/internal/sealer"
)

var (
	// ErrMissingKey is returned when an import is started without a key.
	ErrMissingKey = errors.New("encryption key is required")
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoFile is returned when a request carries no document.
	ErrNoFile = errors.New("no file provided")
	// ErrInvalidImportDate is returned for unparseable import dates.
	ErrInvalidImportDate = errors.New("invalid import date")
	// ErrInvalidParameter is returned for malformed request options.
	ErrInvalidParameter = errors.New("invalid request parameter")
	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{document.ErrUnsupportedFormat, UserMessage{"The document format is not supported", "Export the case list as HTML or RTF", "DOC001"}},
	{ErrFileTooLarge, UserMessage{"The document exceeds the maximum upload size", "Export a shorter period and import it in parts", "DOC002"}},
	{ErrNoFile, UserMessage{"No document was provided", "Select an exported case list to import", "DOC003"}},
	{ErrMissingKey, UserMessage{"An encryption key is required", "Provide the registry key with the import", "KEY001"}},
	{sealer.ErrInvalidKey, UserMessage{"The encryption key was rejected", "Check that you are using the key of this registry", "KEY002"}},
	{ErrImportBusy, UserMessage{"Another import is running for this registry", "Wait for it to finish and try again", "IMP001"}},
	{ErrImportNotFound, UserMessage{"Import run not found", "Check the import id or list recent imports", "IMP002"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "IMP003"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller document or try again later", "IMP004"}},
	{ErrInvalidImportDate, UserMessage{"The import date is invalid", "Use the format YYYY-MM-DD", "VAL001"}},
	{ErrInvalidParameter, UserMessage{"A request option has an invalid value", "Check the request parameters", "VAL002"}},
	{ErrCaseExists, UserMessage{"A case with this reference already exists", "Run the import again; existing cases are updated instead", "DB001"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A case with this reference already exists", "Run the import again; existing cases are updated instead", "DB001"}},
	{"unique constraint", UserMessage{"A case with this reference already exists", "Run the import again; existing cases are updated instead", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB004"}},
	{"database is locked", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB004"}},
	{"read document", UserMessage{"The document could not be read", "Check that the file is a complete, unmodified export", "DOC004"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
