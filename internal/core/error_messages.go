// Package core provides the reconciliation engine's business logic.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code to
// support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Detection Errors (DET001-DET099)
//
// Errors from locating the tabular region in an uploaded grid:
//
//	DET001 - No table found: No tabular region was detected
//	         Action: Check that the sheet contains a header row above the data
//	         Patterns: "no tabular region"
//
//	DET002 - Insufficient data: Too few data rows under the detected header
//	         Action: Upload a sheet with at least two data rows
//	         Patterns: "not enough data rows"
//
//	DET003 - System busy: Too many detections in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent detections"
//
// # Matching Errors (MAT001-MAT099)
//
// Errors from the column matching tier:
//
//	MAT001 - Rules unavailable: Historical mapping rules could not be read
//	         Action: Matching continued without them; confirm columns manually
//	         Patterns: "rule store unavailable"
//
// # Resolution Errors (RES001-RES099)
//
// Errors from human resolution actions on a session:
//
//	RES001 - Wrong state: The session does not allow this action right now
//	         Action: Reload the session to see its current state
//	         Patterns: "while session is"
//
//	RES002 - Mapping conflict: Another column already maps to this field
//	         Action: Reject or skip the other column first
//	         Patterns: "already mapped from column"
//
//	RES003 - Incomplete mapping: Required fields have no matched column
//	         Action: Confirm a column for every required field before finalizing
//	         Patterns: "without a matched column"
//
//	RES004 - Unknown column: The column index is not part of this session
//	         Action: Reload the session and retry
//	         Patterns: "column index not present"
//
//	RES005 - Unknown field: The target field is not part of the schema
//	         Action: Pick a field from the schema's field list
//	         Patterns: "target field not in schema"
//
// # Rule Errors (RUL001-RUL099)
//
// Errors from mapping-rule management:
//
//	RUL001 - Rule not found: The mapping rule does not exist
//	         Action: Refresh the rule list; it may have been deleted
//	         Patterns: "mapping rule not found"
//
// # Session Errors (SES001-SES099)
//
// Errors from session lookup and lifecycle:
//
//	SES001 - Session not found: The session ID is unknown
//	         Action: The session may have been purged. Start a new one
//	         Patterns: "session not found"
//
//	SES002 - Invalid transition: The session cannot move to that state
//	         Action: Reload the session to see its current state
//	         Patterns: "invalid session transition"
//
//	SES003 - Unknown schema: The schema key is not registered
//	         Action: List /api/schemas for the available schema keys
//	         Patterns: "schema not registered"
//
// # Database Errors (DB001-DB099)
//
// Errors related to database operations and constraints:
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Action: Retry the operation
//	        Patterns: "duplicate key"
//
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Action: Review the conflicting record
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB004 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB005 - Deadlock: Database was busy with conflicting operations
//	        Action: Please try again
//	        Patterns: "deadlock"
//
//	DB006 - Timeout: Operation timed out
//	        Action: Try a smaller file or try again later
//	        Patterns: "timeout"
//
// # File Errors (FILE001-FILE099)
//
// Errors related to file handling and parsing:
//
//	FILE001 - File too large: File exceeds the configured size limit
//	          Action: Split the file into smaller chunks
//	          Patterns: "file too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure the file is comma-separated
//	          Patterns: "invalid csv"
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save the file as UTF-8
//	          Patterns: "encoding error"
//
//	FILE004 - No file: No file was provided
//	          Action: Attach a .csv or .xlsx file, or post a JSON grid
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Upload a file with data rows
//	          Patterns: "empty file"
//
//	FILE006 - Unsupported type: The file extension is not supported
//	          Action: Upload .csv or .xlsx
//	          Patterns: "unsupported file type"
//
//	FILE007 - Invalid workbook: File is not a valid Excel workbook
//	          Action: Re-export the file as .xlsx
//	          Patterns: "invalid xlsx"
//
// # Request Errors (REQ001-REQ099)
//
// Errors from the request lifecycle:
//
//	REQ001 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout: Request timed out
//	         Action: Try a smaller file or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
// Errors related to request throttling:
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones ("context deadline exceeded" before "timeout").
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Patterns are matched using strings.Contains, so partial matches
// work. The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Detection Errors (DET001-DET003)
	// These errors end a session before any columns exist to resolve.
	// =========================================================================
	{
		pattern: "no tabular region",
		msg: UserMessage{
			Message: "No table was found in the uploaded sheet",
			Action:  "Check that the sheet contains a header row above the data",
			Code:    "DET001",
		},
	},
	{
		pattern: "not enough data rows",
		msg: UserMessage{
			Message: "The detected table has too few data rows",
			Action:  "Upload a sheet with at least two data rows under the header",
			Code:    "DET002",
		},
	},
	{
		pattern: "too many concurrent detections",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "DET003",
		},
	},

	// =========================================================================
	// Matching Errors (MAT001)
	// Matching failures degrade rather than abort; this code reaches users
	// only through the degraded-session warning.
	// =========================================================================
	{
		pattern: "rule store unavailable",
		msg: UserMessage{
			Message: "Saved mapping rules could not be read",
			Action:  "Matching continued without them; review columns manually",
			Code:    "MAT001",
		},
	},

	// =========================================================================
	// Resolution Errors (RES001-RES005)
	// These errors reject a single resolution action; the session survives.
	// =========================================================================
	{
		pattern: "while session is",
		msg: UserMessage{
			Message: "The session does not allow this action in its current state",
			Action:  "Reload the session to see its current state",
			Code:    "RES001",
		},
	},
	{
		pattern: "already mapped from column",
		msg: UserMessage{
			Message: "Another column already maps to this field",
			Action:  "Reject or skip the other column first",
			Code:    "RES002",
		},
	},
	{
		pattern: "without a matched column",
		msg: UserMessage{
			Message: "Required fields are still unmapped",
			Action:  "Confirm a column for every required field before finalizing",
			Code:    "RES003",
		},
	},
	{
		pattern: "column index not present",
		msg: UserMessage{
			Message: "That column is not part of this session",
			Action:  "Reload the session and retry",
			Code:    "RES004",
		},
	},
	{
		pattern: "target field not in schema",
		msg: UserMessage{
			Message: "That field is not part of the schema",
			Action:  "Pick a field from the schema's field list",
			Code:    "RES005",
		},
	},

	// =========================================================================
	// Rule Errors (RUL001)
	// =========================================================================
	{
		pattern: "mapping rule not found",
		msg: UserMessage{
			Message: "The mapping rule does not exist",
			Action:  "Refresh the rule list; it may have been deleted",
			Code:    "RUL001",
		},
	},

	// =========================================================================
	// Session Errors (SES001-SES003)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "The session was not found",
			Action:  "The session may have been purged. Start a new one",
			Code:    "SES001",
		},
	},
	{
		pattern: "invalid session transition",
		msg: UserMessage{
			Message: "The session cannot move to that state",
			Action:  "Reload the session to see its current state",
			Code:    "SES002",
		},
	},
	{
		pattern: "schema not registered",
		msg: UserMessage{
			Message: "Unknown schema key",
			Action:  "List /api/schemas for the available schema keys",
			Code:    "SES003",
		},
	},

	// =========================================================================
	// Database Constraint Errors (DB001-DB002)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Retry the operation",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Review the conflicting record",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review the conflicting record",
			Code:    "DB002",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB003-DB006)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE007)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Attach a .csv or .xlsx file, or post a JSON grid",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "The file type is not supported",
			Action:  "Upload .csv or .xlsx",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "File is not a valid Excel workbook",
			Action:  "Re-export the file as .xlsx",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ002)
	// "context deadline exceeded" must precede the generic "timeout" below.
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := core.ErrNoTableFound
//	msg := MapError(err)
//	// msg.Code == "DET001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "No table was found in the uploaded sheet (Code: DET001).
// Check that the sheet contains a header row above the data"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be
// shown to users. Returns true if the error matches a specific pattern
// (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean
// message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. The returned UserError preserves the original
// technical error for logging via Unwrap(), while providing a clean user
// message via Error().
//
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
