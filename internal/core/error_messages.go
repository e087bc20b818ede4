// Package core provides the business logic for the personas register.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Patterns: "duplicate key", "violates unique"
//
//	DB002 - Constraint: A value violates a table constraint
//	        Patterns: "violates not-null", "violates check"
//
//	DB003 - Missing table: The personas table is missing
//	        Patterns: `relation "personas" does not exist`, "sqlstate 42p01"
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Required field: nombre or apellido is empty
//	         Patterns: "required field"
//
//	VAL002 - Invalid id: The record id is not a number
//	         Patterns: "invalid id"
//
//	VAL003 - Invalid body: The request body is not valid JSON
//	         Patterns: "invalid request body"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Encoding: A record could not be written to the spreadsheet
//	         Patterns: "encoding error"
//
//	EXP002 - Workbook: The spreadsheet could not be built
//	         Patterns: "workbook:"
//
//	EXP003 - Busy: Every export slot is in use
//	         Patterns: "too many concurrent exports"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
package core

import (
	"fmt"
	"strings"
)

// UserMessage is an error translated for display to a client.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is checked in order; the first matching pattern wins, so
// more specific patterns come first.
var errorPatterns = []errorPattern{
	// Request lifecycle errors are checked first: they wrap other messages.
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
			Action:  "Please try again later",
			Code:    "REQ002",
		},
	},

	// Database errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Reload the list and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Reload the list and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates not-null",
		msg: UserMessage{
			Message: "A required value is missing",
			Action:  "Fill in nombre and apellido",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates check",
		msg: UserMessage{
			Message: "A value is out of the allowed range",
			Action:  "Review the submitted values",
			Code:    "DB002",
		},
	},
	{
		pattern: `relation "personas" does not exist`,
		msg:     missingTable,
	},
	{
		pattern: "sqlstate 42p01",
		msg:     missingTable,
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	// Validation errors
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Fill in nombre and apellido",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid id",
		msg: UserMessage{
			Message: "Invalid record id",
			Action:  "Use the numeric id shown in the list",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body is not valid JSON",
			Action:  "Send a JSON object with the record fields",
			Code:    "VAL003",
		},
	},

	// Export errors
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "A record could not be written to the spreadsheet",
			Action:  "Please try again or contact support",
			Code:    "EXP001",
		},
	},
	{
		pattern: "workbook:",
		msg: UserMessage{
			Message: "The spreadsheet could not be built",
			Action:  "Please try again or contact support",
			Code:    "EXP002",
		},
	},

	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "The export service is busy",
			Action:  "Please try the download again in a few seconds",
			Code:    "EXP003",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var missingTable = UserMessage{
	Message: "The register table is not available",
	Action:  "Restart the service so the table is created",
	Code:    "DB003",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError translates a technical error into a UserMessage.
// A nil error yields the zero UserMessage.
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

// FormatUserError renders err as a single user-facing sentence.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
