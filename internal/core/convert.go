package core

// convert.go maps between API values and the nullable pgtype columns of a
// personas record.
//
// Inbound, a nil pointer means the client left the field out and the column
// is stored as NULL. Outbound, NULL renders as an empty export cell.

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgText converts an optional string to pgtype.Text.
// Non-nil values are stored verbatim, including the empty string.
func ToPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// ToPgInt4 converts an optional integer to pgtype.Int4.
func ToPgInt4(i *int32) pgtype.Int4 {
	if i == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: *i, Valid: true}
}

// TextOrEmpty returns the string value, or "" for NULL.
func TextOrEmpty(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// Int4OrEmpty returns the value widened to int64, or "" for NULL, so that
// spreadsheet cells are either numbers or blank text.
func Int4OrEmpty(i pgtype.Int4) any {
	if !i.Valid {
		return ""
	}
	return int64(i.Int32)
}
