package core

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

// ============================================================================
// Inbound Conversion Tests
// ============================================================================

func TestToPgText(t *testing.T) {
	empty := ""
	spaced := "  Quito "

	tests := []struct {
		name      string
		input     *string
		wantValid bool
		wantValue string
	}{
		{name: "nil is NULL", input: nil, wantValid: false},
		{name: "empty string kept", input: &empty, wantValid: true, wantValue: ""},
		{name: "whitespace kept verbatim", input: &spaced, wantValid: true, wantValue: "  Quito "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToPgText(tt.input)
			if result.Valid != tt.wantValid {
				t.Errorf("ToPgText().Valid = %v, want %v", result.Valid, tt.wantValid)
			}
			if result.String != tt.wantValue {
				t.Errorf("ToPgText().String = %q, want %q", result.String, tt.wantValue)
			}
		})
	}
}

func TestToPgInt4(t *testing.T) {
	zero := int32(0)
	age := int32(67)

	if ToPgInt4(nil).Valid {
		t.Error("ToPgInt4(nil) should be NULL")
	}
	if got := ToPgInt4(&zero); !got.Valid || got.Int32 != 0 {
		t.Errorf("ToPgInt4(0) = %+v, want valid zero", got)
	}
	if got := ToPgInt4(&age); !got.Valid || got.Int32 != 67 {
		t.Errorf("ToPgInt4(67) = %+v", got)
	}
}

// ============================================================================
// Outbound Conversion Tests
// ============================================================================

func TestTextOrEmpty(t *testing.T) {
	if got := TextOrEmpty(pgtype.Text{}); got != "" {
		t.Errorf("NULL = %q, want empty", got)
	}
	if got := TextOrEmpty(pgtype.Text{String: "Cuenca", Valid: true}); got != "Cuenca" {
		t.Errorf("got %q, want Cuenca", got)
	}
}

func TestInt4OrEmpty(t *testing.T) {
	if got := Int4OrEmpty(pgtype.Int4{}); got != "" {
		t.Errorf("NULL = %#v, want empty string", got)
	}
	if got := Int4OrEmpty(pgtype.Int4{Int32: 0, Valid: true}); got != int64(0) {
		t.Errorf("zero = %#v, want int64(0)", got)
	}
}
