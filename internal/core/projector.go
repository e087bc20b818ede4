package core

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/language"
)

// DefaultLocale is the locale used for export dates.
const DefaultLocale = "es-EC"

// Column is one labelled export column with its width hint in characters.
type Column struct {
	Label string
	Width float64
}

// Columns is the fixed export column set, in output order.
var Columns = []Column{
	{Label: "ID", Width: 8},
	{Label: "Nombre", Width: 20},
	{Label: "Apellido", Width: 20},
	{Label: "Edad", Width: 8},
	{Label: "Ciudad", Width: 18},
	{Label: "Ocupación", Width: 22},
	{Label: "Relato", Width: 60},
	{Label: "Fecha", Width: 14},
}

// ColumnLabels returns the labels of Columns in order.
func ColumnLabels() []string {
	labels := make([]string, len(Columns))
	for i, c := range Columns {
		labels[i] = c.Label
	}
	return labels
}

// Row is a projected record. Values are aligned with Columns; each value is
// an int64 or a string, never nil.
type Row []any

// dateFormats maps supported locales to short calendar date layouts.
var dateFormats = []struct {
	tag    language.Tag
	layout string
}{
	{language.MustParse("es-EC"), "2/1/2006"}, // first entry is the fallback
	{language.MustParse("es-ES"), "2/1/2006"},
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
}

var dateMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(dateFormats))
	for i, f := range dateFormats {
		tags[i] = f.tag
	}
	return language.NewMatcher(tags)
}()

// Projector maps records to export rows. It holds no mutable state and is
// safe for concurrent use.
type Projector struct {
	layout string
	loc    *time.Location
}

// NewProjector returns a projector formatting dates for locale in loc.
// Locales without a known layout fall back to es-EC. A nil loc means UTC.
func NewProjector(locale string, loc *time.Location) (*Projector, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	_, idx, confidence := dateMatcher.Match(tag)
	if confidence == language.No {
		idx = 0
	}

	return &Projector{layout: dateFormats[idx].layout, loc: loc}, nil
}

// Project converts one record. Null optional fields become "".
func (p *Projector) Project(r Record) Row {
	return Row{
		r.ID,
		r.Nombre,
		r.Apellido,
		Int4OrEmpty(r.Edad),
		TextOrEmpty(r.Ciudad),
		TextOrEmpty(r.Ocupacion),
		TextOrEmpty(r.Relato),
		p.FormatDate(r.Fecha),
	}
}

// ProjectAll converts records preserving their order.
func (p *Projector) ProjectAll(records []Record) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = p.Project(r)
	}
	return rows
}

// FormatDate renders a timestamp as a calendar date without time. Null and
// infinite timestamps render as "".
func (p *Projector) FormatDate(ts pgtype.Timestamptz) string {
	if !ts.Valid || ts.InfinityModifier != pgtype.Finite {
		return ""
	}
	return ts.Time.In(p.loc).Format(p.layout)
}
