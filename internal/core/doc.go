// Package core provides the business logic for the personas register.
//
// This package holds all domain logic independent of the HTTP layer. It can
// be used by web handlers, tools, or tests without modification.
//
// # Architecture
//
// The package is organized around the search-and-export pipeline:
//
//   - Filter builder: [SearchCriteria] is folded by a [WhereBuilder] into a
//     parameterized WHERE clause plus its ordered bind values.
//   - Query executor: every statement runs through a [DBTX], which is
//     satisfied by *pgxpool.Pool and pgx.Tx. The service never reaches for
//     a global connection.
//   - Projector: [Projector.Project] turns a [Record] into a labelled
//     export [Row] with null-to-empty defaulting and locale date formatting.
//   - Encoder: [EncodeWorkbook] writes projected rows into a single-sheet
//     xlsx document held entirely in memory. An [ExportLimiter] caps how
//     many of those documents exist at once.
//
// # Search
//
// Both criteria are optional. A name fragment matches nombre OR apellido
// with one shared placeholder; a city fragment takes the next position:
//
//	wb := NewWhereBuilder()
//	wb.AddContains(criteria.Name, "nombre", "apellido")
//	wb.AddContains(criteria.City, "ciudad")
//	where, args := wb.Build()
//	// where: ` WHERE ("nombre" ILIKE $1 OR "apellido" ILIKE $1) AND ("ciudad" ILIKE $2)`
//
// Fragments are bound verbatim inside %...%, so LIKE wildcards typed by the
// user keep their LIKE meaning.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB006: Database errors (constraints, connections, timeouts)
//   - VAL001-VAL003: Validation errors (required fields, bad ids)
//   - EXP001-EXP003: Export errors (encoding, workbook, busy)
//   - REQ001-REQ002: Request errors (cancelled, deadline)
package core
