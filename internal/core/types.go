// Package core provides the business logic for the personas register.
// This package has no HTTP dependencies and can be used by any frontend.
package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TableName is the table holding all personas records.
const TableName = "personas"

// recordColumns lists the selected columns in scan order.
// fecha is cast so that both timestamp and timestamptz schemas scan the same.
var recordColumns = []string{
	`"id"`, `"nombre"`, `"apellido"`, `"edad"`, `"ciudad"`,
	`"ocupacion"`, `"relato"`, `"fecha"::timestamptz`,
}

// Record is one stored personas entry. Optional columns use pgtype so that
// NULL survives the round trip and encodes as JSON null.
type Record struct {
	ID        int64              `json:"id"`
	Nombre    string             `json:"nombre"`
	Apellido  string             `json:"apellido"`
	Edad      pgtype.Int4        `json:"edad"`
	Ciudad    pgtype.Text        `json:"ciudad"`
	Ocupacion pgtype.Text        `json:"ocupacion"`
	Relato    pgtype.Text        `json:"relato"`
	Fecha     pgtype.Timestamptz `json:"fecha"`
}

// scanTargets returns pointers in recordColumns order.
func (r *Record) scanTargets() []any {
	return []any{
		&r.ID, &r.Nombre, &r.Apellido, &r.Edad,
		&r.Ciudad, &r.Ocupacion, &r.Relato, &r.Fecha,
	}
}

// NewRecord carries the client-supplied fields of a record to be created.
// id and fecha are always assigned by the store.
type NewRecord struct {
	Nombre    string  `json:"nombre"`
	Apellido  string  `json:"apellido"`
	Edad      *int32  `json:"edad,omitempty"`
	Ciudad    *string `json:"ciudad,omitempty"`
	Ocupacion *string `json:"ocupacion,omitempty"`
	Relato    *string `json:"relato,omitempty"`
}

// Validate performs presence checks on the required fields.
func (n NewRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(n.Nombre) == "" {
		missing = append(missing, "nombre")
	}
	if strings.TrimSpace(n.Apellido) == "" {
		missing = append(missing, "apellido")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ValidationError reports required fields that were empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required field missing: " + strings.Join(e.Fields, ", ")
}
