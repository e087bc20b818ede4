package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/registro/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"
)

// ============================================================================
// Fakes
// ============================================================================

type call struct {
	sql  string
	args []any
}

// fakeDB is a DBTX that records statements and replays canned records.
type fakeDB struct {
	calls    []call
	records  []Record
	affected int64
	err      error
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", f.affected)), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{records: f.records, idx: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	f.calls = append(f.calls, call{sql, args})
	if f.err != nil {
		return &fakeRows{err: f.err}
	}
	return &fakeRows{records: f.records, idx: 0}
}

// fakeRows implements pgx.Rows and pgx.Row over a slice of records.
type fakeRows struct {
	records []Record
	idx     int
	err     error
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.records)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.idx < 0 || r.idx >= len(r.records) {
		return pgx.ErrNoRows
	}
	rec := r.records[r.idx]
	vals := []any{rec.ID, rec.Nombre, rec.Apellido, rec.Edad, rec.Ciudad, rec.Ocupacion, rec.Relato, rec.Fecha}
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d targets for %d columns", len(dest), len(vals))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(vals[i]))
	}
	return nil
}

func newTestService(t *testing.T, db DBTX) *Service {
	t.Helper()
	svc, err := NewService(db, config.ExportConfig{Locale: "es-EC", TimeZone: "America/Guayaquil", SheetName: "Registro"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func text(s string) pgtype.Text { return pgtype.Text{String: s, Valid: true} }

// ============================================================================
// Service Tests
// ============================================================================

func TestNewService(t *testing.T) {
	if _, err := NewService(nil, config.ExportConfig{}); err == nil {
		t.Error("expected error for nil database")
	}
	if _, err := NewService(&fakeDB{}, config.ExportConfig{TimeZone: "Nowhere/Special"}); err == nil {
		t.Error("expected error for unknown time zone")
	}

	svc, err := NewService(&fakeDB{}, config.ExportConfig{})
	if err != nil {
		t.Fatalf("NewService with defaults: %v", err)
	}
	if svc.fileName != "registro-nacional.xlsx" {
		t.Errorf("fileName = %q, want default", svc.fileName)
	}
}

func TestService_Search(t *testing.T) {
	db := &fakeDB{records: []Record{{ID: 2, Nombre: "Ana", Apellido: "Pérez"}, {ID: 1, Nombre: "Juan", Apellido: "López"}}}
	svc := newTestService(t, db)

	got, err := svc.Search(context.Background(), NewSearchCriteria("ana", "Quito"))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 {
		t.Errorf("records = %+v", got)
	}

	c := db.calls[0]
	if !strings.Contains(c.sql, `("nombre" ILIKE $1 OR "apellido" ILIKE $1) AND ("ciudad" ILIKE $2)`) {
		t.Errorf("sql = %q", c.sql)
	}
	if len(c.args) != 2 || c.args[0] != "%ana%" || c.args[1] != "%Quito%" {
		t.Errorf("args = %v", c.args)
	}
}

func TestService_SearchEmptyResultIsNonNil(t *testing.T) {
	svc := newTestService(t, &fakeDB{})

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", got)
	}
}

func TestService_SearchError(t *testing.T) {
	svc := newTestService(t, &fakeDB{err: errors.New("connection refused")})

	_, err := svc.Search(context.Background(), SearchCriteria{})
	if err == nil || !strings.Contains(err.Error(), "query records") {
		t.Errorf("err = %v, want wrapped query error", err)
	}
}

func TestService_Create(t *testing.T) {
	db := &fakeDB{records: []Record{{ID: 10, Nombre: "Ana", Apellido: "Pérez"}}}
	svc := newTestService(t, db)

	age := int32(30)
	city := "Quito"
	rec, err := svc.Create(context.Background(), NewRecord{Nombre: "Ana", Apellido: "Pérez", Edad: &age, Ciudad: &city})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID != 10 {
		t.Errorf("ID = %d, want 10", rec.ID)
	}

	c := db.calls[0]
	if !strings.HasPrefix(strings.TrimSpace(c.sql), `INSERT INTO "personas"`) || !strings.Contains(c.sql, "RETURNING") {
		t.Errorf("sql = %q", c.sql)
	}
	if c.args[2] != (pgtype.Int4{Int32: 30, Valid: true}) {
		t.Errorf("edad arg = %v", c.args[2])
	}
	if c.args[3] != text("Quito") || c.args[4] != (pgtype.Text{}) {
		t.Errorf("optional text args = %v, %v", c.args[3], c.args[4])
	}
}

func TestService_CreateValidation(t *testing.T) {
	db := &fakeDB{}
	svc := newTestService(t, db)

	_, err := svc.Create(context.Background(), NewRecord{Nombre: "  ", Apellido: ""})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("fields = %v, want nombre and apellido", verr.Fields)
	}
	if len(db.calls) != 0 {
		t.Error("invalid record reached the database")
	}
}

func TestService_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
	}{
		{name: "existing", affected: 1},
		{name: "missing id is a no-op", affected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{affected: tt.affected}
			svc := newTestService(t, db)

			n, err := svc.Delete(ContextWithClientIP(context.Background(), "10.0.0.1"), 42)
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if n != tt.affected {
				t.Errorf("deleted = %d, want %d", n, tt.affected)
			}
			if db.calls[0].args[0] != int64(42) {
				t.Errorf("args = %v", db.calls[0].args)
			}
			if !strings.Contains(db.calls[0].sql, `"id" = $1::bigint`) {
				t.Errorf("sql = %q, want bigint id parameter", db.calls[0].sql)
			}
		})
	}
}

func TestService_Export(t *testing.T) {
	db := &fakeDB{records: []Record{
		{ID: 2, Nombre: "Ana", Apellido: "Pérez", Ciudad: text("Quito"),
			Fecha: pgtype.Timestamptz{Time: time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC), Valid: true}},
		{ID: 1, Nombre: "Juan", Apellido: "López"},
	}}
	svc := newTestService(t, db)

	exp, err := svc.Export(context.Background(), SearchCriteria{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exp.ID == "" || exp.Rows != 2 || exp.ContentType != XLSXContentType || exp.FileName != "registro-nacional.xlsx" {
		t.Errorf("export = %+v", exp)
	}

	f, err := excelize.OpenReader(bytes.NewReader(exp.Data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Registro")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][0] != "2" || rows[1][7] != "4/3/2024" {
		t.Errorf("first row = %q, want id 2 dated in Guayaquil", rows[1])
	}
	if rows[2][1] != "Juan" {
		t.Errorf("second row = %q", rows[2])
	}
}

func TestService_ExportQueryFailure(t *testing.T) {
	svc := newTestService(t, &fakeDB{err: errors.New("connection reset by peer")})

	exp, err := svc.Export(context.Background(), SearchCriteria{})
	if err == nil {
		t.Fatal("expected error")
	}
	if exp != nil {
		t.Error("failed export must not return data")
	}
	if MapError(err).Code != "DB005" {
		t.Errorf("code = %s, want DB005", MapError(err).Code)
	}
}

func TestService_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	if err := newTestService(t, db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if len(db.calls) != len(schemaStatements) {
		t.Errorf("ran %d statements, want %d", len(db.calls), len(schemaStatements))
	}
}

// ============================================================================
// Integration Tests (require TEST_DATABASE_URL)
// ============================================================================

// withTestTx runs fn inside a transaction against a temporary personas table
// that shadows any real one and is dropped on rollback.
func withTestTx(t *testing.T, fn func(ctx context.Context, svc *Service)) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	create := strings.Replace(schemaStatements[0], "CREATE TABLE IF NOT EXISTS", "CREATE TEMP TABLE", 1)
	if _, err := tx.Exec(ctx, create); err != nil {
		t.Fatalf("create temp table: %v", err)
	}

	fn(ctx, newTestService(t, tx))
}

func TestIntegration_SearchFixtures(t *testing.T) {
	withTestTx(t, func(ctx context.Context, svc *Service) {
		fixtures := []struct{ nombre, apellido, ciudad string }{
			{"Ana", "Torres", "Quito"},
			{"Juan", "Mora", "Guayaquil"},
			{"Santiago", "Ruiz", "Quito"},
			{"Mariana", "Vega", "Cuenca"},
			{"Luis", "Santana", "Quito"},
		}
		for _, f := range fixtures {
			city := f.ciudad
			if _, err := svc.Create(ctx, NewRecord{Nombre: f.nombre, Apellido: f.apellido, Ciudad: &city}); err != nil {
				t.Fatalf("create %s: %v", f.nombre, err)
			}
		}

		names := func(recs []Record) string {
			var out []string
			for _, r := range recs {
				out = append(out, r.Nombre)
			}
			return strings.Join(out, ",")
		}

		tests := []struct {
			name     string
			criteria SearchCriteria
			want     string
		}{
			{name: "all newest first", criteria: SearchCriteria{}, want: "Luis,Mariana,Santiago,Juan,Ana"},
			{name: "name matches nombre or apellido", criteria: NewSearchCriteria("ana", ""), want: "Luis,Mariana,Ana"},
			{name: "city only", criteria: NewSearchCriteria("", "quito"), want: "Luis,Santiago,Ana"},
			{name: "name and city intersect", criteria: NewSearchCriteria("ana", "Quito"), want: "Luis,Ana"},
			{name: "blank filters match all", criteria: NewSearchCriteria(" ", ""), want: "Luis,Mariana,Santiago,Juan,Ana"},
			{name: "no match", criteria: NewSearchCriteria("zzz", ""), want: ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := svc.Search(ctx, tt.criteria)
				if err != nil {
					t.Fatalf("Search: %v", err)
				}
				if names(got) != tt.want {
					t.Errorf("got %q, want %q", names(got), tt.want)
				}
			})
		}
	})
}

func TestIntegration_DeleteMissingIsNoop(t *testing.T) {
	withTestTx(t, func(ctx context.Context, svc *Service) {
		rec, err := svc.Create(ctx, NewRecord{Nombre: "Ana", Apellido: "Torres"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if !rec.Fecha.Valid {
			t.Error("fecha should be assigned by the store")
		}

		for _, id := range []int64{rec.ID + 1000, 3000000000, math.MaxInt64, -1} {
			if n, err := svc.Delete(ctx, id); err != nil || n != 0 {
				t.Errorf("Delete(%d) = %d, %v; want 0, nil", id, n, err)
			}
		}
		if n, err := svc.Delete(ctx, rec.ID); err != nil || n != 1 {
			t.Errorf("Delete(existing) = %d, %v; want 1, nil", n, err)
		}

		all, err := svc.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("records left = %d, want 0", len(all))
		}
	})
}
