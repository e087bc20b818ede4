package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/registro/internal/config"
	"github.com/JonMunkholm/registro/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// schemaStatements bootstrap the personas table. edad arrived in a later
// revision, so it is also added to tables created before it existed.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS "personas" (
		"id"        SERIAL PRIMARY KEY,
		"nombre"    VARCHAR(100) NOT NULL,
		"apellido"  VARCHAR(100) NOT NULL,
		"edad"      INTEGER,
		"ciudad"    VARCHAR(100),
		"ocupacion" VARCHAR(150),
		"relato"    TEXT,
		"fecha"     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE "personas" ADD COLUMN IF NOT EXISTS "edad" INTEGER`,
}

// Service provides the core business logic for the personas register.
// It holds no per-request state; concurrent calls only share the DBTX.
type Service struct {
	db        DBTX
	projector *Projector
	limiter   *ExportLimiter
	sheet     string
	fileName  string
}

// Export is a fully encoded spreadsheet ready to be sent to a client.
type Export struct {
	ID          string
	FileName    string
	ContentType string
	Rows        int
	Data        []byte
}

// NewService creates a Service that runs every statement through db.
func NewService(db DBTX, cfg config.ExportConfig) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("new service: nil database")
	}

	loc := time.UTC
	if cfg.TimeZone != "" {
		l, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("new service: load time zone %q: %w", cfg.TimeZone, err)
		}
		loc = l
	}

	locale := cfg.Locale
	if locale == "" {
		locale = DefaultLocale
	}
	projector, err := NewProjector(locale, loc)
	if err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}

	fileName := cfg.FileName
	if fileName == "" {
		fileName = "registro-nacional.xlsx"
	}

	return &Service{
		db:        db,
		projector: projector,
		limiter:   NewExportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		sheet:     cfg.SheetName,
		fileName:  fileName,
	}, nil
}

// EnsureSchema creates the personas table when it does not exist.
func (s *Service) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Create inserts a record. The store assigns id and fecha.
func (s *Service) Create(ctx context.Context, in NewRecord) (Record, error) {
	if err := in.Validate(); err != nil {
		return Record{}, err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s ("nombre", "apellido", "edad", "ciudad", "ocupacion", "relato")
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING %s`,
		quoteIdentifier(TableName),
		strings.Join(recordColumns, ", "),
	)

	var rec Record
	err := s.db.QueryRow(ctx, query,
		in.Nombre,
		in.Apellido,
		ToPgInt4(in.Edad),
		ToPgText(in.Ciudad),
		ToPgText(in.Ocupacion),
		ToPgText(in.Relato),
	).Scan(rec.scanTargets()...)
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}

	logging.FromContext(ctx).Info("record created", "id", rec.ID)
	return rec, nil
}

// List returns every record, newest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.Search(ctx, SearchCriteria{})
}

// Search returns the records matching c, newest first. Empty criteria
// return every record.
func (s *Service) Search(ctx context.Context, c SearchCriteria) ([]Record, error) {
	query, args := buildSelect(c)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return collectRecords(rows)
}

// Delete removes the record with id. A missing id is not an error; the
// returned count tells whether anything was removed.
func (s *Service) Delete(ctx context.Context, id int64) (int64, error) {
	// Ids outside the int4 range match no row.
	query := fmt.Sprintf(`DELETE FROM %s WHERE "id" = $1::bigint`, quoteIdentifier(TableName))

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete record %d: %w", id, err)
	}

	logging.WithFields(ctx, "id", id, "client_ip", ClientIPFromContext(ctx)).
		Info("record deleted", "rows", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// Export queries the records matching c, projects them and encodes the
// result as an xlsx workbook. Nothing is returned unless every step succeeds.
func (s *Service) Export(ctx context.Context, c SearchCriteria) (*Export, error) {
	exportID := uuid.NewString()
	logger := logging.WithFields(ctx, "export_id", exportID)

	if err := s.limiter.Acquire(ctx); err != nil {
		logger.Warn("export rejected", "error", err, "limiter", s.limiter.Status())
		return nil, fmt.Errorf("export: %w", err)
	}
	defer s.limiter.Release()

	records, err := s.Search(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	rows := s.projector.ProjectAll(records)
	buf, err := EncodeWorkbook(s.sheet, rows)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	logger.Info("export built", "rows", len(rows), "bytes", buf.Len())

	return &Export{
		ID:          exportID,
		FileName:    s.fileName,
		ContentType: XLSXContentType,
		Rows:        len(rows),
		Data:        buf.Bytes(),
	}, nil
}

// ExportStatus reports export slot usage.
func (s *Service) ExportStatus() ExportLimiterStatus {
	return s.limiter.Status()
}

// WaitForExports blocks until in-flight exports finish or ctx ends.
func (s *Service) WaitForExports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// collectRecords scans all rows and closes them. An empty result is a
// non-nil empty slice so it encodes as [] in JSON.
func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(rec.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}
