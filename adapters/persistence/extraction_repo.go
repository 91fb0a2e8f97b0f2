package persistence

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type postgresExtractionRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresExtractionRepo(db *pgxpool.Pool, logger logger.Logger) extraction.Repository {
	return &postgresExtractionRepo{db: db, logger: logger}
}

var psqlExtraction = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var extractionColumns = []string{
	"id", "request_id", "model", "document_path", "document_sha256", "pages",
	"status", "result", "error_kind", "error_message", "duration_ms", "occurred_at",
}

// Save is idempotent on the event id so redelivered messages are harmless.
func (r *postgresExtractionRepo) Save(ctx context.Context, e *extraction.Event) error {
	var result any
	if len(e.Result) > 0 {
		result = string(e.Result)
	}

	query, args, err := psqlExtraction.Insert("extractions").
		Columns(extractionColumns...).
		Values(
			e.ID, e.RequestID, e.Model, e.DocumentPath, e.DocumentSHA256, e.Pages,
			string(e.Status), result, e.ErrorKind, e.ErrorMessage, e.DurationMS, e.OccurredAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build insert extraction query", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to save extraction", err)
	}
	return nil
}

func (r *postgresExtractionRepo) FindByID(ctx context.Context, id uuid.UUID) (*extraction.Event, error) {
	query, args, err := psqlExtraction.Select(extractionColumns...).
		From("extractions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build find extraction query", err)
	}

	e, err := scanExtraction(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("extraction", id.String())
	}
	if err != nil {
		return nil, apperror.NewInternal("failed to scan extraction row", err)
	}
	return e, nil
}

func (r *postgresExtractionRepo) ListRecent(ctx context.Context, limit int) ([]*extraction.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := psqlExtraction.Select(extractionColumns...).
		From("extractions").
		OrderBy("occurred_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list extractions query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to list extractions", err)
	}
	defer rows.Close()

	events := make([]*extraction.Event, 0, limit)
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, apperror.NewInternal("failed to scan extraction row", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating extraction rows", err)
	}
	return events, nil
}

func scanExtraction(row pgx.Row) (*extraction.Event, error) {
	e := &extraction.Event{}
	var status string
	var result []byte
	var sha, errKind, errMsg sql.NullString

	err := row.Scan(
		&e.ID, &e.RequestID, &e.Model, &e.DocumentPath, &sha, &e.Pages,
		&status, &result, &errKind, &errMsg, &e.DurationMS, &e.OccurredAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = extraction.Status(status)
	e.Result = result
	e.DocumentSHA256 = sha.String
	e.ErrorKind = errKind.String
	e.ErrorMessage = errMsg.String
	return e, nil
}
