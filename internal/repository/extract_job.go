package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/docintake/constants"
	"github.com/joseph-ayodele/docintake/internal/common"
	"github.com/joseph-ayodele/docintake/internal/entity"
	"github.com/joseph-ayodele/docintake/internal/extract"
)

const extractJobsTable = "extract_jobs"

// fixed-width UTC timestamps sort lexically in both dialects
const timeLayout = "2006-01-02T15:04:05.000000Z"

var extractJobColumns = []string{
	"id", "source_bucket", "source_key", "record_key", "status",
	"pages", "fields", "error_message", "started_at", "finished_at",
}

// ExtractJobRepository records one row per analysis run.
type ExtractJobRepository interface {
	Start(ctx context.Context, doc extract.DocumentRef) (*entity.ExtractJob, error)
	FinishSuccess(ctx context.Context, id uuid.UUID, recordKey string, pages, fields int) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ExtractJob, error)
	ListRecent(ctx context.Context, limit int) ([]entity.ExtractJob, error)
}

type extractJobRepository struct {
	db     *DB
	now    func() time.Time
	logger *slog.Logger
}

// NewExtractJobRepository creates a new job-log repository
func NewExtractJobRepository(db *DB, logger *slog.Logger) ExtractJobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractJobRepository{db: db, now: time.Now, logger: logger}
}

func (r *extractJobRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

// Start inserts a RUNNING job for doc.
func (r *extractJobRepository) Start(ctx context.Context, doc extract.DocumentRef) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:           uuid.New(),
		SourceBucket: doc.Bucket,
		SourceKey:    doc.Key,
		Status:       string(constants.JobStatusRunning),
		StartedAt:    r.now().UTC(),
	}
	b := r.builder()
	query, args := b.Insert(extractJobsTable).
		Columns("id", "source_bucket", "source_key", "status", "pages", "fields", "started_at").
		Values(job.ID.String(), job.SourceBucket, job.SourceKey, job.Status, 0, 0, job.StartedAt.Format(timeLayout)).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to insert extract job", "source_key", doc.Key, "error", err)
		return nil, fmt.Errorf("insert extract job: %w: %w", common.ErrDatabase, err)
	}
	r.logger.Debug("extract job started", "job_id", job.ID, "source_key", doc.Key)
	return job, nil
}

func (r *extractJobRepository) FinishSuccess(ctx context.Context, id uuid.UUID, recordKey string, pages, fields int) error {
	b := r.builder()
	query, args := b.Update(extractJobsTable).
		Set("status", string(constants.JobStatusSucceeded)).
		Set("record_key", recordKey).
		Set("pages", pages).
		Set("fields", fields).
		Set("finished_at", r.now().UTC().Format(timeLayout)).
		Where(entsql.EQ("id", id.String())).
		Query()
	return r.exec(ctx, id, query, args)
}

func (r *extractJobRepository) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	b := r.builder()
	query, args := b.Update(extractJobsTable).
		Set("status", string(constants.JobStatusFailed)).
		Set("error_message", message).
		Set("finished_at", r.now().UTC().Format(timeLayout)).
		Where(entsql.EQ("id", id.String())).
		Query()
	return r.exec(ctx, id, query, args)
}

func (r *extractJobRepository) exec(ctx context.Context, id uuid.UUID, query string, args []any) error {
	res, err := r.db.SQL.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update extract job", "job_id", id, "error", err)
		return fmt.Errorf("update extract job: %w: %w", common.ErrDatabase, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", "extract job not found", common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ExtractJob, error) {
	b := r.builder()
	query, args := b.Select(extractJobColumns...).
		From(entsql.Table(extractJobsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	row := r.db.SQL.QueryRowContext(ctx, query, args...)
	job, err := scanExtractJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("NOT_FOUND", "extract job not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get extract job: %w: %w", common.ErrDatabase, err)
	}
	return job, nil
}

// ListRecent returns up to limit jobs, newest first.
func (r *extractJobRepository) ListRecent(ctx context.Context, limit int) ([]entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 50
	}
	b := r.builder()
	query, args := b.Select(extractJobColumns...).
		From(entsql.Table(extractJobsTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list extract jobs", "error", err)
		return nil, fmt.Errorf("list extract jobs: %w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	jobs := make([]entity.ExtractJob, 0, limit)
	for rows.Next() {
		job, err := scanExtractJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extract job: %w: %w", common.ErrDatabase, err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extract jobs: %w: %w", common.ErrDatabase, err)
	}
	return jobs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExtractJob(s rowScanner) (*entity.ExtractJob, error) {
	var (
		id, started              string
		recordKey, errMsg, ended sql.NullString
		job                      entity.ExtractJob
	)
	if err := s.Scan(&id, &job.SourceBucket, &job.SourceKey, &recordKey, &job.Status,
		&job.Pages, &job.Fields, &errMsg, &started, &ended); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("job id %q: %w", id, err)
	}
	job.ID = parsed
	if job.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("started_at %q: %w", started, err)
	}
	if recordKey.Valid {
		job.RecordKey = &recordKey.String
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if ended.Valid {
		t, err := time.Parse(timeLayout, ended.String)
		if err != nil {
			return nil, fmt.Errorf("finished_at %q: %w", ended.String, err)
		}
		job.FinishedAt = &t
	}
	return &job, nil
}
