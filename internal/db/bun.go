package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"candidate-screening/internal/config"
	"candidate-screening/internal/models"
)

// Job is the jobs table row.
type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`
	ID            string                   `bun:"id,pk,type:uuid"`
	Status        string                   `bun:"status,notnull"`
	JobTitle      string                   `bun:"job_title"`
	CVID          string                   `bun:"cv_id"`
	ReportID      string                   `bun:"report_id"`
	Result        *models.EvaluationResult `bun:"result,type:jsonb"`
	Error         string                   `bun:"error"`
	CreatedAt     time.Time                `bun:"created_at,notnull"`
	UpdatedAt     time.Time                `bun:"updated_at,notnull"`
}

func toRow(job *models.Job) *Job {
	return &Job{
		ID:        job.ID,
		Status:    string(job.Status),
		JobTitle:  job.JobTitle,
		CVID:      job.CVID,
		ReportID:  job.ReportID,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

func (r *Job) toModel() *models.Job {
	return &models.Job{
		ID:        r.ID,
		Status:    models.JobStatus(r.Status),
		JobTitle:  r.JobTitle,
		CVID:      r.CVID,
		ReportID:  r.ReportID,
		Result:    r.Result,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Open connects to postgres through the configured SQL driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*bun.DB, error) {
	var sqldb *sql.DB
	var err error

	switch cfg.Driver {
	case "pgdriver":
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	case "pq":
		sqldb, err = sql.Open("postgres", cfg.DSN)
	case "pgx":
		var pgxCfg *pgx.ConnConfig
		pgxCfg, err = pgx.ParseConfig(cfg.DSN)
		if err == nil {
			sqldb = stdlib.OpenDB(*pgxCfg)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Str("driver", cfg.Driver).Msg("Connected to job database")
	return db, nil
}

// BunStore keeps jobs in postgres.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// Init creates the jobs table if it does not exist.
func (s *BunStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Job)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	_, err := s.db.NewCreateIndex().
		Model((*Job)(nil)).
		Index("jobs_status_idx").
		IfNotExists().
		Column("status").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create jobs index: %w", err)
	}
	return nil
}

func (s *BunStore) Create(ctx context.Context, job *models.Job) error {
	if _, err := s.db.NewInsert().Model(toRow(job)).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *BunStore) Get(ctx context.Context, id string) (*models.Job, error) {
	row := new(Job)
	err := s.db.NewSelect().Model(row).Where("j.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	return row.toModel(), nil
}

// Update upserts the job row.
func (s *BunStore) Update(ctx context.Context, job *models.Job) error {
	_, err := s.db.NewInsert().
		Model(toRow(job)).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("result = EXCLUDED.result").
		Set("error = EXCLUDED.error").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}
	return nil
}

func (s *BunStore) List(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	var rows []Job
	q := s.db.NewSelect().Model(&rows).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	out := make([]*models.Job, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}
