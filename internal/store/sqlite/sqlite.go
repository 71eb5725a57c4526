package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fableforge/fable-engine/internal/store"
	"github.com/fableforge/fable-engine/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB
	executor DB
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) Generations() store.GenerationRepository {
	return &generationRepo{db: r.executor}
}

type generationRepo struct {
	db DB
}

func (r *generationRepo) Log(ctx context.Context, log *model.GenerationLog) error {
	query := `
	INSERT INTO generation_logs (
		id, story_id, chapter_id, kind, provider_id, tier,
		success, is_backup, error, latency_ms, attempts, created_at
	) VALUES (
		:id, :story_id, :chapter_id, :kind, :provider_id, :tier,
		:success, :is_backup, :error, :latency_ms, :attempts, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, log)
	return err
}

func (r *generationRepo) Recent(ctx context.Context, storyID string, limit int) ([]model.GenerationLog, error) {
	var logs []model.GenerationLog
	query := `SELECT * FROM generation_logs WHERE story_id = ? ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &logs, query, storyID, limit)
	return logs, err
}

func (r *generationRepo) DailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	var stats []model.DailyStats
	query := `
		SELECT
			DATE(created_at) as date,
			COUNT(*) as total_requests,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as total_failures,
			SUM(CASE WHEN is_backup = 1 THEN 1 ELSE 0 END) as backup_served,
			AVG(latency_ms) as avg_latency
		FROM generation_logs
		WHERE created_at >= DATE('now', ?)
		GROUP BY date
		ORDER BY date DESC
	`
	// SQLite date offset format is '-7 days'
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}

func (r *generationRepo) ProviderStats(ctx context.Context, days int) ([]model.ProviderStats, error) {
	var stats []model.ProviderStats
	query := `
		SELECT
			provider_id,
			COUNT(*) as total_requests,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as total_failures,
			AVG(latency_ms) as avg_latency
		FROM generation_logs
		WHERE created_at >= DATE('now', ?)
		GROUP BY provider_id
		ORDER BY total_requests DESC
	`
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}
