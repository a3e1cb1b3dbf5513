package advicehistory

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

// Schema creates the history table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS advice_history (
	day             DATE PRIMARY KEY,
	produced_at     TIMESTAMPTZ NOT NULL,
	decision        TEXT NOT NULL,
	reason_category TEXT,
	confidence      TEXT NOT NULL,
	reason          TEXT NOT NULL,
	day_temperature DOUBLE PRECISION NOT NULL,
	wind_speed      DOUBLE PRECISION NOT NULL
)`

// PostgresRepository implements washadvisor.HistoryRepository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate applies Schema.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Record upserts the advisory for its day.
func (r *PostgresRepository) Record(ctx context.Context, record washadvisor.HistoryRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO advice_history (day, produced_at, decision, reason_category, confidence, reason, day_temperature, wind_speed)
		VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (day) DO UPDATE SET
			produced_at = EXCLUDED.produced_at,
			decision = EXCLUDED.decision,
			reason_category = EXCLUDED.reason_category,
			confidence = EXCLUDED.confidence,
			reason = EXCLUDED.reason,
			day_temperature = EXCLUDED.day_temperature,
			wind_speed = EXCLUDED.wind_speed
	`, record.Date, record.ProducedAt, string(record.Decision), categoryValue(record.ReasonCategory),
		string(record.Confidence), record.Reason, record.DayTemperature, record.WindSpeed)
	return err
}

// Recent returns up to limit records, newest day first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]washadvisor.HistoryRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD'), produced_at, decision, reason_category, confidence, reason, day_temperature, wind_speed
		FROM advice_history
		ORDER BY day DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]washadvisor.HistoryRecord, 0, limit)
	for rows.Next() {
		record, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryRecord(row rowScanner) (washadvisor.HistoryRecord, error) {
	var (
		record     washadvisor.HistoryRecord
		decision   string
		category   sql.NullString
		confidence string
	)
	if err := row.Scan(&record.Date, &record.ProducedAt, &decision, &category, &confidence,
		&record.Reason, &record.DayTemperature, &record.WindSpeed); err != nil {
		return washadvisor.HistoryRecord{}, err
	}
	record.Decision = washadvisor.Decision(decision)
	record.Confidence = washadvisor.Confidence(confidence)
	if category.Valid {
		record.ReasonCategory = washadvisor.Category(category.String)
	}
	return record, nil
}

func categoryValue(category washadvisor.Category) any {
	if category == washadvisor.CategoryNone {
		return nil
	}
	return string(category)
}

var _ washadvisor.HistoryRepository = (*PostgresRepository)(nil)
