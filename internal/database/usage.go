package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// IncrementDailyUsage bumps today's counter for the user and returns the new count.
func (db *DB) IncrementDailyUsage(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO daily_usage (user_id, usage_date, usage_count)
		VALUES ($1, CURRENT_DATE, 1)
		ON CONFLICT (user_id, usage_date)
		DO UPDATE SET usage_count = daily_usage.usage_count + 1
		RETURNING usage_count
	`, userID).Scan(&count)
	return count, err
}

// GetDailyUsage returns today's counter for the user, 0 if none.
func (db *DB) GetDailyUsage(ctx context.Context, userID string) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT usage_count FROM daily_usage
		WHERE user_id = $1 AND usage_date = CURRENT_DATE
	`, userID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

// ResetDailyUsage zeroes counters from previous days. Returns rows affected.
func (db *DB) ResetDailyUsage(ctx context.Context) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE daily_usage SET usage_count = 0 WHERE usage_date < CURRENT_DATE AND usage_count <> 0`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
