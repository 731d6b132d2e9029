package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalbite/wearable-sync/internal/domain"
	"github.com/vitalbite/wearable-sync/pkg/database"
)

// entryRepository implements EntryRepository on PostgreSQL
type entryRepository struct {
	db *database.Postgres
}

// NewEntryRepository creates a new health entry repository
func NewEntryRepository(db *database.Postgres) EntryRepository {
	return &entryRepository{db: db}
}

const entryColumns = `id, user_id, provider, data_type, entry_date,
	steps, calories_burned, active_minutes, distance_meters,
	total_sleep_minutes, deep_sleep_minutes, light_sleep_minutes, rem_sleep_minutes,
	sleep_score, sleep_start, sleep_end,
	avg_heart_rate, resting_heart_rate, max_heart_rate, min_heart_rate, hrv_ms,
	raw_data, created_at, updated_at`

// Merge performs the idempotent merge-write. COALESCE keeps the stored value
// whenever the draft leaves a field nil, so concurrent or redelivered webhooks
// for the same key converge by field-level last-write-wins on a single atomic
// row update.
func (r *entryRepository) Merge(ctx context.Context, entry *domain.HealthEntry) error {
	query := `
		INSERT INTO health_entries (
			id, user_id, provider, data_type, entry_date,
			steps, calories_burned, active_minutes, distance_meters,
			total_sleep_minutes, deep_sleep_minutes, light_sleep_minutes, rem_sleep_minutes,
			sleep_score, sleep_start, sleep_end,
			avg_heart_rate, resting_heart_rate, max_heart_rate, min_heart_rate, hrv_ms,
			raw_data, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $23)
		ON CONFLICT (user_id, provider, data_type, entry_date) DO UPDATE SET
			steps               = COALESCE(EXCLUDED.steps, health_entries.steps),
			calories_burned     = COALESCE(EXCLUDED.calories_burned, health_entries.calories_burned),
			active_minutes      = COALESCE(EXCLUDED.active_minutes, health_entries.active_minutes),
			distance_meters     = COALESCE(EXCLUDED.distance_meters, health_entries.distance_meters),
			total_sleep_minutes = COALESCE(EXCLUDED.total_sleep_minutes, health_entries.total_sleep_minutes),
			deep_sleep_minutes  = COALESCE(EXCLUDED.deep_sleep_minutes, health_entries.deep_sleep_minutes),
			light_sleep_minutes = COALESCE(EXCLUDED.light_sleep_minutes, health_entries.light_sleep_minutes),
			rem_sleep_minutes   = COALESCE(EXCLUDED.rem_sleep_minutes, health_entries.rem_sleep_minutes),
			sleep_score         = COALESCE(EXCLUDED.sleep_score, health_entries.sleep_score),
			sleep_start         = COALESCE(EXCLUDED.sleep_start, health_entries.sleep_start),
			sleep_end           = COALESCE(EXCLUDED.sleep_end, health_entries.sleep_end),
			avg_heart_rate      = COALESCE(EXCLUDED.avg_heart_rate, health_entries.avg_heart_rate),
			resting_heart_rate  = COALESCE(EXCLUDED.resting_heart_rate, health_entries.resting_heart_rate),
			max_heart_rate      = COALESCE(EXCLUDED.max_heart_rate, health_entries.max_heart_rate),
			min_heart_rate      = COALESCE(EXCLUDED.min_heart_rate, health_entries.min_heart_rate),
			hrv_ms              = COALESCE(EXCLUDED.hrv_ms, health_entries.hrv_ms),
			raw_data            = COALESCE(EXCLUDED.raw_data, health_entries.raw_data),
			updated_at          = EXCLUDED.updated_at
	`

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	var rawData any
	if len(entry.RawData) > 0 {
		rawData = []byte(entry.RawData)
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Provider,
		entry.DataType,
		domain.Day(entry.Date),
		entry.Steps,
		entry.CaloriesBurned,
		entry.ActiveMinutes,
		entry.DistanceMeters,
		entry.TotalSleepMinutes,
		entry.DeepSleepMinutes,
		entry.LightSleepMinutes,
		entry.RemSleepMinutes,
		entry.SleepScore,
		entry.SleepStart,
		entry.SleepEnd,
		entry.AvgHeartRate,
		entry.RestingHeartRate,
		entry.MaxHeartRate,
		entry.MinHeartRate,
		entry.HRVMs,
		rawData,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to merge health entry: %w", err)
	}

	return nil
}

// Get retrieves one entry by its composite key
func (r *entryRepository) Get(ctx context.Context, userID, provider string, dataType domain.DataType, date time.Time) (*domain.HealthEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM health_entries
		WHERE user_id = $1 AND provider = $2 AND data_type = $3 AND entry_date = $4`, entryColumns)

	entry, err := scanEntry(r.db.DB.QueryRowContext(ctx, query, userID, provider, dataType, domain.Day(date)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("health entry not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get health entry: %w", err)
	}

	return entry, nil
}

// ListByDateRange retrieves all of a user's entries with from <= date <= to
func (r *entryRepository) ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.HealthEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM health_entries
		WHERE user_id = $1 AND entry_date >= $2 AND entry_date <= $3
		ORDER BY entry_date, provider, data_type`, entryColumns)

	rows, err := r.db.DB.QueryContext(ctx, query, userID, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list health entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.HealthEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan health entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate health entries: %w", err)
	}

	return entries, nil
}

func scanEntry(row rowScanner) (*domain.HealthEntry, error) {
	entry := &domain.HealthEntry{}
	var (
		steps, activeMinutes                  sql.NullInt64
		caloriesBurned, distanceMeters        sql.NullFloat64
		totalSleep, deepSleep, lightSleep     sql.NullInt64
		remSleep                              sql.NullInt64
		sleepScore                            sql.NullFloat64
		sleepStart, sleepEnd                  sql.NullTime
		avgHR, restingHR, maxHR, minHR, hrvMs sql.NullFloat64
		rawData                               []byte
	)

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Provider,
		&entry.DataType,
		&entry.Date,
		&steps,
		&caloriesBurned,
		&activeMinutes,
		&distanceMeters,
		&totalSleep,
		&deepSleep,
		&lightSleep,
		&remSleep,
		&sleepScore,
		&sleepStart,
		&sleepEnd,
		&avgHR,
		&restingHR,
		&maxHR,
		&minHR,
		&hrvMs,
		&rawData,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Date = domain.Day(entry.Date)
	if steps.Valid {
		entry.Steps = &steps.Int64
	}
	if caloriesBurned.Valid {
		entry.CaloriesBurned = &caloriesBurned.Float64
	}
	if activeMinutes.Valid {
		entry.ActiveMinutes = &activeMinutes.Int64
	}
	if distanceMeters.Valid {
		entry.DistanceMeters = &distanceMeters.Float64
	}
	if totalSleep.Valid {
		entry.TotalSleepMinutes = &totalSleep.Int64
	}
	if deepSleep.Valid {
		entry.DeepSleepMinutes = &deepSleep.Int64
	}
	if lightSleep.Valid {
		entry.LightSleepMinutes = &lightSleep.Int64
	}
	if remSleep.Valid {
		entry.RemSleepMinutes = &remSleep.Int64
	}
	if sleepScore.Valid {
		entry.SleepScore = &sleepScore.Float64
	}
	if sleepStart.Valid {
		entry.SleepStart = &sleepStart.Time
	}
	if sleepEnd.Valid {
		entry.SleepEnd = &sleepEnd.Time
	}
	if avgHR.Valid {
		entry.AvgHeartRate = &avgHR.Float64
	}
	if restingHR.Valid {
		entry.RestingHeartRate = &restingHR.Float64
	}
	if maxHR.Valid {
		entry.MaxHeartRate = &maxHR.Float64
	}
	if minHR.Valid {
		entry.MinHeartRate = &minHR.Float64
	}
	if len(rawData) > 0 {
		entry.RawData = rawData
	}
	if hrvMs.Valid {
		entry.HRVMs = &hrvMs.Float64
	}

	return entry, nil
}
