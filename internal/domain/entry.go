package domain

import (
	"encoding/json"
	"time"
)

// DataType classifies a health entry by the kind of metric it carries
type DataType string

const (
	DataTypeActivity  DataType = "activity"
	DataTypeSleep     DataType = "sleep"
	DataTypeHeartRate DataType = "heart_rate"
	DataTypeNutrition DataType = "nutrition"
	DataTypeSteps     DataType = "steps"
)

// HealthEntry is one canonical per-day health record. The composite key
// (UserID, Provider, DataType, Date) is unique; redelivery of the same logical
// fact merges into the existing row instead of creating a duplicate.
//
// Metric fields are pointers: nil means the provider never reported the field,
// and the persister must leave any previously stored value untouched. Read-side
// consumers substitute zero for nil.
type HealthEntry struct {
	ID       string   `json:"id" db:"id"`
	UserID   string   `json:"user_id" db:"user_id"`
	Provider string   `json:"provider" db:"provider"`
	DataType DataType `json:"data_type" db:"data_type"`
	// Date is a calendar day at UTC midnight, not a full timestamp
	Date time.Time `json:"date" db:"entry_date"`

	// activity metrics
	Steps          *int64   `json:"steps,omitempty" db:"steps"`
	CaloriesBurned *float64 `json:"calories_burned,omitempty" db:"calories_burned"`
	ActiveMinutes  *int64   `json:"active_minutes,omitempty" db:"active_minutes"`
	DistanceMeters *float64 `json:"distance_meters,omitempty" db:"distance_meters"`

	// sleep metrics
	TotalSleepMinutes *int64     `json:"total_sleep_minutes,omitempty" db:"total_sleep_minutes"`
	DeepSleepMinutes  *int64     `json:"deep_sleep_minutes,omitempty" db:"deep_sleep_minutes"`
	LightSleepMinutes *int64     `json:"light_sleep_minutes,omitempty" db:"light_sleep_minutes"`
	RemSleepMinutes   *int64     `json:"rem_sleep_minutes,omitempty" db:"rem_sleep_minutes"`
	SleepScore        *float64   `json:"sleep_score,omitempty" db:"sleep_score"`
	SleepStart        *time.Time `json:"sleep_start,omitempty" db:"sleep_start"`
	SleepEnd          *time.Time `json:"sleep_end,omitempty" db:"sleep_end"`

	// heart metrics
	AvgHeartRate     *float64 `json:"avg_heart_rate,omitempty" db:"avg_heart_rate"`
	RestingHeartRate *float64 `json:"resting_heart_rate,omitempty" db:"resting_heart_rate"`
	MaxHeartRate     *float64 `json:"max_heart_rate,omitempty" db:"max_heart_rate"`
	MinHeartRate     *float64 `json:"min_heart_rate,omitempty" db:"min_heart_rate"`
	HRVMs            *float64 `json:"hrv_ms,omitempty" db:"hrv_ms"`

	// RawData keeps the original provider payload for audit and debugging
	RawData json.RawMessage `json:"raw_data,omitempty" db:"raw_data"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Day normalizes a timestamp to its UTC calendar day
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
