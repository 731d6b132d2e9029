package domain

import "time"

// ReconciliationStrategy decides how entries from simultaneously active
// providers combine when they report the same metric for the same day
type ReconciliationStrategy string

const (
	// ReconcileSum adds figures across providers (matches the historical behavior;
	// double-counts users wearing two trackers)
	ReconcileSum ReconciliationStrategy = "sum"
	// ReconcilePreferPrimary keeps only the most recently connected active provider per data type
	ReconcilePreferPrimary ReconciliationStrategy = "prefer_primary"
	// ReconcileMax keeps the largest figure reported for each metric
	ReconcileMax ReconciliationStrategy = "max"
)

// ValidReconciliationStrategy reports whether s names a known strategy
func ValidReconciliationStrategy(s string) bool {
	switch ReconciliationStrategy(s) {
	case ReconcileSum, ReconcilePreferPrimary, ReconcileMax:
		return true
	}
	return false
}

// DailySummary is the single-day fold over a user's health entries.
// Heart rate figures are averaged over the entries that report one.
type DailySummary struct {
	Date             time.Time `json:"date"`
	Steps            int64     `json:"steps"`
	CaloriesBurned   float64   `json:"calories_burned"`
	ActiveMinutes    int64     `json:"active_minutes"`
	DistanceMeters   float64   `json:"distance_meters"`
	SleepHours       float64   `json:"sleep_hours"`
	SleepScore       float64   `json:"sleep_score"`
	AvgHeartRate     float64   `json:"avg_heart_rate"`
	RestingHeartRate float64   `json:"resting_heart_rate"`
	Entries          int       `json:"entries"`
}

// WeeklySummary averages each metric over the distinct days that reported it,
// not over a fixed seven, so sparse data does not understate the averages.
type WeeklySummary struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	DaysWithData      int       `json:"days_with_data"`
	AvgSteps          float64   `json:"avg_steps"`
	AvgCaloriesBurned float64   `json:"avg_calories_burned"`
	AvgActiveMinutes  float64   `json:"avg_active_minutes"`
	AvgDistanceMeters float64   `json:"avg_distance_meters"`
	AvgSleepHours     float64   `json:"avg_sleep_hours"`
	AvgHeartRate      float64   `json:"avg_heart_rate"`
}
