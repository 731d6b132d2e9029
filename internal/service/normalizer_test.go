package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vitalbite/wearable-sync/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(NewReferenceWindowEstimator(), fixedClock)
}

func TestNormalizeActivity(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"start_time": "2024-01-10T08:00:00Z", "end_time": "2024-01-10T09:00:00Z"},
		"distance_data": {"steps": 8000, "distance_meters": 6200.5},
		"calories_data": {"total_burned_calories": 350.0},
		"active_durations_data": {"activity_seconds": 3600}
	}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeActivity, "user-1", "GARMIN", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if entry.DataType != domain.DataTypeActivity {
		t.Errorf("Expected activity data type, got %s", entry.DataType)
	}
	if entry.Steps == nil || *entry.Steps != 8000 {
		t.Errorf("Expected 8000 steps, got %v", entry.Steps)
	}
	if entry.CaloriesBurned == nil || *entry.CaloriesBurned != 350.0 {
		t.Errorf("Expected 350 calories, got %v", entry.CaloriesBurned)
	}
	if entry.DistanceMeters == nil || *entry.DistanceMeters != 6200.5 {
		t.Errorf("Expected 6200.5 meters, got %v", entry.DistanceMeters)
	}
	if entry.ActiveMinutes == nil || *entry.ActiveMinutes != 60 {
		t.Errorf("Expected 60 active minutes, got %v", entry.ActiveMinutes)
	}

	wantDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if !entry.Date.Equal(wantDate) {
		t.Errorf("Expected entry dated %v, got %v", wantDate, entry.Date)
	}
}

func TestNormalizeActivity_MissingSubObjects(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"start_time": "2024-01-10T08:00:00Z"},
		"calories_data": {"total_burned_calories": 120.0}
	}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeActivity, "user-1", "FITBIT", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	// absent metrics stay nil so the merge preserves stored values
	if entry.Steps != nil {
		t.Errorf("Expected nil steps, got %v", *entry.Steps)
	}
	if entry.ActiveMinutes != nil {
		t.Errorf("Expected nil active minutes, got %v", *entry.ActiveMinutes)
	}
	if entry.CaloriesBurned == nil || *entry.CaloriesBurned != 120.0 {
		t.Errorf("Expected 120 calories, got %v", entry.CaloriesBurned)
	}
}

func TestNormalizeActivity_MissingStartTime(t *testing.T) {
	raw := json.RawMessage(`{"distance_data": {"steps": 500}}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeActivity, "user-1", "GARMIN", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	// dateless records are filed under the ingestion day
	wantDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !entry.Date.Equal(wantDate) {
		t.Errorf("Expected fallback to ingestion day %v, got %v", wantDate, entry.Date)
	}
}

func TestNormalizeDaily(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"start_time": "2024-01-10T00:00:00Z"},
		"distance_data": {"steps": 12000}
	}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeDaily, "user-1", "GARMIN", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if entry.DataType != domain.DataTypeActivity {
		t.Errorf("Expected daily events to land on the activity data type, got %s", entry.DataType)
	}
	if entry.Steps == nil || *entry.Steps != 12000 {
		t.Errorf("Expected 12000 steps, got %v", entry.Steps)
	}
}

func TestNormalizeSleep_StageBreakdown(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"start_time": "2024-01-09T22:30:00Z", "end_time": "2024-01-10T06:30:00Z"},
		"sleep_durations_data": {
			"asleep": {
				"duration_deep_sleep_state_seconds": 5400,
				"duration_light_sleep_state_seconds": 14400,
				"duration_REM_sleep_state_seconds": 7200
			}
		},
		"sleep_score": 82
	}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeSleep, "user-1", "OURA", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if entry.DeepSleepMinutes == nil || *entry.DeepSleepMinutes != 90 {
		t.Errorf("Expected 90 deep minutes, got %v", entry.DeepSleepMinutes)
	}
	if entry.LightSleepMinutes == nil || *entry.LightSleepMinutes != 240 {
		t.Errorf("Expected 240 light minutes, got %v", entry.LightSleepMinutes)
	}
	if entry.RemSleepMinutes == nil || *entry.RemSleepMinutes != 120 {
		t.Errorf("Expected 120 REM minutes, got %v", entry.RemSleepMinutes)
	}

	// no explicit total: sum of stages
	if entry.TotalSleepMinutes == nil || *entry.TotalSleepMinutes != 450 {
		t.Errorf("Expected 450 total minutes, got %v", entry.TotalSleepMinutes)
	}
	if entry.SleepScore == nil || *entry.SleepScore != 82 {
		t.Errorf("Expected sleep score 82, got %v", entry.SleepScore)
	}
	if entry.SleepStart == nil || entry.SleepEnd == nil {
		t.Fatal("Expected sleep start and end to be set")
	}
}

func TestNormalizeSleep_ExplicitTotalWins(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"start_time": "2024-01-09T22:30:00Z"},
		"sleep_durations_data": {
			"asleep": {
				"duration_asleep_state_seconds": 25200,
				"duration_deep_sleep_state_seconds": 5400
			}
		}
	}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeSleep, "user-1", "OURA", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if entry.TotalSleepMinutes == nil || *entry.TotalSleepMinutes != 420 {
		t.Errorf("Expected explicit total of 420 minutes, got %v", entry.TotalSleepMinutes)
	}
}

func TestNormalizeSleep_EfficiencyFallback(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"start_time": "2024-01-09T22:30:00Z"},
		"sleep_durations_data": {"sleep_efficiency": 90}
	}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeSleep, "user-1", "WITHINGS", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	// 90% of the eight-hour reference window
	if entry.TotalSleepMinutes == nil || *entry.TotalSleepMinutes != 432 {
		t.Errorf("Expected estimated 432 minutes, got %v", entry.TotalSleepMinutes)
	}
}

func TestNormalizeSleep_NoDurationsAtAll(t *testing.T) {
	raw := json.RawMessage(`{"metadata": {"start_time": "2024-01-09T22:30:00Z"}}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeSleep, "user-1", "WITHINGS", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if entry.TotalSleepMinutes != nil {
		t.Errorf("Expected nil total without durations or efficiency, got %v", *entry.TotalSleepMinutes)
	}
}

func TestNormalizeHeart(t *testing.T) {
	raw := json.RawMessage(`{
		"metadata": {"start_time": "2024-01-10T00:00:00Z"},
		"heart_rate_data": {
			"summary": {
				"avg_hr_bpm": 72.5,
				"resting_hr_bpm": 58,
				"max_hr_bpm": 161,
				"min_hr_bpm": 49,
				"avg_hrv_rmssd": 42.3
			}
		}
	}`)

	entry, err := newTestNormalizer().Normalize(domain.EventTypeBody, "user-1", "POLAR", raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if entry.DataType != domain.DataTypeHeartRate {
		t.Errorf("Expected heart_rate data type, got %s", entry.DataType)
	}
	if entry.AvgHeartRate == nil || *entry.AvgHeartRate != 72.5 {
		t.Errorf("Expected avg HR 72.5, got %v", entry.AvgHeartRate)
	}
	if entry.RestingHeartRate == nil || *entry.RestingHeartRate != 58 {
		t.Errorf("Expected resting HR 58, got %v", entry.RestingHeartRate)
	}
	if entry.HRVMs == nil || *entry.HRVMs != 42.3 {
		t.Errorf("Expected HRV 42.3, got %v", entry.HRVMs)
	}
}

func TestNormalize_MalformedRecord(t *testing.T) {
	_, err := newTestNormalizer().Normalize(domain.EventTypeActivity, "user-1", "GARMIN", json.RawMessage(`"not an object"`))
	if err == nil {
		t.Error("Expected error for malformed record")
	}
}

func TestNormalize_NonDataEventType(t *testing.T) {
	entry, err := newTestNormalizer().Normalize(domain.EventTypeAuth, "user-1", "GARMIN", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if entry != nil {
		t.Error("Expected nil entry for non-data event type")
	}
}

func TestReferenceWindowEstimator(t *testing.T) {
	e := NewReferenceWindowEstimator()

	if got := e.EstimateTotal(100); got != 480 {
		t.Errorf("Expected 480 minutes at full efficiency, got %d", got)
	}
	if got := e.EstimateTotal(50); got != 240 {
		t.Errorf("Expected 240 minutes at half efficiency, got %d", got)
	}
	if got := e.EstimateTotal(-5); got != 0 {
		t.Errorf("Expected 0 for negative efficiency, got %d", got)
	}
	if got := e.EstimateTotal(150); got != 480 {
		t.Errorf("Expected clamp to 480 above full efficiency, got %d", got)
	}
}
