package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitalbite/wearable-sync/internal/domain"
)

// Normalizer maps provider-native data records into canonical health entry
// drafts. Missing sub-fields stay nil on the draft so the persister leaves
// previously stored values alone; read-side consumers render nil as zero.
type Normalizer struct {
	estimator SleepEstimator
	now       func() time.Time
}

// NewNormalizer creates a normalizer with the given sleep fallback strategy.
// The clock is injectable so tests can pin the date used for records that
// arrive without their own timestamp.
func NewNormalizer(estimator SleepEstimator, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{estimator: estimator, now: now}
}

// Normalize builds the entry draft for one raw data item of the given event
// type. Returns nil when the event type carries no health data.
func (n *Normalizer) Normalize(eventType domain.EventType, userID, provider string, raw json.RawMessage) (*domain.HealthEntry, error) {
	switch eventType {
	case domain.EventTypeActivity, domain.EventTypeDaily:
		return n.normalizeActivity(userID, provider, raw)
	case domain.EventTypeSleep:
		return n.normalizeSleep(userID, provider, raw)
	case domain.EventTypeBody:
		return n.normalizeHeart(userID, provider, raw)
	default:
		return nil, nil
	}
}

// normalizeActivity handles both activity samples and the activity subset of
// daily summaries; the two shapes are identical upstream
func (n *Normalizer) normalizeActivity(userID, provider string, raw json.RawMessage) (*domain.HealthEntry, error) {
	var record domain.ActivityRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("malformed activity record: %w", err)
	}

	entry := n.newDraft(userID, provider, domain.DataTypeActivity, record.Metadata, raw)

	if record.DistanceData != nil {
		entry.Steps = record.DistanceData.Steps
		entry.DistanceMeters = record.DistanceData.DistanceMeters
	}
	if record.CaloriesData != nil {
		entry.CaloriesBurned = record.CaloriesData.TotalBurnedCalories
	}
	if record.ActiveDurations != nil && record.ActiveDurations.ActivitySeconds != nil {
		minutes := int64(*record.ActiveDurations.ActivitySeconds / 60)
		entry.ActiveMinutes = &minutes
	}

	return entry, nil
}

func (n *Normalizer) normalizeSleep(userID, provider string, raw json.RawMessage) (*domain.HealthEntry, error) {
	var record domain.SleepRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("malformed sleep record: %w", err)
	}

	entry := n.newDraft(userID, provider, domain.DataTypeSleep, record.Metadata, raw)
	entry.SleepScore = record.SleepScore
	entry.SleepStart = parseTimestamp(record.Metadata.StartTime)
	entry.SleepEnd = parseTimestamp(record.Metadata.EndTime)

	if record.SleepDurations == nil {
		return entry, nil
	}

	durations := record.SleepDurations
	if durations.Asleep != nil {
		asleep := durations.Asleep
		entry.DeepSleepMinutes = secondsToMinutes(asleep.DeepSeconds)
		entry.LightSleepMinutes = secondsToMinutes(asleep.LightSeconds)
		entry.RemSleepMinutes = secondsToMinutes(asleep.RemSeconds)

		if asleep.TotalSeconds != nil {
			entry.TotalSleepMinutes = secondsToMinutes(asleep.TotalSeconds)
		} else if entry.DeepSleepMinutes != nil || entry.LightSleepMinutes != nil || entry.RemSleepMinutes != nil {
			total := zeroIfNil(entry.DeepSleepMinutes) + zeroIfNil(entry.LightSleepMinutes) + zeroIfNil(entry.RemSleepMinutes)
			entry.TotalSleepMinutes = &total
		}
	}

	// no stage breakdown at all: estimate from the efficiency ratio
	if entry.TotalSleepMinutes == nil && durations.SleepEfficiency != nil {
		total := n.estimator.EstimateTotal(*durations.SleepEfficiency)
		entry.TotalSleepMinutes = &total
	}

	return entry, nil
}

func (n *Normalizer) normalizeHeart(userID, provider string, raw json.RawMessage) (*domain.HealthEntry, error) {
	var record domain.BodyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("malformed body record: %w", err)
	}

	entry := n.newDraft(userID, provider, domain.DataTypeHeartRate, record.Metadata, raw)

	if record.HeartRateData != nil && record.HeartRateData.Summary != nil {
		summary := record.HeartRateData.Summary
		entry.AvgHeartRate = summary.AvgHRBpm
		entry.RestingHeartRate = summary.RestingHRBpm
		entry.MaxHeartRate = summary.MaxHRBpm
		entry.MinHeartRate = summary.MinHRBpm
		entry.HRVMs = summary.AvgHRVRmssd
	}

	return entry, nil
}

func (n *Normalizer) newDraft(userID, provider string, dataType domain.DataType, meta domain.RecordMetadata, raw json.RawMessage) *domain.HealthEntry {
	return &domain.HealthEntry{
		UserID:   userID,
		Provider: provider,
		DataType: dataType,
		Date:     n.resolveDate(meta.StartTime),
		RawData:  raw,
	}
}

// resolveDate derives the calendar day from the record's start timestamp.
// A record without one is filed under the ingestion day; late-arriving
// dateless events therefore land on "today" rather than their true day,
// a known approximation.
func (n *Normalizer) resolveDate(startTime string) time.Time {
	if ts := parseTimestamp(startTime); ts != nil {
		return domain.Day(*ts)
	}
	return domain.Day(n.now())
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}

func secondsToMinutes(seconds *float64) *int64 {
	if seconds == nil {
		return nil
	}
	minutes := int64(*seconds / 60)
	return &minutes
}

func zeroIfNil(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
