package domain

import "encoding/json"

// EventType is the discriminator the aggregation provider sets on each webhook.
// Providers add new types over time; anything not listed here is classified as
// EventTypeUnknown and acknowledged without processing.
type EventType string

const (
	EventTypeAuth     EventType = "auth"
	EventTypeDeauth   EventType = "deauth"
	EventTypeActivity EventType = "activity"
	EventTypeSleep    EventType = "sleep"
	EventTypeBody     EventType = "body"
	EventTypeDaily    EventType = "daily"
	EventTypeUnknown  EventType = "unknown"
)

// Classify maps a raw webhook type string onto a known event type
func Classify(raw string) EventType {
	switch EventType(raw) {
	case EventTypeAuth, EventTypeDeauth, EventTypeActivity, EventTypeSleep, EventTypeBody, EventTypeDaily:
		return EventType(raw)
	default:
		return EventTypeUnknown
	}
}

// WebhookEnvelope is the outer shape of every inbound webhook. It exists only
// for the duration of one request and is never persisted.
type WebhookEnvelope struct {
	Type string            `json:"type"`
	User EnvelopeUser      `json:"user"`
	Data []json.RawMessage `json:"data"`
}

// EnvelopeUser identifies the subject of a webhook. ReferenceID is the id this
// system supplied when the connection was established; UserID is the opaque id
// the aggregation provider assigned.
type EnvelopeUser struct {
	ReferenceID string `json:"reference_id"`
	Provider    string `json:"provider"`
	UserID      string `json:"user_id"`
}

// Attributable reports whether the event can be tied to a local user
func (e WebhookEnvelope) Attributable() bool {
	return e.User.ReferenceID != ""
}

// RecordMetadata is shared by every provider-native data record
type RecordMetadata struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DistanceData carries step and distance figures inside activity records
type DistanceData struct {
	Steps          *int64   `json:"steps"`
	DistanceMeters *float64 `json:"distance_meters"`
}

// CaloriesData carries energy expenditure inside activity records
type CaloriesData struct {
	TotalBurnedCalories *float64 `json:"total_burned_calories"`
}

// ActiveDurationsData carries time spent active inside activity records
type ActiveDurationsData struct {
	ActivitySeconds *float64 `json:"activity_seconds"`
}

// ActivityRecord is the provider-native shape of one activity or daily-summary
// item. Every sub-object is optional upstream.
type ActivityRecord struct {
	Metadata        RecordMetadata       `json:"metadata"`
	DistanceData    *DistanceData        `json:"distance_data"`
	CaloriesData    *CaloriesData        `json:"calories_data"`
	ActiveDurations *ActiveDurationsData `json:"active_durations_data"`
}

// AsleepDurations is the per-stage breakdown of one sleep session
type AsleepDurations struct {
	DeepSeconds  *float64 `json:"duration_deep_sleep_state_seconds"`
	LightSeconds *float64 `json:"duration_light_sleep_state_seconds"`
	RemSeconds   *float64 `json:"duration_REM_sleep_state_seconds"`
	TotalSeconds *float64 `json:"duration_asleep_state_seconds"`
}

// SleepDurationsData carries the stage breakdown plus the efficiency ratio used
// as a fallback when no breakdown is available
type SleepDurationsData struct {
	Asleep          *AsleepDurations `json:"asleep"`
	SleepEfficiency *float64         `json:"sleep_efficiency"`
}

// SleepRecord is the provider-native shape of one sleep item
type SleepRecord struct {
	Metadata       RecordMetadata      `json:"metadata"`
	SleepDurations *SleepDurationsData `json:"sleep_durations_data"`
	SleepScore     *float64            `json:"sleep_score"`
}

// HeartRateSummary carries aggregate heart figures; each field is independently
// nullable upstream
type HeartRateSummary struct {
	AvgHRBpm     *float64 `json:"avg_hr_bpm"`
	RestingHRBpm *float64 `json:"resting_hr_bpm"`
	MaxHRBpm     *float64 `json:"max_hr_bpm"`
	MinHRBpm     *float64 `json:"min_hr_bpm"`
	AvgHRVRmssd  *float64 `json:"avg_hrv_rmssd"`
}

// HeartRateData wraps the heart rate summary inside body records
type HeartRateData struct {
	Summary *HeartRateSummary `json:"summary"`
}

// BodyRecord is the provider-native shape of one body item; only its heart
// subset is ingested
type BodyRecord struct {
	Metadata      RecordMetadata `json:"metadata"`
	HeartRateData *HeartRateData `json:"heart_rate_data"`
}
