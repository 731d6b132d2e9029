package acceptance

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/vitalbite/wearable-sync/internal/dto"
)

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Suite) postWebhook(body []byte, signature string) *http.Response {
	req, err := http.NewRequest(http.MethodPost, s.App.BaseURL+"/api/v1/webhooks/terra", bytes.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("terra-signature", signature)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) decodeWebhookResponse(resp *http.Response) dto.WebhookResponse {
	defer resp.Body.Close()
	var out dto.WebhookResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func activityBody(userID string) []byte {
	return []byte(`{
		"type": "activity",
		"user": {"reference_id": "` + userID + `", "provider": "GARMIN", "user_id": "terra-garmin-1"},
		"data": [{
			"metadata": {"start_time": "2024-01-10T08:00:00Z"},
			"distance_data": {"steps": 8000, "distance_meters": 6200.5},
			"calories_data": {"total_burned_calories": 350.0}
		}]
	}`)
}

func (s *Suite) TestWebhook_Activity() {
	body := activityBody("user-1")

	resp := s.postWebhook(body, sign(body))
	s.Equal(http.StatusOK, resp.StatusCode)

	out := s.decodeWebhookResponse(resp)
	s.True(out.Received)
	s.True(out.Updated)
	s.Equal(1, out.Items)

	var steps int64
	err := s.Postgres.DB.QueryRow(
		"SELECT steps FROM health_entries WHERE user_id = $1 AND provider = $2 AND data_type = 'activity'",
		"user-1", "GARMIN",
	).Scan(&steps)
	s.Require().NoError(err)
	s.Equal(int64(8000), steps)
}

func (s *Suite) TestWebhook_MissingSignature() {
	resp := s.postWebhook(activityBody("user-1"), "")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var count int
	err := s.Postgres.DB.QueryRow("SELECT COUNT(*) FROM health_entries").Scan(&count)
	s.Require().NoError(err)
	s.Zero(count, "Unverified webhook must not persist anything")
}

func (s *Suite) TestWebhook_InvalidSignature() {
	resp := s.postWebhook(activityBody("user-1"), "deadbeef")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestWebhook_RedeliveryIsIdempotent() {
	body := activityBody("user-1")

	resp1 := s.postWebhook(body, sign(body))
	resp1.Body.Close()
	resp2 := s.postWebhook(body, sign(body))
	resp2.Body.Close()

	var count int
	err := s.Postgres.DB.QueryRow("SELECT COUNT(*) FROM health_entries WHERE user_id = 'user-1'").Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count, "Redelivery must merge into the existing row")
}

func (s *Suite) TestWebhook_PartialUpdatePreservesStoredFields() {
	full := []byte(`{
		"type": "sleep",
		"user": {"reference_id": "user-1", "provider": "OURA"},
		"data": [{
			"metadata": {"start_time": "2024-01-09T22:30:00Z"},
			"sleep_durations_data": {"asleep": {"duration_asleep_state_seconds": 27000}},
			"sleep_score": 82
		}]
	}`)
	partial := []byte(`{
		"type": "sleep",
		"user": {"reference_id": "user-1", "provider": "OURA"},
		"data": [{
			"metadata": {"start_time": "2024-01-09T22:30:00Z"},
			"sleep_durations_data": {"asleep": {"duration_asleep_state_seconds": 28800}}
		}]
	}`)

	resp1 := s.postWebhook(full, sign(full))
	resp1.Body.Close()
	resp2 := s.postWebhook(partial, sign(partial))
	resp2.Body.Close()

	var totalMinutes int64
	var score float64
	err := s.Postgres.DB.QueryRow(
		"SELECT total_sleep_minutes, sleep_score FROM health_entries WHERE user_id = 'user-1' AND data_type = 'sleep'",
	).Scan(&totalMinutes, &score)
	s.Require().NoError(err)

	s.Equal(int64(480), totalMinutes, "Supplied field must be updated")
	s.Equal(82.0, score, "Omitted field must keep its stored value")
}

func (s *Suite) TestWebhook_AuthEventEstablishesConnection() {
	body := []byte(`{"type": "auth", "user": {"reference_id": "user-1", "provider": "FITBIT", "user_id": "terra-fitbit-1"}}`)

	resp := s.postWebhook(body, sign(body))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var status, externalUserID string
	err := s.Postgres.DB.QueryRow(
		"SELECT status, external_user_id FROM connected_providers WHERE user_id = 'user-1' AND provider = 'FITBIT'",
	).Scan(&status, &externalUserID)
	s.Require().NoError(err)
	s.Equal("active", status)
	s.Equal("terra-fitbit-1", externalUserID)
}

func (s *Suite) TestWebhook_DeauthEventRevokesConnection() {
	auth := []byte(`{"type": "auth", "user": {"reference_id": "user-1", "provider": "FITBIT", "user_id": "terra-fitbit-1"}}`)
	resp := s.postWebhook(auth, sign(auth))
	resp.Body.Close()

	deauth := []byte(`{"type": "deauth", "user": {"reference_id": "user-1", "provider": "FITBIT"}}`)
	resp = s.postWebhook(deauth, sign(deauth))
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var status string
	err := s.Postgres.DB.QueryRow(
		"SELECT status FROM connected_providers WHERE user_id = 'user-1' AND provider = 'FITBIT'",
	).Scan(&status)
	s.Require().NoError(err)
	s.Equal("disconnected", status)
}

func (s *Suite) TestWebhook_DataCreatesConnectionWhenAuthWasNeverSeen() {
	body := activityBody("user-1")
	resp := s.postWebhook(body, sign(body))
	resp.Body.Close()

	var status string
	err := s.Postgres.DB.QueryRow(
		"SELECT status FROM connected_providers WHERE user_id = 'user-1' AND provider = 'GARMIN'",
	).Scan(&status)
	s.Require().NoError(err)
	s.Equal("active", status, "Arriving data implies an established connection")
}

func (s *Suite) TestWebhook_UnknownTypeAcknowledged() {
	body := []byte(`{"type": "menstruation", "user": {"reference_id": "user-1", "provider": "GARMIN"}, "data": []}`)

	resp := s.postWebhook(body, sign(body))
	s.Equal(http.StatusOK, resp.StatusCode)

	out := s.decodeWebhookResponse(resp)
	s.True(out.Received)
	s.False(out.Updated)
}

func (s *Suite) TestWebhook_UnattributableAcknowledged() {
	body := []byte(`{"type": "activity", "user": {"provider": "GARMIN", "user_id": "terra-unknown"}, "data": [{}]}`)

	resp := s.postWebhook(body, sign(body))
	s.Equal(http.StatusOK, resp.StatusCode)

	out := s.decodeWebhookResponse(resp)
	s.True(out.Received)
	s.False(out.Updated)
	s.Equal("unattributable", out.Reason)
}
