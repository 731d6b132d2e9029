package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/vitalbite/wearable-sync/internal/domain"
)

func (s *Suite) ingest(body []byte) {
	resp := s.postWebhook(body, sign(body))
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *Suite) TestSummaryToday() {
	s.ingest([]byte(`{
		"type": "activity",
		"user": {"reference_id": "user-1", "provider": "GARMIN"},
		"data": [{
			"metadata": {"start_time": "2024-01-10T08:00:00Z"},
			"distance_data": {"steps": 8000},
			"calories_data": {"total_burned_calories": 350.0}
		}]
	}`))
	s.ingest([]byte(`{
		"type": "sleep",
		"user": {"reference_id": "user-1", "provider": "OURA"},
		"data": [{
			"metadata": {"start_time": "2024-01-10T06:30:00Z"},
			"sleep_durations_data": {"asleep": {"duration_asleep_state_seconds": 27000}}
		}]
	}`))

	resp := s.authorizedRequest(http.MethodGet, "/api/v1/summary/today?user_id=user-1&date=2024-01-10", "user-1", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var summary domain.DailySummary
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&summary))

	s.Equal(int64(8000), summary.Steps)
	s.Equal(350.0, summary.CaloriesBurned)
	s.Equal(7.5, summary.SleepHours)
	s.Equal(2, summary.Entries)
}

func (s *Suite) TestSummaryToday_EmptyDay() {
	resp := s.authorizedRequest(http.MethodGet, "/api/v1/summary/today?user_id=user-1&date=2024-01-10", "user-1", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var summary domain.DailySummary
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&summary))
	s.Zero(summary.Steps)
	s.Zero(summary.Entries)
}

func (s *Suite) TestSummaryWeekly() {
	s.ingest([]byte(`{
		"type": "activity",
		"user": {"reference_id": "user-1", "provider": "GARMIN"},
		"data": [{
			"metadata": {"start_time": "2024-01-09T08:00:00Z"},
			"distance_data": {"steps": 8000}
		}]
	}`))
	s.ingest([]byte(`{
		"type": "activity",
		"user": {"reference_id": "user-1", "provider": "GARMIN"},
		"data": [{
			"metadata": {"start_time": "2024-01-10T08:00:00Z"},
			"distance_data": {"steps": 4000}
		}]
	}`))

	resp := s.authorizedRequest(http.MethodGet, "/api/v1/summary/weekly?user_id=user-1&end=2024-01-10", "user-1", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var summary domain.WeeklySummary
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&summary))

	s.Equal(2, summary.DaysWithData)
	s.Equal(6000.0, summary.AvgSteps)
}

func (s *Suite) TestSummary_CacheInvalidatedByNewData() {
	s.ingest([]byte(`{
		"type": "activity",
		"user": {"reference_id": "user-1", "provider": "GARMIN"},
		"data": [{
			"metadata": {"start_time": "2024-01-10T08:00:00Z"},
			"distance_data": {"steps": 1000}
		}]
	}`))

	// prime the cache
	resp := s.authorizedRequest(http.MethodGet, "/api/v1/summary/today?user_id=user-1&date=2024-01-10", "user-1", nil)
	resp.Body.Close()

	// new data for the same day must be visible immediately
	s.ingest([]byte(`{
		"type": "activity",
		"user": {"reference_id": "user-1", "provider": "GARMIN"},
		"data": [{
			"metadata": {"start_time": "2024-01-10T08:00:00Z"},
			"distance_data": {"steps": 5000}
		}]
	}`))

	resp = s.authorizedRequest(http.MethodGet, "/api/v1/summary/today?user_id=user-1&date=2024-01-10", "user-1", nil)
	defer resp.Body.Close()

	var summary domain.DailySummary
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&summary))
	s.Equal(int64(5000), summary.Steps)
}

func (s *Suite) TestSummary_InvalidDate() {
	resp := s.authorizedRequest(http.MethodGet, "/api/v1/summary/today?user_id=user-1&date=10-01-2024", "user-1", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestSummary_RejectsForeignSubject() {
	resp := s.authorizedRequest(http.MethodGet, "/api/v1/summary/today?user_id=user-1", "user-2", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)
}
