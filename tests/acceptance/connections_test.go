package acceptance

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vitalbite/wearable-sync/internal/domain"
	"github.com/vitalbite/wearable-sync/internal/dto"
)

func (s *Suite) authorizedRequest(method, path, userID string, payload any) *http.Response {
	var body bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}

	req, err := http.NewRequest(method, s.App.BaseURL+path, &body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.App.MintToken(userID))

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) connectProvider(userID, provider, externalUserID string) {
	body := []byte(`{"type": "auth", "user": {"reference_id": "` + userID + `", "provider": "` + provider + `", "user_id": "` + externalUserID + `"}}`)
	resp := s.postWebhook(body, sign(body))
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *Suite) TestConnect_ReturnsWidgetSession() {
	resp := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/connect", "user-1", dto.ConnectRequest{
		UserID:    "user-1",
		Providers: []string{"GARMIN"},
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var out dto.ConnectResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	s.NotEmpty(out.URL)
	s.NotEmpty(out.SessionID)
	s.NotZero(out.ExpiresIn)
}

func (s *Suite) TestConnect_UpstreamFailure() {
	s.App.Provider.FailSessions(errors.New("upstream down"))

	resp := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/connect", "user-1", dto.ConnectRequest{UserID: "user-1"})
	defer resp.Body.Close()

	s.Equal(http.StatusBadGateway, resp.StatusCode)
}

func (s *Suite) TestConnect_RequiresToken() {
	body, _ := json.Marshal(dto.ConnectRequest{UserID: "user-1"})
	resp, err := http.Post(s.App.BaseURL+"/api/v1/wearables/connect", "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestConnect_RejectsForeignSubject() {
	resp := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/connect", "user-2", dto.ConnectRequest{UserID: "user-1"})
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestDisconnect() {
	s.connectProvider("user-1", "GARMIN", "terra-garmin-1")

	resp := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/disconnect", "user-1", dto.DisconnectRequest{
		UserID:   "user-1",
		Provider: "GARMIN",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal([]string{"terra-garmin-1"}, s.App.Provider.DeauthCalls)

	var status string
	err := s.Postgres.DB.QueryRow(
		"SELECT status FROM connected_providers WHERE user_id = 'user-1' AND provider = 'GARMIN'",
	).Scan(&status)
	s.Require().NoError(err)
	s.Equal("disconnected", status)
}

func (s *Suite) TestDisconnect_RemoteFailureStillDisconnects() {
	s.connectProvider("user-1", "GARMIN", "terra-garmin-1")
	s.App.Provider.FailDeauth(errors.New("upstream down"))

	resp := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/disconnect", "user-1", dto.DisconnectRequest{
		UserID:   "user-1",
		Provider: "GARMIN",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode, "Local disconnect must succeed when the provider is unreachable")

	var status string
	err := s.Postgres.DB.QueryRow(
		"SELECT status FROM connected_providers WHERE user_id = 'user-1' AND provider = 'GARMIN'",
	).Scan(&status)
	s.Require().NoError(err)
	s.Equal("disconnected", status)
}

func (s *Suite) TestDisconnect_Repeatable() {
	s.connectProvider("user-1", "GARMIN", "terra-garmin-1")

	resp1 := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/disconnect", "user-1", dto.DisconnectRequest{UserID: "user-1", Provider: "GARMIN"})
	resp1.Body.Close()
	resp2 := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/disconnect", "user-1", dto.DisconnectRequest{UserID: "user-1", Provider: "GARMIN"})
	defer resp2.Body.Close()

	s.Equal(http.StatusOK, resp2.StatusCode)
}

func (s *Suite) TestDisconnect_UnknownConnection() {
	resp := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/disconnect", "user-1", dto.DisconnectRequest{
		UserID:   "user-1",
		Provider: "GARMIN",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestDisconnect_MissingProvider() {
	resp := s.authorizedRequest(http.MethodPost, "/api/v1/wearables/disconnect", "user-1", map[string]string{"user_id": "user-1"})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestListConnections() {
	s.connectProvider("user-1", "GARMIN", "terra-garmin-1")
	s.connectProvider("user-1", "FITBIT", "terra-fitbit-1")

	resp := s.authorizedRequest(http.MethodGet, "/api/v1/wearables/connections?user_id=user-1", "user-1", nil)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var connections []domain.ConnectedProvider
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&connections))
	s.Len(connections, 2)
}
