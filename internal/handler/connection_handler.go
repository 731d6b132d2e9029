package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalbite/wearable-sync/internal/dto"
	"github.com/vitalbite/wearable-sync/internal/repository"
	"github.com/vitalbite/wearable-sync/internal/service"
)

// ConnectionHandler handles provider connection requests from the UI backend
type ConnectionHandler struct {
	connectionService service.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
	}
}

// Connect handles widget session generation
// @Summary Start connecting a wearable provider
// @Description Generates a hosted-authorization session and returns the redirect URL
// @Tags wearables
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.ConnectRequest true "Connect request"
// @Success 200 {object} dto.ConnectResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /wearables/connect [post]
func (h *ConnectionHandler) Connect(c *gin.Context) {
	var req dto.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if !h.authorized(c, req.UserID) {
		return
	}

	session, err := h.connectionService.Connect(c.Request.Context(), req.UserID, req.Providers)
	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			c.JSON(http.StatusBadGateway, dto.ErrorResponse{
				Error:   "Bad gateway",
				Message: "aggregation provider is unavailable",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ConnectResponse{
		URL:       session.URL,
		SessionID: session.SessionID,
		ExpiresIn: session.ExpiresIn,
	})
}

// Disconnect handles provider disconnection
// @Summary Disconnect a wearable provider
// @Description Revokes the remote authorization best-effort and marks the local connection disconnected
// @Tags wearables
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.DisconnectRequest true "Disconnect request"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /wearables/disconnect [post]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	var req dto.DisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	if !h.authorized(c, req.UserID) {
		return
	}

	err := h.connectionService.Disconnect(c.Request.Context(), req.UserID, req.Provider)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "Not found",
				Message: "no connection exists for this provider",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// List handles listing a user's provider connections
// @Summary List wearable connections
// @Tags wearables
// @Security BearerAuth
// @Produce json
// @Success 200 {array} domain.ConnectedProvider
// @Failure 400 {object} dto.ErrorResponse
// @Router /wearables/connections [get]
func (h *ConnectionHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "user_id is required",
		})
		return
	}

	if !h.authorized(c, userID) {
		return
	}

	connections, err := h.connectionService.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, connections)
}

// authorized checks that the request body's subject matches the token subject
func (h *ConnectionHandler) authorized(c *gin.Context, userID string) bool {
	tokenUser, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "User ID not found in context",
		})
		return false
	}

	if tokenUser.(string) != userID {
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:   "Forbidden",
			Message: "subject does not match authenticated user",
		})
		return false
	}

	return true
}
