// Package handlers contains the HTTP handlers for the room lifecycle and the
// read-side task board. Live presence never flows through here; the websocket
// transport owns that.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appresence "huddle/internal/application/presence"
	approom "huddle/internal/application/room"
	apptask "huddle/internal/application/task"
	"huddle/internal/shared/logger"
	"huddle/internal/shared/utils"
)

// roomLifecycle is the handler's view of the room application service.
type roomLifecycle interface {
	Create(ctx context.Context, cmd approom.CreateCommand) (*approom.Result, error)
	Join(ctx context.Context, cmd approom.JoinCommand) (*approom.Result, error)
	Abolish(ctx context.Context, userSID, roomSID string) error
}

// taskBoard loads a room's board for the HTTP read side.
type taskBoard interface {
	ListByRoomCode(ctx context.Context, roomCode string) ([]*apptask.Payload, error)
}

// tokenVerifier checks bearer tokens on authenticated endpoints.
type tokenVerifier interface {
	VerifyToken(token string) (*appresence.TokenClaims, error)
}

type RoomHandler struct {
	rooms  roomLifecycle
	tasks  taskBoard
	tokens tokenVerifier
	logger logger.Interface
}

func NewRoomHandler(rooms roomLifecycle, tasks taskBoard, tokens tokenVerifier, log logger.Interface) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		tasks:  tasks,
		tokens: tokens,
		logger: log,
	}
}

type createRoomRequest struct {
	RoomName string `json:"roomName" binding:"required"`
	Username string `json:"username" binding:"required"`
	Avatar   string `json:"avatar"`
}

type joinRoomRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
	Username string `json:"username" binding:"required"`
	Avatar   string `json:"avatar"`
}

type roomResponse struct {
	RoomID    string    `json:"roomId"`
	RoomCode  string    `json:"roomCode"`
	RoomName  string    `json:"roomName"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toRoomResponse(result *approom.Result) roomResponse {
	return roomResponse{
		RoomID:    result.RoomSID,
		RoomCode:  result.RoomCode,
		RoomName:  result.RoomName,
		UserID:    result.UserSID,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}

// Create opens a new room and returns the creator's identity and token.
// POST /api/v1/rooms/create
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.rooms.Create(c.Request.Context(), approom.CreateCommand{
		RoomName:    req.RoomName,
		DisplayName: req.Username,
		AvatarTag:   req.Avatar,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, toRoomResponse(result))
}

// Join validates a room code and mints a token for the socket join.
// POST /api/v1/rooms/join
func (h *RoomHandler) Join(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.rooms.Join(c.Request.Context(), approom.JoinCommand{
		RoomCode:    req.RoomCode,
		DisplayName: req.Username,
		AvatarTag:   req.Avatar,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", toRoomResponse(result))
}

// Abolish shuts down the room named by the caller's bearer token. The token
// pins both the identity and the room, so the body carries nothing.
// POST /api/v1/rooms/abolish
func (h *RoomHandler) Abolish(c *gin.Context) {
	claims, ok := h.bearerClaims(c)
	if !ok {
		return
	}

	if err := h.rooms.Abolish(c.Request.Context(), claims.UserSID, claims.RoomSID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// Tasks returns a room's board in creation order, so clients can render it
// before any socket traffic arrives.
// GET /api/v1/rooms/:code/tasks
func (h *RoomHandler) Tasks(c *gin.Context) {
	payloads, err := h.tasks.ListByRoomCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", payloads)
}

func (h *RoomHandler) bearerClaims(c *gin.Context) (*appresence.TokenClaims, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	claims, err := h.tokens.VerifyToken(token)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return nil, false
	}
	return claims, true
}
