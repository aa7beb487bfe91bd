package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appresence "huddle/internal/application/presence"
	approom "huddle/internal/application/room"
	apptask "huddle/internal/application/task"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/logger"
)

type fakeRooms struct {
	result    *approom.Result
	err       error
	abolished [][2]string // userSID, roomSID
}

func (f *fakeRooms) Create(ctx context.Context, cmd approom.CreateCommand) (*approom.Result, error) {
	return f.result, f.err
}

func (f *fakeRooms) Join(ctx context.Context, cmd approom.JoinCommand) (*approom.Result, error) {
	return f.result, f.err
}

func (f *fakeRooms) Abolish(ctx context.Context, userSID, roomSID string) error {
	if f.err != nil {
		return f.err
	}
	f.abolished = append(f.abolished, [2]string{userSID, roomSID})
	return nil
}

type fakeBoard struct {
	payloads []*apptask.Payload
	err      error
}

func (f *fakeBoard) ListByRoomCode(ctx context.Context, roomCode string) ([]*apptask.Payload, error) {
	return f.payloads, f.err
}

type fakeVerifier struct {
	claims *appresence.TokenClaims
}

func (f *fakeVerifier) VerifyToken(token string) (*appresence.TokenClaims, error) {
	if f.claims == nil {
		return nil, errors.NewAuthError("invalid or expired token")
	}
	return f.claims, nil
}

func setupRouter(rooms *fakeRooms, board *fakeBoard, verifier *fakeVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewRoomHandler(rooms, board, verifier, logger.NewLogger())

	engine := gin.New()
	api := engine.Group("/api/v1/rooms")
	api.POST("/create", handler.Create)
	api.POST("/join", handler.Join)
	api.POST("/abolish", handler.Abolish)
	api.GET("/:code/tasks", handler.Tasks)
	return engine
}

func okResult() *approom.Result {
	return &approom.Result{
		RoomSID:   "room_abc00000001",
		RoomCode:  "ABC234",
		RoomName:  "Engineering",
		UserSID:   "usr_alice0000001",
		Token:     "minted-token",
		ExpiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRoomHandler_Create(t *testing.T) {
	rooms := &fakeRooms{result: okResult()}
	engine := setupRouter(rooms, &fakeBoard{}, &fakeVerifier{})

	body, _ := json.Marshal(map[string]string{"roomName": "Engineering", "username": "Alice"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/create", bytes.NewReader(body))
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			RoomCode string `json:"roomCode"`
			Token    string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ABC234", resp.Data.RoomCode)
	assert.Equal(t, "minted-token", resp.Data.Token)
}

func TestRoomHandler_CreateMissingFields(t *testing.T) {
	engine := setupRouter(&fakeRooms{result: okResult()}, &fakeBoard{}, &fakeVerifier{})

	body, _ := json.Marshal(map[string]string{"roomName": "Engineering"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/create", bytes.NewReader(body))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoomHandler_JoinUnknownRoom(t *testing.T) {
	rooms := &fakeRooms{err: errors.NewNotFoundError("room not found or expired")}
	engine := setupRouter(rooms, &fakeBoard{}, &fakeVerifier{})

	body, _ := json.Marshal(map[string]string{"roomCode": "ZZZZ22", "username": "Bob"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/join", bytes.NewReader(body))
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomHandler_AbolishRequiresToken(t *testing.T) {
	rooms := &fakeRooms{}
	engine := setupRouter(rooms, &fakeBoard{}, &fakeVerifier{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/abolish", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, rooms.abolished)
}

func TestRoomHandler_Abolish(t *testing.T) {
	rooms := &fakeRooms{}
	verifier := &fakeVerifier{claims: &appresence.TokenClaims{
		UserSID: "usr_alice0000001",
		RoomSID: "room_abc00000001",
	}}
	engine := setupRouter(rooms, &fakeBoard{}, verifier)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/abolish", nil)
	req.Header.Set("Authorization", "Bearer minted-token")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, rooms.abolished, 1)
	assert.Equal(t, [2]string{"usr_alice0000001", "room_abc00000001"}, rooms.abolished[0])
}

func TestRoomHandler_Tasks(t *testing.T) {
	board := &fakeBoard{payloads: []*apptask.Payload{
		{ID: "task_one00000001", Title: "One", Status: "todo", Column: "To Do"},
	}}
	engine := setupRouter(&fakeRooms{}, board, &fakeVerifier{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/ABC234/tasks", nil)
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "One", resp.Data[0].Title)
}
