package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appchat "huddle/internal/application/chat"
	appresence "huddle/internal/application/presence"
	appsignal "huddle/internal/application/signal"
	domain "huddle/internal/domain/presence"
	roomdomain "huddle/internal/domain/room"
	"huddle/internal/infrastructure/cache"
	"huddle/internal/infrastructure/services"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/logger"
)

type stubResolver struct {
	identity *appresence.ResolvedIdentity
}

func (r *stubResolver) ResolveByCredentials(ctx context.Context, displayName, avatarTag, roomCode string) (*appresence.ResolvedIdentity, error) {
	if r.identity == nil {
		return nil, errors.NewAuthError("room not found or expired")
	}
	return r.identity, nil
}

func (r *stubResolver) ResolveByToken(ctx context.Context, token string) (*appresence.ResolvedIdentity, error) {
	if r.identity == nil {
		return nil, errors.NewAuthError("invalid or expired token")
	}
	return r.identity, nil
}

type stubLedger struct{}

func (stubLedger) Finalize(ctx context.Context, userSID string) (*roomdomain.WorkReport, error) {
	return nil, nil
}

type stubRooms struct {
	abolished []string
}

func (r *stubRooms) Abolish(ctx context.Context, userSID, roomSID string) error {
	r.abolished = append(r.abolished, roomSID)
	return nil
}

func (r *stubRooms) ResolveActive(ctx context.Context, roomCode string) (*roomdomain.Room, error) {
	rm, err := roomdomain.NewRoom("Engineering", "usr_creator00001", 24)
	if err != nil {
		return nil, err
	}
	rm.Code = roomCode
	return rm, nil
}

type stubVerifier struct {
	claims *appresence.TokenClaims
}

func (v *stubVerifier) VerifyToken(token string) (*appresence.TokenClaims, error) {
	if v.claims == nil {
		return nil, errors.NewAuthError("invalid or expired token")
	}
	return v.claims, nil
}

type handlerFixture struct {
	handler  *Handler
	hub      *services.Hub
	store    *cache.MemorySessionStore
	resolver *stubResolver
	rooms    *stubRooms
	verifier *stubVerifier
}

func setupHandler(t *testing.T) *handlerFixture {
	t.Helper()

	log := logger.NewLogger()
	hub := services.NewHub(log)
	store := cache.NewMemorySessionStore()
	zones := domain.NewZoneIndex()
	resolver := &stubResolver{}
	rooms := &stubRooms{}
	verifier := &stubVerifier{}

	engine := appresence.NewEngine(store, zones, hub, resolver, stubLedger{}, log)
	chatSvc := appchat.NewService(store, hub, log)
	signalRelay := appsignal.NewRelay(store, hub, log)

	return &handlerFixture{
		handler:  NewHandler(hub, engine, store, chatSvc, nil, signalRelay, rooms, verifier, log),
		hub:      hub,
		store:    store,
		resolver: resolver,
		rooms:    rooms,
		verifier: verifier,
	}
}

func frame(t *testing.T, event string, data any) inboundFrame {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return inboundFrame{Event: event, Data: raw}
}

// drain decodes every frame queued on the connection's send channel.
func drain(t *testing.T, conn *services.WSConn) []services.Envelope {
	t.Helper()
	var out []services.Envelope
	for {
		select {
		case raw := <-conn.Send:
			var env services.Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func eventNames(envelopes []services.Envelope) []string {
	names := make([]string, 0, len(envelopes))
	for _, env := range envelopes {
		names = append(names, env.Event)
	}
	return names
}

func TestHandler_AnonymousJoin(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventJoinRoom, map[string]string{"username": "Alice"}))

	session, err := fx.store.Get(context.Background(), "conn-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Empty(t, session.RoomCode)

	// anonymous joiners get the roster but no token handback
	names := eventNames(drain(t, conn))
	assert.Equal(t, []string{appresence.EventCurrentRoster}, names)
}

func TestHandler_CredentialJoinHandsBackToken(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")
	fx.resolver.identity = &appresence.ResolvedIdentity{
		UserSID:     "usr_alice0000001",
		RoomSID:     "room_abc00000001",
		RoomCode:    "ABC234",
		DisplayName: "Alice",
		Token:       "minted-token",
	}

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventJoinRoom, map[string]string{
		"username": "Alice",
		"roomCode": "ABC234",
	}))

	envelopes := drain(t, conn)
	names := eventNames(envelopes)
	require.Equal(t, []string{appresence.EventCurrentRoster, EventAuthenticated}, names)

	data := envelopes[1].Data.(map[string]any)
	assert.Equal(t, "minted-token", data["token"])
	assert.Equal(t, "ABC234", data["roomCode"])
}

func TestHandler_JoinFailureScopedToSender(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	// credentials with no backing room: the resolver rejects
	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventJoinRoom, map[string]string{
		"username": "Alice",
		"roomCode": "ZZZZ22",
	}))

	names := eventNames(drain(t, conn))
	assert.Equal(t, []string{EventAuthError}, names)

	session, err := fx.store.Get(context.Background(), "conn-1")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestHandler_MoveBeforeJoinIsSilent(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventPlayerMove, map[string]any{
		"x": 10.0, "y": 20.0, "direction": "up",
	}))

	assert.Empty(t, drain(t, conn))
}

func TestHandler_MoveRejectsUnknownDirection(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventPlayerMove, map[string]any{
		"x": 10.0, "y": 20.0, "direction": "sideways",
	}))

	names := eventNames(drain(t, conn))
	assert.Equal(t, []string{EventError}, names)
}

func TestHandler_QuitWithoutJoin(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventQuitRoom, map[string]string{}))

	names := eventNames(drain(t, conn))
	assert.Equal(t, []string{EventError}, names)
}

func TestHandler_UnknownEvent(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	fx.handler.dispatch(context.Background(), "conn-1", inboundFrame{Event: "warp-speed"})

	envelopes := drain(t, conn)
	require.Len(t, envelopes, 1)
	assert.Equal(t, EventError, envelopes[0].Event)
	data := envelopes[0].Data.(map[string]any)
	assert.Equal(t, "unknown event", data["message"])
}

func TestHandler_Authenticate(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")
	fx.verifier.claims = &appresence.TokenClaims{
		UserSID:     "usr_alice0000001",
		RoomCode:    "ABC234",
		DisplayName: "Alice",
	}

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventAuthenticate, map[string]string{"token": "good"}))

	envelopes := drain(t, conn)
	require.Len(t, envelopes, 1)
	assert.Equal(t, EventAuthenticated, envelopes[0].Event)
	data := envelopes[0].Data.(map[string]any)
	assert.Equal(t, "usr_alice0000001", data["userId"])
}

func TestHandler_AuthenticateBadToken(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventAuthenticate, map[string]string{"token": "junk"}))

	names := eventNames(drain(t, conn))
	assert.Equal(t, []string{EventAuthError}, names)
}

func TestHandler_AbolishRequiresIdentity(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	// anonymous session: no durable identity to authorize the abolish
	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventJoinRoom, map[string]string{"username": "Alice"}))
	drain(t, conn)

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventAbolishRoom, map[string]string{"roomCode": "ABC234"}))

	names := eventNames(drain(t, conn))
	assert.Equal(t, []string{EventError}, names)
	assert.Empty(t, fx.rooms.abolished)
}

func TestHandler_Abolish(t *testing.T) {
	fx := setupHandler(t)
	fx.hub.Register("conn-1")
	fx.resolver.identity = &appresence.ResolvedIdentity{
		UserSID:     "usr_alice0000001",
		RoomSID:     "room_abc00000001",
		RoomCode:    "ABC234",
		DisplayName: "Alice",
		Token:       "minted-token",
	}

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventJoinRoom, map[string]string{
		"username": "Alice",
		"roomCode": "ABC234",
	}))

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventAbolishRoom, map[string]string{"roomCode": "ABC234"}))

	assert.Len(t, fx.rooms.abolished, 1)
}

func TestHandler_ChatRoundTrip(t *testing.T) {
	fx := setupHandler(t)
	conn := fx.hub.Register("conn-1")

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventJoinRoom, map[string]string{"username": "Alice"}))
	drain(t, conn)

	fx.handler.dispatch(context.Background(), "conn-1", frame(t, eventSendGlobalChat, map[string]string{"message": "hello"}))

	// scopeless chat echoes to every connection, sender included
	envelopes := drain(t, conn)
	require.Len(t, envelopes, 1)
	assert.Equal(t, appchat.EventReceiveGlobalChat, envelopes[0].Event)
}
