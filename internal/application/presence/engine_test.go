package presence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "huddle/internal/domain/presence"
	"huddle/internal/domain/room"
	"huddle/internal/infrastructure/cache"
	"huddle/internal/shared/errors"
	"huddle/internal/shared/logger"
)

// recordedEvent captures one routed delivery for assertions.
type recordedEvent struct {
	Scope    string // "conn", "room", "room-except", "all", "all-except"
	Target   string // connID or room code
	Exclude  string
	Event    string
	Data     any
}

type fakeRouter struct {
	mu     sync.Mutex
	events []recordedEvent
	subs   map[string]string // connID -> room code
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{subs: make(map[string]string)}
}

func (r *fakeRouter) record(ev recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *fakeRouter) ToConnection(connID, event string, data any) {
	r.record(recordedEvent{Scope: "conn", Target: connID, Event: event, Data: data})
}

func (r *fakeRouter) ToAll(event string, data any) {
	r.record(recordedEvent{Scope: "all", Event: event, Data: data})
}

func (r *fakeRouter) ToAllExceptSender(senderID, event string, data any) {
	r.record(recordedEvent{Scope: "all-except", Exclude: senderID, Event: event, Data: data})
}

func (r *fakeRouter) ToRoom(roomCode, event string, data any) {
	r.record(recordedEvent{Scope: "room", Target: roomCode, Event: event, Data: data})
}

func (r *fakeRouter) ToRoomExceptSender(roomCode, senderID, event string, data any) {
	r.record(recordedEvent{Scope: "room-except", Target: roomCode, Exclude: senderID, Event: event, Data: data})
}

func (r *fakeRouter) Subscribe(connID, roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[connID] = roomCode
}

func (r *fakeRouter) Unsubscribe(connID, roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, connID)
}

func (r *fakeRouter) byEvent(event string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, ev := range r.events {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

type fakeResolver struct {
	identity *ResolvedIdentity
	err      error
}

func (f *fakeResolver) ResolveByCredentials(ctx context.Context, displayName, avatarTag, roomCode string) (*ResolvedIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func (f *fakeResolver) ResolveByToken(ctx context.Context, token string) (*ResolvedIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeLedger struct {
	report    *room.WorkReport
	err       error
	finalized []string
}

func (f *fakeLedger) Finalize(ctx context.Context, userSID string) (*room.WorkReport, error) {
	f.finalized = append(f.finalized, userSID)
	return f.report, f.err
}

type engineFixture struct {
	engine   *Engine
	store    domain.Store
	zones    *domain.ZoneIndex
	router   *fakeRouter
	resolver *fakeResolver
	ledger   *fakeLedger
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	zones := domain.NewZoneIndex()
	zones.Load([]Zone{
		{Name: "spawn-hall", X: 350, Y: 250, Width: 200, Height: 200},
		{Name: "meeting-room", X: 0, Y: 0, Width: 100, Height: 100},
	})

	router := newFakeRouter()
	resolver := &fakeResolver{identity: &ResolvedIdentity{
		UserSID:     "usr_test00000001",
		RoomSID:     "room_test0000001",
		RoomCode:    "ABC234",
		DisplayName: "Alice",
		AvatarTag:   "avatar-1",
		Token:       "token-abc",
	}}
	ledger := &fakeLedger{}
	store := cache.NewMemorySessionStore()

	return &engineFixture{
		engine:   NewEngine(store, zones, router, resolver, ledger, logger.NewLogger()),
		store:    store,
		zones:    zones,
		router:   router,
		resolver: resolver,
		ledger:   ledger,
	}
}

// Zone aliases the domain type so the fixture literal stays readable.
type Zone = domain.Zone

func TestEngine_Join(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	result, err := fx.engine.Join(ctx, "conn-1", JoinCommand{
		RoomCode:    "abc234",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-abc", result.Token)
	assert.Equal(t, "ABC234", result.Session.RoomCode)
	assert.Equal(t, "spawn-hall", result.Session.CurrentZone)

	// joiner gets the roster, the rest of the room gets the announcement
	rosters := fx.router.byEvent(EventCurrentRoster)
	require.Len(t, rosters, 1)
	assert.Equal(t, "conn-1", rosters[0].Target)

	joins := fx.router.byEvent(EventNewUserJoined)
	require.Len(t, joins, 1)
	assert.Equal(t, "room-except", joins[0].Scope)
	assert.Equal(t, "conn-1", joins[0].Exclude)

	// session is live and the connection is subscribed
	session, err := fx.store.Get(ctx, "conn-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "ABC234", fx.router.subs["conn-1"])
}

func TestEngine_Join_AlreadyJoined(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	_, err := fx.engine.Join(ctx, "conn-1", JoinCommand{RoomCode: "ABC234", DisplayName: "Alice"})
	require.NoError(t, err)

	_, err = fx.engine.Join(ctx, "conn-1", JoinCommand{RoomCode: "ABC234", DisplayName: "Alice"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestEngine_Join_MissingDisplayName(t *testing.T) {
	fx := newEngineFixture(t)

	_, err := fx.engine.Join(context.Background(), "conn-1", JoinCommand{RoomCode: "ABC234"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = fx.engine.Join(context.Background(), "conn-1", JoinCommand{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestEngine_Join_AnonymousGlobalScope(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	result, err := fx.engine.Join(ctx, "conn-1", JoinCommand{DisplayName: "Drifter"})
	require.NoError(t, err)
	assert.Empty(t, result.Token)
	assert.Empty(t, result.Session.RoomCode)
	assert.False(t, result.Session.Authenticated())

	// no room subscription; the arrival announcement goes out globally
	assert.Empty(t, fx.router.subs)
	joins := fx.router.byEvent(EventNewUserJoined)
	require.Len(t, joins, 1)
	assert.Equal(t, "all-except", joins[0].Scope)

	// teardown of an anonymous session never touches the ledger
	require.NoError(t, fx.engine.Disconnect(ctx, "conn-1"))
	assert.Empty(t, fx.ledger.finalized)
	left := fx.router.byEvent(EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "all-except", left[0].Scope)
}

func TestEngine_Join_ResolverRejection(t *testing.T) {
	fx := newEngineFixture(t)
	fx.resolver.err = errors.NewAuthError("room not found or expired")

	_, err := fx.engine.Join(context.Background(), "conn-1", JoinCommand{RoomCode: "ZZZZZZ", DisplayName: "Alice"})
	assert.True(t, errors.IsAuth(err))

	// nothing was stored or subscribed
	session, storeErr := fx.store.Get(context.Background(), "conn-1")
	require.NoError(t, storeErr)
	assert.Nil(t, session)
	assert.Empty(t, fx.router.subs)
}

func TestEngine_Move_NeverJoinedIsSilentlyDropped(t *testing.T) {
	fx := newEngineFixture(t)

	err := fx.engine.Move(context.Background(), "conn-ghost", domain.Position{X: 10, Y: 10}, domain.FacingUp)
	require.NoError(t, err)
	assert.Empty(t, fx.router.events)
}

func TestEngine_Move_BroadcastsToRoomExceptSender(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	_, err := fx.engine.Join(ctx, "conn-1", JoinCommand{RoomCode: "ABC234", DisplayName: "Alice"})
	require.NoError(t, err)

	require.NoError(t, fx.engine.Move(ctx, "conn-1", domain.Position{X: 400, Y: 300}, domain.FacingLeft))

	moves := fx.router.byEvent(EventPlayerMoved)
	require.Len(t, moves, 1)
	assert.Equal(t, "room-except", moves[0].Scope)
	assert.Equal(t, "ABC234", moves[0].Target)
	assert.Equal(t, "conn-1", moves[0].Exclude)

	payload, ok := moves[0].Data.(MovedPayload)
	require.True(t, ok)
	assert.Equal(t, float64(400), payload.Position.X)
	assert.Equal(t, domain.FacingLeft, payload.Direction)
	assert.True(t, payload.IsMoving)
}

func TestEngine_Move_ZoneTransitions(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	_, err := fx.engine.Join(ctx, "conn-1", JoinCommand{RoomCode: "ABC234", DisplayName: "Alice"})
	require.NoError(t, err)

	// spawn-hall -> meeting-room: one transition event
	require.NoError(t, fx.engine.Move(ctx, "conn-1", domain.Position{X: 50, Y: 50}, domain.FacingUp))

	changes := fx.router.byEvent(EventRoomChanged)
	require.Len(t, changes, 1)
	payload := changes[0].Data.(RoomChangedPayload)
	assert.Equal(t, "meeting-room", payload.Entered)
	assert.Equal(t, "spawn-hall", payload.Left)

	// moving within the same zone emits nothing new
	require.NoError(t, fx.engine.Move(ctx, "conn-1", domain.Position{X: 60, Y: 60}, domain.FacingUp))
	assert.Len(t, fx.router.byEvent(EventRoomChanged), 1)

	// leaving into open space: entered is empty, left is set
	require.NoError(t, fx.engine.Move(ctx, "conn-1", domain.Position{X: 900, Y: 900}, domain.FacingUp))
	changes = fx.router.byEvent(EventRoomChanged)
	require.Len(t, changes, 2)
	payload = changes[1].Data.(RoomChangedPayload)
	assert.Empty(t, payload.Entered)
	assert.Equal(t, "meeting-room", payload.Left)
}

func TestEngine_Quit_NotJoined(t *testing.T) {
	fx := newEngineFixture(t)

	err := fx.engine.Quit(context.Background(), "conn-ghost")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Empty(t, fx.router.events)
	assert.Empty(t, fx.ledger.finalized)
}

func TestEngine_Quit_ScopelessSessionRejected(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	_, err := fx.engine.Join(ctx, "conn-1", JoinCommand{DisplayName: "Drifter"})
	require.NoError(t, err)

	err = fx.engine.Quit(ctx, "conn-1")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	// the session survives untouched and nobody hears a departure
	session, getErr := fx.store.Get(ctx, "conn-1")
	require.NoError(t, getErr)
	require.NotNil(t, session)
	assert.Empty(t, fx.router.byEvent(EventUserLeft))
	assert.Empty(t, fx.ledger.finalized)
}

func TestEngine_QuitFinalizesAndAnnounces(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()
	fx.ledger.report = &room.WorkReport{
		TotalMinutes: 300,
		Category:     room.WorkCategoryFull,
		DisplayText:  "5h 0m (Full Day)",
	}

	_, err := fx.engine.Join(ctx, "conn-1", JoinCommand{RoomCode: "ABC234", DisplayName: "Alice"})
	require.NoError(t, err)

	require.NoError(t, fx.engine.Quit(ctx, "conn-1"))

	session, err := fx.store.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, fx.router.subs)
	assert.Equal(t, []string{"usr_test00000001"}, fx.ledger.finalized)

	// the room hears about the departure, and the leaver gets a confirmation
	left := fx.router.byEvent(EventUserLeft)
	require.Len(t, left, 2)
	assert.Equal(t, "room-except", left[0].Scope)
	assert.Equal(t, "ABC234", left[0].Target)
	assert.Equal(t, "conn", left[1].Scope)
	assert.Equal(t, "conn-1", left[1].Target)

	payload := left[0].Data.(UserLeftPayload)
	assert.Equal(t, "conn-1", payload.ConnID)
	assert.Equal(t, "5h 0m (Full Day)", payload.WorkTime)
}

func TestEngine_DisconnectIsIdempotent(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()

	_, err := fx.engine.Join(ctx, "conn-1", JoinCommand{RoomCode: "ABC234", DisplayName: "Alice"})
	require.NoError(t, err)

	require.NoError(t, fx.engine.Disconnect(ctx, "conn-1"))
	require.Len(t, fx.router.byEvent(EventUserLeft), 1)

	// second disconnect: no session, no events, no ledger call
	require.NoError(t, fx.engine.Disconnect(ctx, "conn-1"))
	assert.Len(t, fx.router.byEvent(EventUserLeft), 1)
	assert.Len(t, fx.ledger.finalized, 1)

	// disconnect of a never-joined connection is also a no-op
	require.NoError(t, fx.engine.Disconnect(ctx, "conn-never"))
}

func TestEngine_FinalizeFailureDoesNotBlockTeardown(t *testing.T) {
	fx := newEngineFixture(t)
	ctx := context.Background()
	fx.ledger.err = errors.NewInternalError("database unavailable")

	_, err := fx.engine.Join(ctx, "conn-1", JoinCommand{RoomCode: "ABC234", DisplayName: "Alice"})
	require.NoError(t, err)

	require.NoError(t, fx.engine.Disconnect(ctx, "conn-1"))

	session, err := fx.store.Get(ctx, "conn-1")
	require.NoError(t, err)
	assert.Nil(t, session)

	left := fx.router.byEvent(EventUserLeft)
	require.Len(t, left, 1)
	assert.Empty(t, left[0].Data.(UserLeftPayload).WorkTime)
}
