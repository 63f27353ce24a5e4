package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/domain/transfer"
	"github.com/rpggio/warmline/internal/livekit"
	"github.com/rpggio/warmline/internal/sqlite"
	"github.com/rpggio/warmline/internal/summary"
)

const (
	testAPIKey    = "WLtest"
	testAPISecret = "integration-secret"
)

// fakeRoomService is an in-process stand-in for the LiveKit server API.
type fakeRoomService struct {
	mu       sync.Mutex
	rooms    map[string]bool
	removed  [][2]string
	failNext bool
}

func newFakeRoomService() *fakeRoomService {
	return &fakeRoomService{rooms: map[string]bool{}}
}

func (f *fakeRoomService) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failNext {
			f.failNext = false
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch {
		case strings.HasSuffix(r.URL.Path, "/CreateRoom"):
			f.rooms[body["name"].(string)] = true
		case strings.HasSuffix(r.URL.Path, "/DeleteRoom"):
			delete(f.rooms, body["room"].(string))
		case strings.HasSuffix(r.URL.Path, "/RemoveParticipant"):
			f.removed = append(f.removed, [2]string{body["room"].(string), body["identity"].(string)})
		default:
			http.Error(w, "unknown rpc", http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	})
}

func (f *fakeRoomService) liveRooms() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rooms))
	for id := range f.rooms {
		out = append(out, id)
	}
	return out
}

func fakeSummaryService(text string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, text)
	})
}

type env struct {
	rooms      *fakeRoomService
	manager    *call.Manager
	machine    *transfer.Machine
	log        *conversation.Log
	issuerKeys grant.Config
}

func newEnv(t *testing.T, summaryHandler http.Handler) *env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	roomService := newFakeRoomService()
	roomSrv := httptest.NewServer(roomService.handler())
	t.Cleanup(roomSrv.Close)

	if summaryHandler == nil {
		summaryHandler = fakeSummaryService("Caller disputes a doubled bill.")
	}
	summarySrv := httptest.NewServer(summaryHandler)
	t.Cleanup(summarySrv.Close)

	keys := grant.Config{APIKey: testAPIKey, APISecret: testAPISecret, DefaultTTL: time.Hour, MaxTTL: 6 * time.Hour}
	issuer, err := grant.NewIssuer(keys)
	require.NoError(t, err)

	media := livekit.NewClient(livekit.Config{URL: roomSrv.URL}, issuer)
	summarizer := summary.NewClient(summary.Config{BaseURL: summarySrv.URL, APIKey: "sk-test"})

	locks := call.NewLockTable()
	registry := room.NewRegistry(sqlite.NewRoomRepository(db), media, room.RegistryConfig{
		EmptyTimeout:  time.Minute,
		RetryInterval: time.Millisecond,
	}, nil)
	callRepo := sqlite.NewCallRepository(db)
	log := conversation.NewLog(sqlite.NewConversationRepository(db), callRepo, locks, nil)
	machine := transfer.NewMachine(
		sqlite.NewTransferRepository(db), callRepo, registry, issuer, log, summarizer, media,
		locks, transfer.MachineConfig{SummaryTimeout: 5 * time.Second}, nil,
	)
	manager := call.NewManager(callRepo, registry, issuer, machine, locks, nil)

	return &env{
		rooms:      roomService,
		manager:    manager,
		machine:    machine,
		log:        log,
		issuerKeys: keys,
	}
}

func (e *env) parseGrant(t *testing.T, g *grant.Grant) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(g.Token, func(*jwt.Token) (any, error) {
		return []byte(e.issuerKeys.APISecret), nil
	})
	require.NoError(t, err)
	return parsed.Claims.(jwt.MapClaims)
}

func seedConversation(t *testing.T, e *env, callID string) {
	t.Helper()
	ctx := context.Background()
	for _, line := range [][2]string{
		{"caller-1", "my bill doubled this month"},
		{"agent-a", "let me pull up your account"},
	} {
		_, err := e.log.Append(ctx, callID, line[0], line[1])
		require.NoError(t, err)
	}
}

func TestWarmTransferEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	// Caller opens the call; the original room exists in the media transport.
	initiated, err := e.manager.InitiateCall(ctx, "caller-1")
	require.NoError(t, err)
	callID := initiated.Call.ID
	origRoom := initiated.Call.RoomID
	require.Contains(t, e.rooms.liveRooms(), origRoom)

	claims := e.parseGrant(t, initiated.CallerGrant)
	require.Equal(t, "caller-1", claims["sub"])
	video := claims["video"].(map[string]any)
	require.Equal(t, origRoom, video["room"])

	// Agent A joins.
	grantA, err := e.manager.ConnectAgent(ctx, callID, "agent-a")
	require.NoError(t, err)
	require.Equal(t, origRoom, grantA.RoomID)

	seedConversation(t, e, callID)

	// Warm transfer to Agent B.
	requested, err := e.machine.RequestTransfer(ctx, callID, "agent-b")
	require.NoError(t, err)
	require.Equal(t, transfer.StateAwaitingAgentB, requested.Transfer.State)
	require.Equal(t, "Caller disputes a doubled bill.", requested.Transfer.Summary)

	briefingRoom := requested.Transfer.BriefingRoomID
	require.NotEqual(t, origRoom, briefingRoom)
	require.Contains(t, e.rooms.liveRooms(), briefingRoom)

	// Briefing grants are scoped to the briefing room only.
	require.Equal(t, briefingRoom, requested.AgentABriefingGrant.RoomID)
	require.Equal(t, briefingRoom, requested.AgentBBriefingGrant.RoomID)
	require.Equal(t, grant.RoleAgentTransfer, requested.AgentBBriefingGrant.Role)

	// Handoff.
	completed, err := e.machine.CompleteTransfer(ctx, requested.Transfer.ID)
	require.NoError(t, err)
	require.Equal(t, transfer.StateCompleted, completed.Transfer.State)
	require.Equal(t, origRoom, completed.AgentBGrant.RoomID)
	require.Equal(t, grant.RoleAgentPrimary, completed.AgentBGrant.Role)

	// Agent A was removed from the original room, the briefing room is gone.
	require.Contains(t, e.rooms.removed, [2]string{origRoom, "agent-a"})
	require.NotContains(t, e.rooms.liveRooms(), briefingRoom)

	// The call holds only Agent B and accepts follow-up transfers.
	c, err := e.manager.Get(ctx, callID)
	require.NoError(t, err)
	require.Equal(t, call.StatusActive, c.Status)
	require.Nil(t, c.ActiveTransferID)
	require.Len(t, c.Agents, 1)
	require.Equal(t, "agent-b", c.Agents[0].Identity)

	// The conversation log survives the handoff.
	entries, err := e.log.Read(ctx, callID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestTransferCancelledWhileAwaitingAgentB(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	initiated, err := e.manager.InitiateCall(ctx, "caller-1")
	require.NoError(t, err)
	callID := initiated.Call.ID
	_, err = e.manager.ConnectAgent(ctx, callID, "agent-a")
	require.NoError(t, err)
	seedConversation(t, e, callID)

	requested, err := e.machine.RequestTransfer(ctx, callID, "agent-b")
	require.NoError(t, err)

	require.NoError(t, e.machine.CancelTransfer(ctx, requested.Transfer.ID))

	got, err := e.machine.Get(ctx, requested.Transfer.ID)
	require.NoError(t, err)
	require.Equal(t, transfer.StateCancelled, got.State)
	require.NotContains(t, e.rooms.liveRooms(), requested.Transfer.BriefingRoomID)

	// Agent A still holds the call.
	c, err := e.manager.Get(ctx, callID)
	require.NoError(t, err)
	require.Equal(t, call.StatusActive, c.Status)
	require.Len(t, c.Agents, 1)
	require.Equal(t, "agent-a", c.Agents[0].Identity)
}

func TestSummarizationFailureFailsTransfer(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))

	initiated, err := e.manager.InitiateCall(ctx, "caller-1")
	require.NoError(t, err)
	callID := initiated.Call.ID
	_, err = e.manager.ConnectAgent(ctx, callID, "agent-a")
	require.NoError(t, err)
	seedConversation(t, e, callID)

	_, err = e.machine.RequestTransfer(ctx, callID, "agent-b")
	require.ErrorIs(t, err, transfer.ErrSummarization)

	// The call recovered and an immediate retry is possible.
	c, err := e.manager.Get(ctx, callID)
	require.NoError(t, err)
	require.Equal(t, call.StatusActive, c.Status)
	require.Nil(t, c.ActiveTransferID)

	// Only the original room is left in the media transport.
	require.Equal(t, []string{initiated.Call.RoomID}, e.rooms.liveRooms())
}

func TestEmptyConversationUsesCannedSummary(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("summarization service must not be called for an empty log")
	}))

	initiated, err := e.manager.InitiateCall(ctx, "caller-1")
	require.NoError(t, err)
	_, err = e.manager.ConnectAgent(ctx, initiated.Call.ID, "agent-a")
	require.NoError(t, err)

	requested, err := e.machine.RequestTransfer(ctx, initiated.Call.ID, "agent-b")
	require.NoError(t, err)
	require.Equal(t, "No prior conversation context available.", requested.Transfer.Summary)
}

func TestCloseCallCancelsActiveTransfer(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	initiated, err := e.manager.InitiateCall(ctx, "caller-1")
	require.NoError(t, err)
	callID := initiated.Call.ID
	_, err = e.manager.ConnectAgent(ctx, callID, "agent-a")
	require.NoError(t, err)
	seedConversation(t, e, callID)

	requested, err := e.machine.RequestTransfer(ctx, callID, "agent-b")
	require.NoError(t, err)

	require.NoError(t, e.manager.CloseCall(ctx, callID))

	c, err := e.manager.Get(ctx, callID)
	require.NoError(t, err)
	require.Equal(t, call.StatusClosed, c.Status)

	got, err := e.machine.Get(ctx, requested.Transfer.ID)
	require.NoError(t, err)
	require.Equal(t, transfer.StateCancelled, got.State)

	// Every media room is torn down.
	require.Empty(t, e.rooms.liveRooms())

	// Closed calls refuse further work.
	_, err = e.log.Append(ctx, callID, "caller-1", "hello?")
	require.ErrorIs(t, err, conversation.ErrCallClosed)
	_, err = e.machine.RequestTransfer(ctx, callID, "agent-c")
	require.ErrorIs(t, err, transfer.ErrInvalidState)

	// Closing again is a no-op.
	require.NoError(t, e.manager.CloseCall(ctx, callID))
}

func TestRoomServiceBlipAbsorbedByRetry(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)

	e.rooms.mu.Lock()
	e.rooms.failNext = true
	e.rooms.mu.Unlock()

	// The registry retries once, so a single failure is absorbed.
	initiated, err := e.manager.InitiateCall(ctx, "caller-1")
	require.NoError(t, err)
	require.Contains(t, e.rooms.liveRooms(), initiated.Call.RoomID)
}
