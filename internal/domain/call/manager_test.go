package call_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/repository"
	"github.com/rpggio/warmline/internal/repository/mocks"
)

func callerGrant(identity, roomID string) *grant.Grant {
	return &grant.Grant{Token: "tok", Identity: identity, RoomID: roomID, Role: grant.RoleCaller}
}

func TestManager_InitiateCall(t *testing.T) {
	ctx := context.Background()

	rooms := &mocks.RoomRegistry{}
	rooms.On("Create", ctx, room.KindOriginal).Return(&room.Room{ID: "r1", Kind: room.KindOriginal}, nil)

	calls := &mocks.CallRepository{}
	calls.On("Create", ctx, mock.MatchedBy(func(c *call.Call) bool {
		return c.CallerIdentity == "caller-1" && c.RoomID == "r1" && c.Status == call.StatusActive
	})).Return(nil)

	grants := &mocks.GrantIssuer{}
	grants.On("Issue", "caller-1", "r1", grant.RoleCaller, grant.CallerPermissions(), time.Duration(0)).
		Return(callerGrant("caller-1", "r1"), nil)

	mgr := call.NewManager(calls, rooms, grants, nil, call.NewLockTable(), nil)
	res, err := mgr.InitiateCall(ctx, "caller-1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Call.ID)
	require.Equal(t, "r1", res.Call.RoomID)
	require.Equal(t, "tok", res.CallerGrant.Token)
	calls.AssertExpectations(t)
	grants.AssertExpectations(t)
}

func TestManager_InitiateCallValidation(t *testing.T) {
	mgr := call.NewManager(&mocks.CallRepository{}, &mocks.RoomRegistry{}, &mocks.GrantIssuer{}, nil, call.NewLockTable(), nil)
	_, err := mgr.InitiateCall(context.Background(), "")
	require.ErrorIs(t, err, call.ErrInvalidInput)
}

func TestManager_InitiateCallRoomFailure(t *testing.T) {
	ctx := context.Background()

	rooms := &mocks.RoomRegistry{}
	rooms.On("Create", ctx, room.KindOriginal).Return((*room.Room)(nil), room.ErrTransport)

	mgr := call.NewManager(&mocks.CallRepository{}, rooms, &mocks.GrantIssuer{}, nil, call.NewLockTable(), nil)
	_, err := mgr.InitiateCall(ctx, "caller-1")
	require.ErrorIs(t, err, room.ErrTransport)
}

func TestManager_InitiateCallRegistrationFailureDestroysRoom(t *testing.T) {
	ctx := context.Background()

	rooms := &mocks.RoomRegistry{}
	rooms.On("Create", ctx, room.KindOriginal).Return(&room.Room{ID: "r1"}, nil)
	rooms.On("Destroy", ctx, "r1").Return(nil)

	calls := &mocks.CallRepository{}
	calls.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))

	mgr := call.NewManager(calls, rooms, &mocks.GrantIssuer{}, nil, call.NewLockTable(), nil)
	_, err := mgr.InitiateCall(ctx, "caller-1")
	require.Error(t, err)
	rooms.AssertCalled(t, "Destroy", ctx, "r1")
}

func TestManager_ConnectAgent(t *testing.T) {
	ctx := context.Background()

	calls := &mocks.CallRepository{}
	calls.On("Get", ctx, "c1").Return(&call.Call{ID: "c1", RoomID: "r1", Status: call.StatusActive}, nil)
	calls.On("AddAgent", ctx, "c1", mock.MatchedBy(func(p call.Participant) bool {
		return p.Identity == "agent-a" && p.Role == grant.RoleAgentPrimary
	})).Return(nil)

	grants := &mocks.GrantIssuer{}
	grants.On("Issue", "agent-a", "r1", grant.RoleAgentPrimary, grant.AgentPermissions(), time.Duration(0)).
		Return(&grant.Grant{Token: "tok", Identity: "agent-a", RoomID: "r1", Role: grant.RoleAgentPrimary}, nil)

	mgr := call.NewManager(calls, &mocks.RoomRegistry{}, grants, nil, call.NewLockTable(), nil)
	g, err := mgr.ConnectAgent(ctx, "c1", "agent-a")
	require.NoError(t, err)
	require.Equal(t, grant.RoleAgentPrimary, g.Role)
	calls.AssertExpectations(t)
}

func TestManager_ConnectAgentRejoinSkipsRegistration(t *testing.T) {
	ctx := context.Background()

	c := &call.Call{
		ID: "c1", RoomID: "r1", Status: call.StatusActive,
		Agents: []call.Participant{{Identity: "agent-a", Role: grant.RoleAgentPrimary}},
	}
	calls := &mocks.CallRepository{}
	calls.On("Get", ctx, "c1").Return(c, nil)

	grants := &mocks.GrantIssuer{}
	grants.On("Issue", "agent-a", "r1", grant.RoleAgentPrimary, grant.AgentPermissions(), time.Duration(0)).
		Return(&grant.Grant{Token: "tok2"}, nil)

	mgr := call.NewManager(calls, &mocks.RoomRegistry{}, grants, nil, call.NewLockTable(), nil)
	g, err := mgr.ConnectAgent(ctx, "c1", "agent-a")
	require.NoError(t, err)
	require.Equal(t, "tok2", g.Token)
	calls.AssertNotCalled(t, "AddAgent", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_ConnectAgentClosedCall(t *testing.T) {
	ctx := context.Background()

	calls := &mocks.CallRepository{}
	calls.On("Get", ctx, "c1").Return(&call.Call{ID: "c1", Status: call.StatusClosed}, nil)

	mgr := call.NewManager(calls, &mocks.RoomRegistry{}, &mocks.GrantIssuer{}, nil, call.NewLockTable(), nil)
	_, err := mgr.ConnectAgent(ctx, "c1", "agent-a")
	require.ErrorIs(t, err, call.ErrCallClosed)
}

func TestManager_GetUnknown(t *testing.T) {
	ctx := context.Background()

	calls := &mocks.CallRepository{}
	calls.On("Get", ctx, "nope").Return((*call.Call)(nil), repository.ErrNotFound)

	mgr := call.NewManager(calls, &mocks.RoomRegistry{}, &mocks.GrantIssuer{}, nil, call.NewLockTable(), nil)
	_, err := mgr.Get(ctx, "nope")
	require.ErrorIs(t, err, call.ErrCallNotFound)
}

func TestManager_CloseCall(t *testing.T) {
	ctx := context.Background()

	calls := &mocks.CallRepository{}
	calls.On("Get", ctx, "c1").Return(&call.Call{ID: "c1", RoomID: "r1", Status: call.StatusActive}, nil)
	calls.On("Update", ctx, mock.MatchedBy(func(c *call.Call) bool {
		return c.Status == call.StatusClosed && c.ClosedAt != nil
	})).Return(nil)

	rooms := &mocks.RoomRegistry{}
	rooms.On("Destroy", ctx, "r1").Return(nil)

	transfers := &mocks.TransferCoordinator{}
	transfers.On("CancelActive", ctx, "c1").Return(nil)

	mgr := call.NewManager(calls, rooms, &mocks.GrantIssuer{}, transfers, call.NewLockTable(), nil)
	require.NoError(t, mgr.CloseCall(ctx, "c1"))
	transfers.AssertExpectations(t)
	rooms.AssertExpectations(t)
}

func TestManager_CloseCallAlreadyClosed(t *testing.T) {
	ctx := context.Background()

	calls := &mocks.CallRepository{}
	calls.On("Get", ctx, "c1").Return(&call.Call{ID: "c1", Status: call.StatusClosed}, nil)

	rooms := &mocks.RoomRegistry{}
	mgr := call.NewManager(calls, rooms, &mocks.GrantIssuer{}, &mocks.TransferCoordinator{}, call.NewLockTable(), nil)
	require.NoError(t, mgr.CloseCall(ctx, "c1"))
	calls.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	rooms.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything)
}

func TestManager_CloseCallRoomFailureNonFatal(t *testing.T) {
	ctx := context.Background()

	calls := &mocks.CallRepository{}
	calls.On("Get", ctx, "c1").Return(&call.Call{ID: "c1", RoomID: "r1", Status: call.StatusActive}, nil)
	calls.On("Update", ctx, mock.Anything).Return(nil)

	rooms := &mocks.RoomRegistry{}
	rooms.On("Destroy", ctx, "r1").Return(errors.New("timeout"))

	transfers := &mocks.TransferCoordinator{}
	transfers.On("CancelActive", ctx, "c1").Return(nil)

	mgr := call.NewManager(calls, rooms, &mocks.GrantIssuer{}, transfers, call.NewLockTable(), nil)
	require.NoError(t, mgr.CloseCall(ctx, "c1"))
}
