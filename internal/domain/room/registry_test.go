package room_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/repository"
	"github.com/rpggio/warmline/internal/repository/mocks"
)

func newRegistry(repo *mocks.RoomRepository, transport *mocks.MediaTransport) *room.Registry {
	return room.NewRegistry(repo, transport, room.RegistryConfig{
		EmptyTimeout:  time.Minute,
		RetryInterval: time.Millisecond,
	}, nil)
}

func TestRegistry_Create(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.RoomRepository{}
	transport := &mocks.MediaTransport{}
	transport.On("CreateRoom", ctx, mock.Anything, time.Minute).Return(nil)
	repo.On("Create", ctx, mock.Anything).Return(nil)

	reg := newRegistry(repo, transport)
	rm, err := reg.Create(ctx, room.KindBriefing)
	require.NoError(t, err)
	require.NotEmpty(t, rm.ID)
	require.Equal(t, room.KindBriefing, rm.Kind)
	require.Equal(t, time.Minute, rm.EmptyTimeout)
	transport.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRegistry_CreateUnknownKind(t *testing.T) {
	reg := newRegistry(&mocks.RoomRepository{}, &mocks.MediaTransport{})
	_, err := reg.Create(context.Background(), room.Kind("lobby"))
	require.ErrorIs(t, err, room.ErrInvalidInput)
}

func TestRegistry_CreateRetriesTransport(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.RoomRepository{}
	transport := &mocks.MediaTransport{}
	transport.On("CreateRoom", ctx, mock.Anything, time.Minute).Return(errors.New("connection refused")).Once()
	transport.On("CreateRoom", ctx, mock.Anything, time.Minute).Return(nil).Once()
	repo.On("Create", ctx, mock.Anything).Return(nil)

	reg := newRegistry(repo, transport)
	_, err := reg.Create(ctx, room.KindOriginal)
	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestRegistry_CreateTransportDown(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.RoomRepository{}
	transport := &mocks.MediaTransport{}
	transport.On("CreateRoom", ctx, mock.Anything, time.Minute).Return(errors.New("connection refused"))

	reg := newRegistry(repo, transport)
	_, err := reg.Create(ctx, room.KindOriginal)
	require.ErrorIs(t, err, room.ErrTransport)
	// No local registration happens when the transport never came up.
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegistry_CreateRegistrationFailureDestroysTransportRoom(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.RoomRepository{}
	transport := &mocks.MediaTransport{}
	transport.On("CreateRoom", ctx, mock.Anything, time.Minute).Return(nil)
	repo.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))
	transport.On("DestroyRoom", ctx, mock.Anything).Return(nil)

	reg := newRegistry(repo, transport)
	_, err := reg.Create(ctx, room.KindOriginal)
	require.Error(t, err)
	transport.AssertCalled(t, "DestroyRoom", ctx, mock.Anything)
}

func TestRegistry_DestroyIdempotent(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.RoomRepository{}
	repo.On("Get", ctx, "gone").Return((*room.Room)(nil), repository.ErrNotFound)

	reg := newRegistry(repo, &mocks.MediaTransport{})
	require.NoError(t, reg.Destroy(ctx, "gone"))
	require.NoError(t, reg.Destroy(ctx, ""))
}

func TestRegistry_DestroyTransportFailureNonFatal(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.RoomRepository{}
	transport := &mocks.MediaTransport{}
	rm := &room.Room{ID: "r1", Kind: room.KindBriefing}
	repo.On("Get", ctx, "r1").Return(rm, nil)
	transport.On("DestroyRoom", ctx, "r1").Return(errors.New("timeout"))
	repo.On("Delete", ctx, "r1").Return(nil)

	reg := newRegistry(repo, transport)
	require.NoError(t, reg.Destroy(ctx, "r1"))
	repo.AssertCalled(t, "Delete", ctx, "r1")
}
