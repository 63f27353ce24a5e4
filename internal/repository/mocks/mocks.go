// Package mocks provides testify mocks for the repository and collaborator
// interfaces declared by the domain packages.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/warmline/internal/domain/call"
	"github.com/rpggio/warmline/internal/domain/conversation"
	"github.com/rpggio/warmline/internal/domain/grant"
	"github.com/rpggio/warmline/internal/domain/room"
	"github.com/rpggio/warmline/internal/domain/transfer"
)

// CallRepository is a mock for call.Repository (and the call-store views the
// conversation log and transfer machine declare).
type CallRepository struct {
	mock.Mock
}

func (m *CallRepository) Create(ctx context.Context, c *call.Call) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CallRepository) Get(ctx context.Context, id string) (*call.Call, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*call.Call); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CallRepository) Update(ctx context.Context, c *call.Call) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CallRepository) AddAgent(ctx context.Context, callID string, p call.Participant) error {
	args := m.Called(ctx, callID, p)
	return args.Error(0)
}

func (m *CallRepository) RemoveAgent(ctx context.Context, callID, identity string) error {
	args := m.Called(ctx, callID, identity)
	return args.Error(0)
}

// RoomRepository is a mock for room.Repository.
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) Create(ctx context.Context, r *room.Room) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *RoomRepository) Get(ctx context.Context, id string) (*room.Room, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*room.Room); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RoomRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// ConversationRepository is a mock for conversation.Repository.
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Append(ctx context.Context, e *conversation.Entry) (int64, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ConversationRepository) List(ctx context.Context, callID string) ([]conversation.Entry, error) {
	args := m.Called(ctx, callID)
	if entries, ok := args.Get(0).([]conversation.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// MediaTransport is a mock for room.MediaTransport.
type MediaTransport struct {
	mock.Mock
}

func (m *MediaTransport) CreateRoom(ctx context.Context, id string, emptyTimeout time.Duration) error {
	args := m.Called(ctx, id, emptyTimeout)
	return args.Error(0)
}

func (m *MediaTransport) DestroyRoom(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MediaTransport) RemoveParticipant(ctx context.Context, roomID, identity string) error {
	args := m.Called(ctx, roomID, identity)
	return args.Error(0)
}

// RoomRegistry is a mock for the room lifecycle views declared by the call
// manager and transfer machine.
type RoomRegistry struct {
	mock.Mock
}

func (m *RoomRegistry) Create(ctx context.Context, kind room.Kind) (*room.Room, error) {
	args := m.Called(ctx, kind)
	if r, ok := args.Get(0).(*room.Room); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRegistry) Destroy(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// GrantIssuer is a mock for the grant issuance views.
type GrantIssuer struct {
	mock.Mock
}

func (m *GrantIssuer) Issue(identity, roomID string, role grant.Role, perms grant.Permissions, ttl time.Duration) (*grant.Grant, error) {
	args := m.Called(identity, roomID, role, perms, ttl)
	if g, ok := args.Get(0).(*grant.Grant); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

// Summarizer is a mock for transfer.Summarizer.
type Summarizer struct {
	mock.Mock
}

func (m *Summarizer) Summarize(ctx context.Context, entries []conversation.Entry) (string, error) {
	args := m.Called(ctx, entries)
	return args.String(0), args.Error(1)
}

// TransferRepository is a mock for transfer.Repository.
type TransferRepository struct {
	mock.Mock
}

func (m *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TransferRepository) Get(ctx context.Context, id string) (*transfer.Transfer, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*transfer.Transfer); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TransferRepository) Update(ctx context.Context, t *transfer.Transfer) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// TransferCoordinator is a mock for call.TransferCoordinator.
type TransferCoordinator struct {
	mock.Mock
}

func (m *TransferCoordinator) CancelActive(ctx context.Context, callID string) error {
	args := m.Called(ctx, callID)
	return args.Error(0)
}
