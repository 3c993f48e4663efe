package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/notify"
	"github.com/crashlink/companion-server/internal/sse"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByDeviceID(ctx context.Context, deviceID string) (*model.User, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Upsert(ctx context.Context, params model.UpsertUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateDeviceName(ctx context.Context, id, deviceName string) error {
	args := m.Called(ctx, id, deviceName)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePushToken(ctx context.Context, id string, pushToken *string) (*model.User, error) {
	args := m.Called(ctx, id, pushToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type mockPairingCodeRepo struct {
	mock.Mock
}

func (m *mockPairingCodeRepo) FindByCode(ctx context.Context, code string) (*model.PairingCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PairingCode), args.Error(1)
}

func (m *mockPairingCodeRepo) FindActiveByUserID(ctx context.Context, userID string) ([]model.PairingCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PairingCode), args.Error(1)
}

func (m *mockPairingCodeRepo) Create(ctx context.Context, params model.CreatePairingCodeParams) (*model.PairingCode, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PairingCode), args.Error(1)
}

func (m *mockPairingCodeRepo) UpdateLocation(ctx context.Context, code string, loc model.Location) (*model.PairingCode, error) {
	args := m.Called(ctx, code, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PairingCode), args.Error(1)
}

func (m *mockPairingCodeRepo) Delete(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPairingCodeRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockConnectionRepo struct {
	mock.Mock
}

func (m *mockConnectionRepo) Create(ctx context.Context, userID, pairedUserID string) (bool, error) {
	args := m.Called(ctx, userID, pairedUserID)
	return args.Bool(0), args.Error(1)
}

func (m *mockConnectionRepo) FindPeers(ctx context.Context, userID string) ([]model.Peer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Peer), args.Error(1)
}

func (m *mockConnectionRepo) Exists(ctx context.Context, userID, peerID string) (bool, error) {
	args := m.Called(ctx, userID, peerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockConnectionRepo) DeleteBetween(ctx context.Context, userID, peerID string) (int64, error) {
	args := m.Called(ctx, userID, peerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockUsageRepo struct {
	mock.Mock
}

func (m *mockUsageRepo) Upsert(ctx context.Context, params model.TrackUsageParams) (*model.CodeUsage, bool, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.CodeUsage), args.Bool(1), args.Error(2)
}

func (m *mockUsageRepo) FindPastedByUserID(ctx context.Context, userID string, limit int) ([]model.PastedCode, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PastedCode), args.Error(1)
}

func (m *mockUsageRepo) FindRedeemersByCodeID(ctx context.Context, pairingCodeID string) ([]model.CodeRedeemer, error) {
	args := m.Called(ctx, pairingCodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CodeRedeemer), args.Error(1)
}

func (m *mockUsageRepo) DeleteForCode(ctx context.Context, usageID, pairingCodeID string) (int64, error) {
	args := m.Called(ctx, usageID, pairingCodeID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, userID string, event sse.Event) error {
	args := m.Called(ctx, userID, event)
	return args.Error(0)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, token string, msg notify.Message) error {
	args := m.Called(ctx, token, msg)
	return args.Error(0)
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
