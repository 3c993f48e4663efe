package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/repository"
	"github.com/crashlink/companion-server/internal/sse"
)

// DeviceService reads and edits the device graph. A connection is symmetric:
// each side sees the other no matter who redeemed the code.
type DeviceService struct {
	connRepo repository.ConnectionRepository
	events   EventPublisher
}

func NewDeviceService(connRepo repository.ConnectionRepository, events EventPublisher) *DeviceService {
	return &DeviceService{
		connRepo: connRepo,
		events:   events,
	}
}

func (s *DeviceService) ListPaired(ctx context.Context, userID string) ([]model.Peer, error) {
	if userID == "" {
		return nil, apperrors.MissingRequired("userId")
	}

	peers, err := s.connRepo.FindPeers(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return peers, nil
}

// Disconnect removes the pair in both directions. Disconnecting devices that
// are not paired succeeds and reports zero.
func (s *DeviceService) Disconnect(ctx context.Context, userID, peerID string) (int64, error) {
	if userID == "" {
		return 0, apperrors.MissingRequired("userId")
	}
	if peerID == "" {
		return 0, apperrors.MissingRequired("pairedUserId")
	}

	removed, err := s.connRepo.DeleteBetween(ctx, userID, peerID)
	if err != nil {
		return 0, apperrors.Database(err)
	}

	log.Info().
		Str("userId", userID).
		Str("peerId", peerID).
		Int64("removed", removed).
		Msg("devices disconnected")

	if removed > 0 {
		publishEvent(ctx, s.events, userID, sse.EventDeviceUnpaired, PeerEvent{PeerID: peerID})
		publishEvent(ctx, s.events, peerID, sse.EventDeviceUnpaired, PeerEvent{PeerID: userID})
	}

	return removed, nil
}
