package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/model"
	"github.com/crashlink/companion-server/internal/notify"
	"github.com/crashlink/companion-server/internal/repository"
)

type AlertParams struct {
	Title    string
	Body     string
	Location *model.Location
	Data     map[string]string
}

// NotificationService pushes alerts from a device to every paired device.
type NotificationService struct {
	userRepo repository.UserRepository
	connRepo repository.ConnectionRepository
	sender   notify.Sender
	timeout  time.Duration
	inflight sync.WaitGroup
}

func NewNotificationService(
	userRepo repository.UserRepository,
	connRepo repository.ConnectionRepository,
	sender notify.Sender,
	timeout time.Duration,
) *NotificationService {
	return &NotificationService{
		userRepo: userRepo,
		connRepo: connRepo,
		sender:   sender,
		timeout:  timeout,
	}
}

// Alert resolves the recipients and returns their count without waiting for
// delivery.
func (s *NotificationService) Alert(ctx context.Context, userID string, params AlertParams) (int, error) {
	if userID == "" {
		return 0, apperrors.MissingRequired("userId")
	}
	if params.Location != nil {
		if err := ValidateLocation(*params.Location); err != nil {
			return 0, err
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	if user == nil {
		return 0, apperrors.NotFound("User")
	}

	peers, err := s.connRepo.FindPeers(ctx, userID)
	if err != nil {
		return 0, apperrors.Database(err)
	}

	recipients := make([]model.Peer, 0, len(peers))
	for _, p := range peers {
		if p.PushToken != nil && *p.PushToken != "" {
			recipients = append(recipients, p)
		}
	}

	if len(recipients) == 0 {
		log.Info().Str("userId", userID).Int("peers", len(peers)).Msg("alert has no push recipients")
		return 0, nil
	}

	msg := buildAlertMessage(user, params)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.dispatch(userID, recipients, msg)
	}()

	return len(recipients), nil
}

// Wait blocks until every dispatched alert has finished.
func (s *NotificationService) Wait() {
	s.inflight.Wait()
}

func (s *NotificationService) dispatch(userID string, recipients []model.Peer, msg notify.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	delivered := 0
	for _, peer := range recipients {
		err := s.sender.Send(ctx, *peer.PushToken, msg)
		if err == nil {
			delivered++
			continue
		}

		log.Warn().Err(err).Str("userId", userID).Str("peerId", peer.ID).Msg("push delivery failed")
		if errors.Is(err, notify.ErrInvalidToken) {
			if _, err := s.userRepo.UpdatePushToken(ctx, peer.ID, nil); err != nil {
				log.Warn().Err(err).Str("peerId", peer.ID).Msg("failed to clear stale push token")
			}
		}
	}

	log.Info().
		Str("userId", userID).
		Int("recipients", len(recipients)).
		Int("delivered", delivered).
		Msg("alert dispatched")
}

func buildAlertMessage(user *model.User, params AlertParams) notify.Message {
	title := params.Title
	if title == "" {
		title = fmt.Sprintf("Alert from %s", user.DeviceName)
	}

	data := make(map[string]string, len(params.Data)+5)
	for k, v := range params.Data {
		data[k] = v
	}
	data["type"] = "alert"
	data["fromUserId"] = user.ID
	data["deviceName"] = user.DeviceName
	if loc := params.Location; loc != nil {
		data["lat"] = strconv.FormatFloat(loc.Latitude, 'f', -1, 64)
		data["lon"] = strconv.FormatFloat(loc.Longitude, 'f', -1, 64)
		if loc.Accuracy != nil {
			data["accuracy"] = strconv.FormatFloat(*loc.Accuracy, 'f', -1, 64)
		}
	}

	return notify.Message{
		Title: title,
		Body:  params.Body,
		Data:  data,
	}
}
