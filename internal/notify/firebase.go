package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	apperrors "github.com/crashlink/companion-server/internal/errors"
)

// FirebaseSender delivers messages through Firebase Cloud Messaging.
type FirebaseSender struct {
	client *messaging.Client
}

// NewFirebaseSender initializes the Firebase Admin SDK from a service
// account file.
func NewFirebaseSender(ctx context.Context, credentialsPath string) (*FirebaseSender, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path is empty")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase Messaging client: %w", err)
	}

	return &FirebaseSender{client: client}, nil
}

func (s *FirebaseSender) Send(ctx context.Context, token string, msg Message) error {
	id, err := s.client.Send(ctx, buildMessage(token, msg))
	if err != nil {
		if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
			return fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return apperrors.External("fcm", err)
	}

	log.Debug().
		Str("messageId", id).
		Str("tokenSuffix", tokenSuffix(token)).
		Msg("push notification sent")
	return nil
}

func buildMessage(token string, msg Message) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
		},
	}
}
