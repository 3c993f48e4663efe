package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrInvalidToken is returned when the push provider reports the device
// token as unregistered or malformed.
var ErrInvalidToken = errors.New("push token is no longer valid")

type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a message to one device push token.
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, token string, msg Message) error {
	log.Info().
		Str("tokenSuffix", tokenSuffix(token)).
		Str("title", msg.Title).
		Interface("data", msg.Data).
		Msg("push notification (log only)")
	return nil
}

func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[len(token)-6:]
}
