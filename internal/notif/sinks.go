package notif

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"chatsync/internal/config"
)

type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, n Notification) error {
	s.log.Info().Str("title", n.Title).Str("body", n.Body).Msg("Notification")
	return nil
}

// FCMSender is the slice of *messaging.Client the FCM sink uses.
type FCMSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSink pushes notifications to one registered device. A token FCM
// reports as unregistered disables the sink.
type FCMSink struct {
	sender   FCMSender
	token    string
	disabled atomic.Bool
	log      zerolog.Logger
}

func NewFCMSink(sender FCMSender, deviceToken string, log zerolog.Logger) *FCMSink {
	return &FCMSink{sender: sender, token: deviceToken, log: log}
}

func (s *FCMSink) Name() string { return "fcm" }

func (s *FCMSink) Deliver(ctx context.Context, n Notification) error {
	if s.disabled.Load() {
		return nil
	}

	msg := &messaging.Message{
		Token: s.token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"type": "new_message",
		},
	}

	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsInvalidArgument(err) {
			s.disabled.Store(true)
			s.log.Warn().Err(err).Msg("Device token rejected, disabling FCM sink")
			return nil
		}
		return fmt.Errorf("failed to send FCM: %w", err)
	}

	s.log.Debug().Str("message_id", id).Msg("FCM notification sent")
	return nil
}

// NewMessagingClient builds an FCM client, or returns nil when Firebase is
// disabled or has no credentials.
func NewMessagingClient(ctx context.Context, cfg config.FirebaseConfig, log zerolog.Logger) (*messaging.Client, error) {
	if !cfg.Enabled {
		log.Info().Msg("Firebase disabled")
		return nil, nil
	}
	if cfg.CredentialsFilePath == "" {
		return nil, errors.New("firebase enabled without FIREBASE_CREDENTIALS_PATH")
	}

	opt := option.WithCredentialsFile(cfg.CredentialsFilePath)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("firebase initialization failed: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM client: %w", err)
	}
	return client, nil
}

// StaticGate answers the notification permission question with a fixed value.
type StaticGate struct {
	granted bool
}

func NewStaticGate(granted bool) *StaticGate {
	return &StaticGate{granted: granted}
}

func (g *StaticGate) IsGranted() bool { return g.granted }

func (g *StaticGate) Request() bool { return g.granted }
