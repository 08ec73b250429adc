package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
)

// StreamName is the single JetStream stream holding every topic.
const StreamName = "MARATHON_DRAFT"

// StreamSubjects covers every topic prefix in topics.go.
var StreamSubjects = []string{"race.>", "roster.>", "competition.>", "scoring.>"}

// EnsureStreams creates the stream, or adds any subjects an older deployment
// did not have.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	stream, err := js.Stream(ctx, StreamName)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, jetstream.StreamConfig{
			Name:      StreamName,
			Subjects:  StreamSubjects,
			Storage:   jetstream.FileStorage,
			Retention: jetstream.LimitsPolicy,
		}); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", StreamName, err)
		}
		logger.Info("Created JetStream stream", attr.String("stream", StreamName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check stream: %w", err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}
	missing := false
	for _, subject := range StreamSubjects {
		if !slices.Contains(info.Config.Subjects, subject) {
			info.Config.Subjects = append(info.Config.Subjects, subject)
			missing = true
		}
	}
	if !missing {
		return nil
	}
	if _, err := js.UpdateStream(ctx, info.Config); err != nil {
		return fmt.Errorf("failed to update stream subjects: %w", err)
	}
	logger.Info("Stream updated with new subjects", attr.String("stream", StreamName))
	return nil
}
