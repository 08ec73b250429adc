//go:build integration

package eventbusintegrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/events"
)

func TestPublishSubscribeOverJetStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(testEnv.Ctx, 30*time.Second)
	defer cancel()

	messages, err := testEnv.EventBus.Subscribe(ctx, eventbus.RaceResultsSubmittedV1)
	require.NoError(t, err)

	competitionID := uuid.New()
	place := 1
	finish := 7201.5
	payload := events.RaceResultsSubmittedPayloadV1{
		CompetitionID: competitionID,
		Results: []scoringdomain.RaceResult{
			{CompetitorID: "M01", Placement: &place, FinishTimeSeconds: &finish, SplitTimes: map[string]float64{"half": 3600}},
		},
	}
	pubCtx := attr.WithCorrelationID(ctx, "corr-integration")
	require.NoError(t, eventbus.Publish(pubCtx, testEnv.EventBus, eventbus.RaceResultsSubmittedV1, payload))

	select {
	case msg := <-messages:
		msg.Ack()
		got, err := eventbus.Decode[events.RaceResultsSubmittedPayloadV1](msg)
		require.NoError(t, err)
		assert.Equal(t, competitionID, got.CompetitionID)
		require.Len(t, got.Results, 1)
		assert.Equal(t, 7201.5, *got.Results[0].FinishTimeSeconds)
		assert.Equal(t, "corr-integration", middleware.MessageCorrelationID(msg))
		assert.Equal(t, eventbus.RaceResultsSubmittedV1, msg.Metadata.Get("topic"))
	case <-ctx.Done():
		t.Fatal("timed out waiting for race results message")
	}
}

func TestEnsureStreamsIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(testEnv.Ctx, 15*time.Second)
	defer cancel()

	conn, err := nc.Connect(testEnv.NatsURL)
	require.NoError(t, err)
	defer conn.Close()
	js, err := jetstream.New(conn)
	require.NoError(t, err)

	require.NoError(t, eventbus.EnsureStreams(ctx, js, testEnv.Logger))
	require.NoError(t, eventbus.EnsureStreams(ctx, js, testEnv.Logger))

	stream, err := js.Stream(ctx, eventbus.StreamName)
	require.NoError(t, err)
	info, err := stream.Info(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, eventbus.StreamSubjects, info.Config.Subjects)
}
