package scoringhandlers

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	scoringservice "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/application"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/events"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

func resultsMessage(t *testing.T, id uuid.UUID) *message.Message {
	t.Helper()
	ctx := attr.WithCorrelationID(context.Background(), "corr-7")
	msg, err := eventbus.NewMessage(ctx, eventbus.RaceResultsSubmittedV1, events.RaceResultsSubmittedPayloadV1{
		CompetitionID: id,
		Results: []scoringdomain.RaceResult{
			{CompetitorID: "a"},
		},
	})
	require.NoError(t, err)
	return msg
}

func TestHandleRaceResultsSubmitted(t *testing.T) {
	id := uuid.New()

	t.Run("scored batch emits nothing", func(t *testing.T) {
		var gotID uuid.UUID
		var gotCorrelation string
		svc := &FakeService{
			ScoreRaceFunc: func(ctx context.Context, competitionID uuid.UUID, batch []scoringdomain.RaceResult) (results.OperationResult[scoringservice.ScoreSummary, error], error) {
				gotID = competitionID
				gotCorrelation = attr.CorrelationID(ctx)
				return results.SuccessResult[scoringservice.ScoreSummary, error](scoringservice.ScoreSummary{}), nil
			},
		}

		out, err := newHandlers(svc).HandleRaceResultsSubmitted(resultsMessage(t, id))
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, id, gotID)
		assert.Equal(t, "corr-7", gotCorrelation)
	})

	t.Run("refused batch emits scoring failed", func(t *testing.T) {
		svc := &FakeService{}
		scoreFailure(scoringdomain.ErrFasterThanWinner)(svc)

		out, err := newHandlers(svc).HandleRaceResultsSubmitted(resultsMessage(t, id))
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "corr-7", middleware.MessageCorrelationID(out[0]))

		payload, err := eventbus.Decode[events.ScoringFailedPayloadV1](out[0])
		require.NoError(t, err)
		assert.Equal(t, id, payload.CompetitionID)
		assert.Contains(t, payload.Reason, "faster than")
	})

	t.Run("infrastructure error is returned for redelivery", func(t *testing.T) {
		svc := &FakeService{
			ScoreRaceFunc: func(context.Context, uuid.UUID, []scoringdomain.RaceResult) (results.OperationResult[scoringservice.ScoreSummary, error], error) {
				return results.OperationResult[scoringservice.ScoreSummary, error]{}, errors.New("db down")
			},
		}

		_, err := newHandlers(svc).HandleRaceResultsSubmitted(resultsMessage(t, id))
		assert.Error(t, err)
	})

	t.Run("undecodable payload is dropped", func(t *testing.T) {
		called := false
		svc := &FakeService{
			ScoreRaceFunc: func(context.Context, uuid.UUID, []scoringdomain.RaceResult) (results.OperationResult[scoringservice.ScoreSummary, error], error) {
				called = true
				return results.OperationResult[scoringservice.ScoreSummary, error]{}, nil
			},
		}

		out, err := newHandlers(svc).HandleRaceResultsSubmitted(message.NewMessage(watermill.NewUUID(), []byte("{")))
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.False(t, called)
	})
}
