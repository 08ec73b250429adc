package scoringhandlers

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/events"
)

// HandleRaceResultsSubmitted scores a results batch received over the bus.
// A refused batch produces a scoring.failed event; infrastructure errors are
// returned so the message is redelivered.
func (h *ScoringHandlers) HandleRaceResultsSubmitted(msg *message.Message) ([]*message.Message, error) {
	ctx := eventbus.ContextWithMessage(msg)
	ctx, span := h.tracer.Start(ctx, "HandleRaceResultsSubmitted")
	defer span.End()

	payload, err := eventbus.Decode[events.RaceResultsSubmittedPayloadV1](msg)
	if err != nil {
		// Redelivery cannot fix a malformed payload.
		h.logger.ErrorContext(ctx, "Dropping undecodable results message",
			attr.ExtractCorrelationID(ctx),
			attr.String("message_id", msg.UUID),
			attr.Error(err),
		)
		return nil, nil
	}

	h.logger.InfoContext(ctx, "Received race results",
		attr.ExtractCorrelationID(ctx),
		attr.CompetitionID(payload.CompetitionID),
		attr.Int("results", len(payload.Results)),
	)

	res, err := h.service.ScoreRace(ctx, payload.CompetitionID, payload.Results)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if res.IsSuccess() {
		return nil, nil
	}

	out, err := eventbus.NewMessage(ctx, eventbus.ScoringFailedV1, events.ScoringFailedPayloadV1{
		CompetitionID: payload.CompetitionID,
		Reason:        (*res.Failure).Error(),
	})
	if err != nil {
		return nil, err
	}
	return []*message.Message{out}, nil
}
