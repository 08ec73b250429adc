package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
)

// NewMessage JSON-encodes payload and carries the context's correlation ID.
func NewMessage(ctx context.Context, topic string, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set("topic", topic)
	correlationID := attr.CorrelationID(ctx)
	if correlationID == "" {
		correlationID = watermill.NewUUID()
	}
	middleware.SetCorrelationID(correlationID, msg)
	msg.SetContext(ctx)
	return msg, nil
}

// Decode unmarshals a message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var out T
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal payload of message %s: %w", msg.UUID, err)
	}
	return out, nil
}

// Publish builds a message for payload and publishes it on topic.
func Publish(ctx context.Context, pub message.Publisher, topic string, payload any) error {
	msg, err := NewMessage(ctx, topic, payload)
	if err != nil {
		return err
	}
	return pub.Publish(topic, msg)
}

// ContextWithMessage returns msg's context carrying its correlation ID.
func ContextWithMessage(msg *message.Message) context.Context {
	return attr.WithCorrelationID(msg.Context(), middleware.MessageCorrelationID(msg))
}
