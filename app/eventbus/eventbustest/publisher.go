// Package eventbustest provides an in-process publisher for service tests.
package eventbustest

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Published is one captured message.
type Published struct {
	Topic   string
	Message *message.Message
}

// FakePublisher records every publish. PublishFunc, when set, decides the
// returned error.
type FakePublisher struct {
	mu          sync.Mutex
	published   []Published
	PublishFunc func(topic string, msgs ...*message.Message) error
}

var _ message.Publisher = (*FakePublisher)(nil)

func (f *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	if f.PublishFunc != nil {
		if err := f.PublishFunc(topic, msgs...); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.published = append(f.published, Published{Topic: topic, Message: m})
	}
	return nil
}

func (f *FakePublisher) Close() error { return nil }

// Messages returns what was published, in order.
func (f *FakePublisher) Messages() []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Published, len(f.published))
	copy(out, f.published)
	return out
}

// Topics returns the topic of every published message, in order.
func (f *FakePublisher) Topics() []string {
	msgs := f.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Topic
	}
	return out
}
