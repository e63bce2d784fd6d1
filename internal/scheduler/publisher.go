package scheduler

import (
	"log/slog"
)

// Publisher matches *nsq.Producer.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// LogPublisher stands in for a message broker by logging each event.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(topic string, body []byte) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("event", "topic", topic, "bytes", len(body), "body", string(body))
	return nil
}
