package events

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	logger log.FieldLogger
}

func NewLogPublisher(logger log.FieldLogger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	env := NewEnvelope(event, time.Now())

	p.logger.WithFields(log.Fields{
		"event_id": env.ID,
		"type":     env.Type,
		"payload":  env.Payload,
	}).Info("order event")

	return nil
}
