package events

import (
	"context"
	"encoding/json"
	"fmt"

	"ecotrack/models"
)

// Sink receives engagement events for delivery to connected clients.
type Sink interface {
	Deliver(event models.GamificationEvent)
}

// MarshalEvent marshals an event to JSON string for Redis Stream
func MarshalEvent(event models.GamificationEvent) (string, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalEvent unmarshals a JSON string to an event
func UnmarshalEvent(data string) (models.GamificationEvent, error) {
	var event models.GamificationEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" || event.UserID == "" {
		return event, fmt.Errorf("event is missing type or user")
	}
	return event, nil
}

// DirectPublisher hands events straight to a sink. It is used when Redis is
// disabled and a single instance serves every websocket.
type DirectPublisher struct {
	sink Sink
}

func NewDirectPublisher(sink Sink) *DirectPublisher {
	return &DirectPublisher{sink: sink}
}

func (p *DirectPublisher) Publish(_ context.Context, event models.GamificationEvent) error {
	p.sink.Deliver(event)
	return nil
}
