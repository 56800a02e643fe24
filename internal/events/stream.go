package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ecotrack/models"
	"ecotrack/utils"
)

const streamMaxLen = 10000

// StreamPublisher appends engagement events to a Redis stream.
type StreamPublisher struct {
	rdb    redis.Cmdable
	stream string
}

func NewStreamPublisher(rdb redis.Cmdable, stream string) *StreamPublisher {
	return &StreamPublisher{rdb: rdb, stream: stream}
}

// Publish publishes an event to the Redis Stream
func (p *StreamPublisher) Publish(ctx context.Context, event models.GamificationEvent) error {
	eventData, err := MarshalEvent(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Add to stream with MAXLEN to bound history
	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type": event.Type,
			"data": eventData,
		},
		MaxLen: streamMaxLen,
		Approx: true,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// StreamConsumer reads the engagement stream and forwards events to a sink.
// Every instance uses its own consumer group so each one sees every event.
type StreamConsumer struct {
	rdb          *redis.Client
	stream       string
	groupName    string
	consumerName string
	sink         Sink
	block        time.Duration
}

func NewStreamConsumer(rdb *redis.Client, stream string, sink Sink) *StreamConsumer {
	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	return &StreamConsumer{
		rdb:          rdb,
		stream:       stream,
		groupName:    fmt.Sprintf("%s:ws:%s", stream, instanceID),
		consumerName: fmt.Sprintf("consumer-%s", instanceID),
		sink:         sink,
		block:        time.Second,
	}
}

// Start creates the consumer group and consumes until ctx is cancelled.
func (sc *StreamConsumer) Start(ctx context.Context) error {
	if err := sc.createGroup(ctx); err != nil {
		return err
	}
	go sc.consumeLoop(ctx)
	return nil
}

// createGroup starts the group at the end of the stream; history is not replayed.
func (sc *StreamConsumer) createGroup(ctx context.Context) error {
	err := sc.rdb.XGroupCreateMkStream(ctx, sc.stream, sc.groupName, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (sc *StreamConsumer) consumeLoop(ctx context.Context) {
	defer func() {
		// the group is per instance and dies with it
		cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		sc.rdb.XGroupDestroy(cleanup, sc.stream, sc.groupName)
	}()

	for ctx.Err() == nil {
		if _, err := sc.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			utils.LogWarn("events: read %s: %v", sc.stream, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}
}

// poll reads one batch, delivers it and acknowledges each message.
func (sc *StreamConsumer) poll(ctx context.Context) (int, error) {
	streams, err := sc.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    sc.groupName,
		Consumer: sc.consumerName,
		Streams:  []string{sc.stream, ">"},
		Count:    100,
		Block:    sc.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := sc.processMessage(message); err != nil {
				utils.LogWarn("events: drop message %s: %v", message.ID, err)
			} else {
				delivered++
			}
			if err := sc.rdb.XAck(ctx, sc.stream, sc.groupName, message.ID).Err(); err != nil {
				utils.LogWarn("events: ack %s: %v", message.ID, err)
			}
		}
	}
	return delivered, nil
}

func (sc *StreamConsumer) processMessage(message redis.XMessage) error {
	eventData, ok := message.Values["data"].(string)
	if !ok {
		return fmt.Errorf("invalid message format: missing data field")
	}
	event, err := UnmarshalEvent(eventData)
	if err != nil {
		return err
	}
	sc.sink.Deliver(event)
	return nil
}
