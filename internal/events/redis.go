package events

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "tycoon:events"
	defaultMaxLen = 100000
	channelPrefix = "tycoon:events:"
)

// RedisSink appends events to a capped Redis stream and publishes them on a
// per-topic channel for live subscribers.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisSink(client *redis.Client, stream string) *RedisSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisSink{client: client, stream: stream, maxLen: defaultMaxLen}
}

func (s *RedisSink) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: s.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"id":       ev.ID.String(),
				"topic":    ev.Topic,
				"sequence": strconv.FormatUint(uint64(ev.Sequence), 10),
				"event":    string(body),
			},
		})
		pipe.Publish(ctx, Channel(ev.Topic), body)
		return nil
	})
	return errors.Wrapf(err, "publish %s to redis", ev.Topic)
}

// Channel is the pub/sub channel events of topic are published on.
func Channel(topic string) string {
	return channelPrefix + topic
}
