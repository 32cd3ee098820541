package workers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	go_redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"contest-bot/internal/common/logger"
)

const (
	StreamKey     = "bot:events"
	consumerGroup = "contest_bot_consumers"

	EventBotRemoved = "bot_removed"

	streamMaxLen = 10000
)

// ChannelDeactivator stops gating on a chat.
type ChannelDeactivator interface {
	DeactivateByChatID(ctx context.Context, chatID int64) (int, error)
}

// RedisStreamWorker consumes bot events from a Redis stream. Several bot
// instances share the consumer group, so each event is handled once.
type RedisStreamWorker struct {
	rdb      go_redis.UniversalClient
	channels ChannelDeactivator
	consumer string
	log      zerolog.Logger
}

func NewRedisStreamWorker(rdb go_redis.UniversalClient, channels ChannelDeactivator) *RedisStreamWorker {
	return &RedisStreamWorker{
		rdb:      rdb,
		channels: channels,
		consumer: "worker-" + uuid.NewString()[:8],
		log:      logger.Component("stream_worker"),
	}
}

// Start reads the stream until ctx is cancelled.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, StreamKey, consumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.log.Error().Err(err).Msg("Error creating consumer group")
	}

	w.log.Info().Str("consumer", w.consumer).Msg("Starting Redis stream worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping Redis stream worker")
			return
		default:
		}

		entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: w.consumer,
			Streams:  []string{StreamKey, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, go_redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.log.Warn().Err(err).Msg("Error reading from stream")
			sleep(ctx, time.Second)
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				if err := w.processMessage(ctx, msg.Values); err != nil {
					// без ACK событие останется в PEL и будет видно в XPENDING
					w.log.Error().Err(err).Str("id", msg.ID).Msg("Failed to process bot event")
					continue
				}
				if err := w.rdb.XAck(ctx, StreamKey, consumerGroup, msg.ID).Err(); err != nil {
					w.log.Warn().Err(err).Str("id", msg.ID).Msg("Failed to ack bot event")
				}
			}
		}
	}
}

func (w *RedisStreamWorker) processMessage(ctx context.Context, values map[string]interface{}) error {
	eventType, _ := values["type"].(string)
	if eventType != EventBotRemoved {
		w.log.Debug().Str("type", eventType).Msg("Unknown bot event skipped")
		return nil
	}

	raw, ok := values["channel_id"].(string)
	if !ok {
		w.log.Warn().Interface("values", values).Msg("Invalid channel_id in bot_removed event")
		return nil
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		w.log.Warn().Err(err).Str("channel_id", raw).Msg("Error parsing channel_id")
		return nil
	}

	n, err := w.channels.DeactivateByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	w.log.Info().Int64("chat_id", chatID).Int("deactivated", n).Msg("Processed bot_removed event")
	return nil
}

// StreamPublisher publishes bot events to the stream.
type StreamPublisher struct {
	rdb go_redis.Cmdable
}

func NewStreamPublisher(rdb go_redis.Cmdable) *StreamPublisher {
	return &StreamPublisher{rdb: rdb}
}

func (p *StreamPublisher) BotRemoved(ctx context.Context, chatID int64) error {
	return p.rdb.XAdd(ctx, &go_redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":       EventBotRemoved,
			"channel_id": strconv.FormatInt(chatID, 10),
		},
	}).Err()
}

// DirectEvents handles bot events in process when Redis is not configured.
type DirectEvents struct {
	channels ChannelDeactivator
}

func NewDirectEvents(channels ChannelDeactivator) *DirectEvents {
	return &DirectEvents{channels: channels}
}

func (d *DirectEvents) BotRemoved(ctx context.Context, chatID int64) error {
	_, err := d.channels.DeactivateByChatID(ctx, chatID)
	return err
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
