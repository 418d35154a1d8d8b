package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/howa/id"
)

// envelope is the JSON document pushed onto the queue.
type envelope struct {
	TaskID string `json:"task_id"`
}

func encodeEnvelope(taskID id.TaskID) (string, error) {
	data, err := json.Marshal(envelope{TaskID: taskID.String()})
	if err != nil {
		return "", fmt.Errorf("howa/redis: encode envelope: %w", err)
	}
	return string(data), nil
}

func decodeEnvelope(raw string) (id.TaskID, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return id.Nil, fmt.Errorf("decode envelope: %w", err)
	}
	return id.ParseTaskID(env.TaskID)
}

// Push appends the task envelope to the tail of the queue.
func (s *Store) Push(ctx context.Context, taskID id.TaskID) error {
	envelope, err := encodeEnvelope(taskID)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.queueName, envelope).Err(); err != nil {
		return unavailable("push", err)
	}
	return nil
}

// PopBlocking pops the head of the queue with BLPOP. Redis serves each
// element to exactly one blocked client. Sub-second timeouts are rounded up
// to one second by the client.
func (s *Store) PopBlocking(ctx context.Context, timeout time.Duration) (id.TaskID, bool, error) {
	vals, err := s.client.BLPop(ctx, timeout, s.queueName).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return id.Nil, false, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return id.Nil, false, ctxErr
		}
		return id.Nil, false, unavailable("pop", err)
	}

	// BLPOP replies with [key, value].
	if len(vals) != 2 {
		return id.Nil, false, nil
	}

	taskID, err := decodeEnvelope(vals[1])
	if err != nil {
		s.logger.Warn("dropping malformed queue entry",
			slog.String("queue", s.queueName),
			slog.String("entry", vals[1]),
			slog.String("error", err.Error()),
		)
		return id.Nil, false, nil
	}
	return taskID, true, nil
}
