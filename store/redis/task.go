package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/howa"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// transitionScript moves a task to a new status only if the record exists
// and is not terminal, then refreshes its TTL. HSET on a missing key would
// resurrect an expired task as a partial record, so existence is checked
// inside the script.
//
// KEYS[1] task key
// ARGV[1] next status, ARGV[2] updated_at, ARGV[3] ttl in ms (0 = none),
// ARGV[4] payload field ("" = none), ARGV[5] payload value.
//
// Returns 1 on success, 0 if the record is missing, -1 if it is terminal.
var transitionScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
local cur = redis.call('HGET', KEYS[1], 'status')
if cur ~= 'queued' and cur ~= 'processing' then
  return -1
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'updated_at', ARGV[2])
if ARGV[4] ~= '' then
  redis.call('HSET', KEYS[1], ARGV[4], ARGV[5])
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// Create stores the task as a Hash, applies the TTL, and pushes its
// envelope onto the queue in a single MULTI/EXEC.
func (s *Store) Create(ctx context.Context, req task.Request) (*task.Task, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("howa/redis: marshal request: %w", err)
	}

	t := &task.Task{
		Entity:  howa.NewEntity(),
		ID:      id.NewTaskID(),
		Status:  task.StatusQueued,
		Request: req,
	}

	envelope, err := encodeEnvelope(t.ID)
	if err != nil {
		return nil, err
	}

	key := s.taskKey(t.ID.String())
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		fieldID:        t.ID.String(),
		fieldStatus:    string(t.Status),
		fieldRequest:   string(payload),
		fieldCreatedAt: formatTime(t.CreatedAt),
		fieldUpdatedAt: formatTime(t.UpdatedAt),
	})
	if s.ttl > 0 {
		pipe.PExpire(ctx, key, s.ttl)
	}
	pipe.RPush(ctx, s.queueName, envelope)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, unavailable("create task", err)
	}
	return t, nil
}

// Get retrieves a task by ID.
func (s *Store) Get(ctx context.Context, taskID id.TaskID) (*task.Task, error) {
	vals, err := s.client.HGetAll(ctx, s.taskKey(taskID.String())).Result()
	if err != nil {
		return nil, unavailable("get task", err)
	}
	if len(vals) == 0 {
		return nil, howa.ErrTaskNotFound
	}
	return s.mapToTask(taskID, vals), nil
}

// MarkProcessing moves a non-terminal task to processing.
func (s *Store) MarkProcessing(ctx context.Context, taskID id.TaskID) error {
	return s.transition(ctx, taskID, task.StatusProcessing, "", "")
}

// MarkCompleted stores the result and moves the task to completed.
func (s *Store) MarkCompleted(ctx context.Context, taskID id.TaskID, result *task.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("howa/redis: marshal result: %w", err)
	}
	return s.transition(ctx, taskID, task.StatusCompleted, fieldResult, string(data))
}

// MarkFailed stores the diagnostic and moves the task to failed.
func (s *Store) MarkFailed(ctx context.Context, taskID id.TaskID, message string) error {
	return s.transition(ctx, taskID, task.StatusFailed, fieldError, message)
}

func (s *Store) transition(ctx context.Context, taskID id.TaskID, next task.Status, field, value string) error {
	key := s.taskKey(taskID.String())
	now := formatTime(time.Now().UTC())

	res, err := transitionScript.Run(ctx, s.client, []string{key},
		string(next), now, s.ttl.Milliseconds(), field, value,
	).Int()
	if err != nil {
		return unavailable("mark "+string(next), err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return howa.ErrTaskNotFound
	default:
		return fmt.Errorf("howa/redis: mark %s on task %s: %w", next, taskID, howa.ErrInvalidTransition)
	}
}

// ── helpers ──

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// parseTime accepts RFC3339Nano and, for records written by older
// producers, Unix seconds.
func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}

// mapToTask reconstructs a task from its Hash fields. Corrupt fields
// degrade instead of failing the read: an unknown status becomes failed
// with a diagnostic, and an unparsable result is dropped.
func (s *Store) mapToTask(taskID id.TaskID, m map[string]string) *task.Task {
	t := &task.Task{
		Entity: howa.Entity{
			CreatedAt: parseTime(m[fieldCreatedAt]),
			UpdatedAt: parseTime(m[fieldUpdatedAt]),
		},
		ID:    taskID,
		Error: m[fieldError],
	}

	if raw := m[fieldRequest]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &t.Request); err != nil {
			s.logger.Warn("stored request is not valid JSON",
				slog.String("task_id", taskID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if raw := m[fieldResult]; raw != "" {
		var r task.Result
		if err := json.Unmarshal([]byte(raw), &r); err == nil {
			t.Result = &r
		} else {
			s.logger.Warn("stored result is not valid JSON",
				slog.String("task_id", taskID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	status, ok := task.ParseStatus(m[fieldStatus])
	if !ok {
		t.Status = task.StatusFailed
		t.Result = nil
		t.Error = fmt.Sprintf("unrecognised stored status %q", m[fieldStatus])
		return t
	}
	t.Status = status
	return t
}
