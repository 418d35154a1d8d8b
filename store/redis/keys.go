package redis

// Redis key naming conventions for howa data.
// All keys share a prefix (default "howa:") to avoid collisions.

const defaultKeyPrefix = "howa:"

// defaultQueueName is the List carrying task envelopes: howa:queue
const defaultQueueName = defaultKeyPrefix + "queue"

// taskKey returns the key for a task entity: {prefix}task:{id}
func (s *Store) taskKey(id string) string { return s.keyPrefix + "task:" + id }

// Hash field names of a task record.
const (
	fieldID        = "id"
	fieldStatus    = "status"
	fieldRequest   = "request"
	fieldResult    = "result"
	fieldError     = "error"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)
