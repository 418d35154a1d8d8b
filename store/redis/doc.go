// Package redis implements task.Backend on Redis (or Valkey).
//
// Each task is a Hash under "howa:task:{id}" with a retention TTL refreshed
// on every write. The queue is a single List of JSON envelopes
// ({"task_id": "..."}) consumed with BLPOP, which gives competing-consumer
// delivery across any number of worker processes.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client, redisstore.WithTTL(time.Hour))
//	if err := s.Ping(ctx); err != nil { ... }
package redis
