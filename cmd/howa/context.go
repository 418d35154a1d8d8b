package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/howa"
	"github.com/xraph/howa/capability/static"
	"github.com/xraph/howa/engine"
	redisstore "github.com/xraph/howa/store/redis"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     howa.Config
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (howa.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}

		cfg := howa.DefaultConfig()
		if path != "" {
			loaded, err := howa.LoadConfig(path)
			if err != nil {
				c.configErr = err
				return
			}
			cfg = loaded
		}

		level, err := howa.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	})
	return c.config, c.configErr
}

// withEngine connects to Redis, builds an engine over it and runs fn.
// The connection is closed when fn returns.
func (c *commandContext) withEngine(fn func(*engine.Engine) error, opts ...engine.Option) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	backend := redisstore.New(client,
		redisstore.WithConfig(cfg),
		redisstore.WithLogger(c.logger),
	)

	opts = append([]engine.Option{
		engine.WithConfig(cfg),
		engine.WithLogger(c.logger),
	}, opts...)

	eng, err := engine.New(backend, static.Set(), opts...)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	return fn(eng)
}
