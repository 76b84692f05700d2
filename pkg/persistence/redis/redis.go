// Package redis provides Redis persistence of flowstate documents.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "flowcook:flowstate:"
	namesKey  = "flowcook:flowstates"
)

// Persistence stores each document as a JSON string under flowcook:flowstate:<name> and keeps
// the names in the flowcook:flowstates set.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// NewPersistence connects to the server described by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewPersistenceWithClient(client, logger), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{client: client, logger: logger}
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Flowstates(ctx context.Context) ([]string, error) {
	names, err := p.client.SMembers(ctx, namesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flowstates: %w", err)
	}

	slices.Sort(names)

	return names, nil
}

func (p *Persistence) Flowstate(ctx context.Context, name string) (*flowstate.Document, error) {
	if err := persistence.ValidateName("Flowstate", name); err != nil {
		return nil, err
	}

	data, err := p.client.Get(ctx, keyPrefix+name).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewFlowstateError("Flowstate", name, persistence.ErrFlowstateNotFound)
	}

	if err != nil {
		return nil, persistence.NewFlowstateError("Flowstate", name, err)
	}

	doc, err := flowstate.Decode(data, flowstate.JSON)
	if err != nil {
		return nil, persistence.NewFlowstateError("Flowstate", name, err)
	}

	return doc, nil
}

func (p *Persistence) SaveFlowstate(ctx context.Context, name string, doc *flowstate.Document) error {
	if err := persistence.ValidateName("SaveFlowstate", name); err != nil {
		return err
	}

	data, err := flowstate.Encode(doc, flowstate.JSON)
	if err != nil {
		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+name, data, 0)
		pipe.SAdd(ctx, namesKey, name)

		return nil
	})
	if err != nil {
		return persistence.NewFlowstateError("SaveFlowstate", name, err)
	}

	return nil
}

func (p *Persistence) DeleteFlowstate(ctx context.Context, name string) error {
	if err := persistence.ValidateName("DeleteFlowstate", name); err != nil {
		return err
	}

	var deleted *goredis.IntCmd

	_, err := p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, keyPrefix+name)
		pipe.SRem(ctx, namesKey, name)

		return nil
	})
	if err != nil {
		return persistence.NewFlowstateError("DeleteFlowstate", name, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewFlowstateError("DeleteFlowstate", name, persistence.ErrFlowstateNotFound)
	}

	return nil
}
