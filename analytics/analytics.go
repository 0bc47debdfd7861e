// Package analytics reports anonymous product events to PostHog.
//
// Events carry a per-installation random id, never user data. The sink is
// optional; when no API key is configured the runner falls back to its
// built-in no-op.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"

	"github.com/pomodhq/pomod/storage"
)

// InstanceIDKey is the storage key holding the installation's anonymous id.
const InstanceIDKey = "instance-id"

// Config configures the PostHog sink.
type Config struct {
	// APIKey is the PostHog project API key.
	APIKey string
	// Endpoint is the PostHog host, e.g. "https://eu.i.posthog.com".
	Endpoint string
	// AppVersion is attached to every event.
	AppVersion string
}

// PostHog delivers events to PostHog in batches.
type PostHog struct {
	client     posthog.Client
	distinctID string
	appVersion string
	logger     *slog.Logger
}

// NewPostHog creates the sink, minting and persisting an instance id on
// first use so events from one installation correlate across restarts.
func NewPostHog(cfg Config, st storage.Store, logger *slog.Logger) (*PostHog, error) {
	id, err := instanceID(context.Background(), st)
	if err != nil {
		return nil, fmt.Errorf("resolving instance id: %w", err)
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("creating posthog client: %w", err)
	}

	return &PostHog{
		client:     client,
		distinctID: id,
		appVersion: cfg.AppVersion,
		logger:     logger,
	}, nil
}

// Capture enqueues one event. Delivery is batched and asynchronous; a
// failed enqueue is logged, never surfaced to the timer.
func (p *PostHog) Capture(event string, properties map[string]any) {
	props := posthog.NewProperties().Set("app_version", p.appVersion)
	for k, v := range properties {
		props[k] = v
	}

	err := p.client.Enqueue(posthog.Capture{
		DistinctId: p.distinctID,
		Event:      event,
		Properties: props,
	})
	if err != nil {
		p.logger.Warn("failed to enqueue analytics event", "event", event, "error", err)
	}
}

// Close flushes buffered events.
func (p *PostHog) Close() error {
	return p.client.Close()
}

// instanceID loads the persisted anonymous id, minting one if absent.
func instanceID(ctx context.Context, st storage.Store) (string, error) {
	id, err := st.Get(ctx, InstanceIDKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	id = uuid.New().String()
	if err := st.Set(ctx, InstanceIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}
