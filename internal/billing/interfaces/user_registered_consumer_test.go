package interfaces

import (
	"context"
	"log"
	"testing"
	"time"

	"ecometer/internal/billing/application"
	billingmemory "ecometer/internal/billing/infrastructure/memory"
	"ecometer/internal/eventing"
	eventingmemory "ecometer/internal/eventing/infrastructure/memory"
	identity "ecometer/internal/identity/domain"
	readingmemory "ecometer/internal/reading/infrastructure/memory"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestUserRegisteredConsumer_CreatesConfigOnce(t *testing.T) {
	ctx := context.Background()
	logger := log.New(discard{}, "", 0)

	configRepo := billingmemory.NewConfigRepository()
	configs, err := application.NewConfigService(configRepo, readingmemory.NewRepository(), logger)
	if err != nil {
		t.Fatalf("config service: %v", err)
	}

	bus := eventing.NewInMemoryBus()
	processed := eventingmemory.NewProcessedStore()
	if err := RegisterUserRegisteredConsumer(bus, configs, processed, logger); err != nil {
		t.Fatalf("register consumer: %v", err)
	}

	event := identity.UserRegistered{UserID: "u-1", Username: "alice", OccurredAt: time.Now().UTC()}
	env, err := eventing.BuildEnvelope(event, eventing.Meta{UserID: "u-1"})
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	delivery := eventing.WithEnvelope(ctx, env)

	// The same envelope delivered twice must create exactly one config.
	if err := bus.Publish(delivery, event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := bus.Publish(delivery, event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	config, err := configs.Get(ctx, "u-1")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if config.MeterIdentifier == "" {
		t.Fatalf("default config incomplete: %+v", config)
	}

	seen, err := processed.HasProcessed(ctx, env.EventID, ConsumerName)
	if err != nil || !seen {
		t.Fatalf("event not marked processed: seen=%v err=%v", seen, err)
	}
}
