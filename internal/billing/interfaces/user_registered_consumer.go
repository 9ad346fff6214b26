package interfaces

import (
	"context"
	"errors"
	"log"

	"ecometer/internal/billing/application"
	"ecometer/internal/eventing"
	identity "ecometer/internal/identity/domain"
)

// ConsumerName identifies the config initializer in the processed-event
// store.
const ConsumerName = "billing.config_initializer"

// RegisterUserRegisteredConsumer subscribes the default-config
// initializer to UserRegistered events. The processed store makes
// redeliveries no-ops on top of the initializer's own existence check.
func RegisterUserRegisteredConsumer(bus eventing.Bus, configs *application.ConfigService, processed eventing.ProcessedStore, logger *log.Logger) error {
	if bus == nil {
		return errors.New("billing consumer: nil bus")
	}
	if configs == nil {
		return errors.New("billing consumer: nil config service")
	}
	if logger == nil {
		logger = log.Default()
	}

	handler := func(ctx context.Context, event any) error {
		registered, ok := event.(identity.UserRegistered)
		if !ok {
			return nil
		}
		if err := configs.InitializeDefaults(ctx, registered.UserID); err != nil {
			logger.Printf("billing consumer: init defaults failed user=%s err=%v", registered.UserID, err)
			return err
		}
		return nil
	}

	eventing.Subscribe(bus, eventing.EventTypeOf[identity.UserRegistered](), ConsumerName, handler, processed)
	return nil
}
