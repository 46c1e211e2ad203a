package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
	"github.com/jwalitptl/showcase-api/pkg/logger"
	"github.com/jwalitptl/showcase-api/pkg/messaging"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// RetryAttempts is the number of publish attempts before an event is
	// marked FAILED.
	RetryAttempts int
	// RetryDelay is the base backoff; it doubles with every failed attempt.
	RetryDelay time.Duration
	Channel    string
	// LeaseTimeout is how long a claimed event stays invisible to other
	// workers while it is being published. Zero means DefaultLeaseTimeout.
	LeaseTimeout time.Duration
}

const DefaultLeaseTimeout = 30 * time.Second

func (c OutboxProcessorConfig) Validate() error {
	var errs []error
	if c.BatchSize <= 0 {
		errs = append(errs, errors.New("BatchSize must be greater than 0"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("PollInterval must be greater than 0"))
	}
	if c.RetryAttempts <= 0 {
		errs = append(errs, errors.New("RetryAttempts must be greater than 0"))
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, errors.New("RetryDelay must be greater than 0"))
	}
	if c.Channel == "" {
		errs = append(errs, errors.New("Channel is required"))
	}
	if c.LeaseTimeout < 0 {
		errs = append(errs, errors.New("LeaseTimeout must not be negative"))
	}
	return errors.Join(errs...)
}

// OutboxProcessor relays committed outbox events to the broker. Events are
// claimed with FOR UPDATE SKIP LOCKED and leased by pushing retry_at forward,
// so several workers can run side by side and no store lock is held while
// publishing.
type OutboxProcessor struct {
	store   repository.Store
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	store repository.Store,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outbox processor config: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	if config.LeaseTimeout == 0 {
		config.LeaseTimeout = DefaultLeaseTimeout
	}
	return &OutboxProcessor{
		store:   store,
		broker:  broker,
		config:  config,
		logger:  log.With("component", "outbox-processor"),
		metrics: m,
		now:     time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch publishes up to BatchSize due events and returns how many were
// delivered.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	events, err := p.lease(ctx)
	if err != nil {
		return 0, err
	}

	repo := p.store.Repos().Outbox
	delivered := 0
	for _, event := range events {
		ok, err := p.processEvent(ctx, repo, event)
		if err != nil {
			return delivered, err
		}
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

// lease claims due events in a short transaction and hides them from other
// workers until LeaseTimeout passes. An event whose worker dies mid-publish
// becomes due again once its lease expires.
func (p *OutboxProcessor) lease(ctx context.Context) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent
	err := p.store.WithTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		events, err = tx.Outbox.GetPendingEventsWithLock(ctx, p.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		until := p.now().Add(p.config.LeaseTimeout)
		for _, event := range events {
			if err := tx.Outbox.UpdateStatus(ctx, event.ID, model.OutboxStatusPending, nil, &until); err != nil {
				return fmt.Errorf("failed to lease event %s: %w", event.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// processEvent returns an error only when the status update itself fails.
func (p *OutboxProcessor) processEvent(ctx context.Context, repo repository.OutboxRepository, event *model.OutboxEvent) (bool, error) {
	start := p.now()
	msg := &messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Headers: event.Headers,
		Payload: event.Payload,
	}

	pubErr := p.broker.Publish(ctx, p.config.Channel, msg)
	if pubErr == nil {
		if err := repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil, nil); err != nil {
			return false, fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
		}
		p.metrics.OutboxProcessed(start)
		return true, nil
	}

	errStr := pubErr.Error()
	attempts := event.RetryCount + 1
	if attempts >= p.config.RetryAttempts {
		p.metrics.OutboxFailed(event.EventType, false)
		p.logger.Error(pubErr, "Giving up on event", "event_id", event.ID.String(), "attempts", attempts)
		if err := repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errStr, nil); err != nil {
			return false, fmt.Errorf("failed to mark event %s failed: %w", event.ID, err)
		}
		return false, nil
	}

	retryAt := p.now().Add(p.backoff(event.RetryCount))
	p.metrics.OutboxFailed(event.EventType, true)
	p.logger.Warn("Publish failed, will retry", "event_id", event.ID.String(), "attempts", attempts, "error", errStr)
	if err := repo.UpdateStatus(ctx, event.ID, model.OutboxStatusPending, &errStr, &retryAt); err != nil {
		return false, fmt.Errorf("failed to reschedule event %s: %w", event.ID, err)
	}
	return false, nil
}

func (p *OutboxProcessor) backoff(retries int) time.Duration {
	if retries > 10 {
		retries = 10
	}
	return p.config.RetryDelay * time.Duration(1<<uint(retries))
}
