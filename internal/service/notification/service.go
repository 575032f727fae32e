package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/transplant-api/internal/email"
	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/repository"
	"github.com/jwalitptl/transplant-api/pkg/logger"
	"github.com/jwalitptl/transplant-api/pkg/messaging"
)

// Service turns published allocation lifecycle events into recipient mail. It
// consumes the broker channels the outbox processor publishes to, so delivery
// is decoupled from the transaction that produced the event.
type Service struct {
	broker     messaging.Broker
	recipients repository.RecipientRepository
	organs     repository.OrganRepository
	email      email.Service
	logger     *logger.Logger
}

func NewService(broker messaging.Broker, recipients repository.RecipientRepository, organs repository.OrganRepository, emailSvc email.Service, logger *logger.Logger) *Service {
	return &Service{
		broker:     broker,
		recipients: recipients,
		organs:     organs,
		email:      emailSvc,
		logger:     logger,
	}
}

type eventPayload struct {
	AllocationID     uuid.UUID `json:"allocation_id"`
	OrganID          uuid.UUID `json:"organ_id"`
	RecipientID      uuid.UUID `json:"recipient_id"`
	SurgeryID        uuid.UUID `json:"surgery_id"`
	ResponseDeadline time.Time `json:"response_deadline"`
	ScheduledAt      time.Time `json:"scheduled_at"`
}

// Start subscribes to the lifecycle channels and blocks until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	channels := map[string]func(context.Context, *eventPayload) error{
		model.EventAllocationCreated:  s.onAllocationCreated,
		model.EventAllocationRejected: s.onAllocationClosed("declined by the care team"),
		model.EventAllocationExpired:  s.onAllocationClosed("withdrawn after the response window closed"),
		model.EventSurgeryScheduled:   s.onSurgeryScheduled,
	}

	for channel, handler := range channels {
		msgChan, err := s.broker.Subscribe(ctx, channel)
		if err != nil {
			return err
		}
		go s.consume(ctx, channel, msgChan, handler)
	}

	<-ctx.Done()
	return nil
}

func (s *Service) consume(ctx context.Context, channel string, msgChan <-chan []byte, handler func(context.Context, *eventPayload) error) {
	for raw := range msgChan {
		var payload eventPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			s.logger.Error(err, "failed to decode event payload", "channel", channel)
			continue
		}
		if err := handler(ctx, &payload); err != nil {
			s.logger.Error(err, "failed to handle event", "channel", channel)
		}
	}
}

func (s *Service) onAllocationCreated(ctx context.Context, payload *eventPayload) error {
	recipient, organ, err := s.lookup(ctx, payload)
	if err != nil || recipient.Email == "" {
		return err
	}
	return s.email.SendAllocationOffer(ctx, recipient.Email, recipient.Name, organ.TypeName,
		payload.ResponseDeadline.Format(time.RFC1123))
}

func (s *Service) onAllocationClosed(outcome string) func(context.Context, *eventPayload) error {
	return func(ctx context.Context, payload *eventPayload) error {
		recipient, organ, err := s.lookup(ctx, payload)
		if err != nil || recipient.Email == "" {
			return err
		}
		return s.email.SendAllocationOutcome(ctx, recipient.Email, recipient.Name, organ.TypeName, outcome)
	}
}

func (s *Service) onSurgeryScheduled(ctx context.Context, payload *eventPayload) error {
	recipient, organ, err := s.lookup(ctx, payload)
	if err != nil || recipient.Email == "" {
		return err
	}
	return s.email.SendSurgeryScheduled(ctx, recipient.Email, recipient.Name, organ.TypeName,
		payload.ScheduledAt.Format(time.RFC1123))
}

func (s *Service) lookup(ctx context.Context, payload *eventPayload) (*model.Recipient, *model.Organ, error) {
	recipient, err := s.recipients.Get(ctx, payload.RecipientID)
	if err != nil {
		return nil, nil, err
	}
	organ, err := s.organs.Get(ctx, payload.OrganID)
	if err != nil {
		return nil, nil, err
	}
	return recipient, organ, nil
}
