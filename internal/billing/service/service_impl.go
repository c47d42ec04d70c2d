package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/scriptly/internal/billing/domain"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	"github.com/smallbiznis/scriptly/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// errAlreadyProcessed aborts the transaction when the event row
// already exists, so a replay leaves no trace.
var errAlreadyProcessed = errors.New("event already processed")

type ReconcilerParam struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	SubscriptionRepo subscriptiondomain.Repository
}

type reconciler struct {
	db               *gorm.DB
	log              *zap.Logger
	genID            *snowflake.Node
	clock            clock.Clock
	subscriptionRepo subscriptiondomain.Repository
}

func NewReconciler(p ReconcilerParam) billingdomain.Reconciler {
	return &reconciler{
		db:               p.DB,
		log:              p.Log.Named("billing.reconciler"),
		genID:            p.GenID,
		clock:            p.Clock,
		subscriptionRepo: p.SubscriptionRepo,
	}
}

func (r *reconciler) Apply(ctx context.Context, event billingdomain.ExternalEvent) (billingdomain.ApplyResult, error) {
	if strings.TrimSpace(event.SubjectID) == "" {
		metrics.Pipeline().IncWebhookEvent(event.Type, metrics.WebhookResultRejected)
		return "", billingdomain.ErrMissingSubject
	}

	result := billingdomain.ResultApplied
	now := r.clock.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := &billingdomain.BillingEvent{
			ID:          r.genID.Generate(),
			ExternalID:  event.ExternalID,
			EventType:   event.Type,
			SubjectID:   event.SubjectID,
			Payload:     datatypes.JSON(event.RawPayload),
			ReceivedAt:  now,
			ProcessedAt: &now,
		}
		if err := tx.Create(record).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return errAlreadyProcessed
			}
			return err
		}

		applied, err := r.transition(ctx, tx, event, now)
		if err != nil {
			return err
		}
		if !applied {
			result = billingdomain.ResultIgnored
		}
		return nil
	})

	if errors.Is(err, errAlreadyProcessed) {
		r.log.Info("duplicate billing event skipped",
			zap.String("external_id", event.ExternalID),
			zap.String("event_type", event.Type),
		)
		metrics.Pipeline().IncWebhookEvent(event.Type, metrics.WebhookResultDuplicate)
		return billingdomain.ResultDuplicate, nil
	}
	if err != nil {
		return "", err
	}

	if result == billingdomain.ResultIgnored {
		r.log.Info("unhandled billing event type recorded",
			zap.String("external_id", event.ExternalID),
			zap.String("event_type", event.Type),
		)
		metrics.Pipeline().IncWebhookEvent(event.Type, metrics.WebhookResultIgnored)
	} else {
		metrics.Pipeline().IncWebhookEvent(event.Type, metrics.WebhookResultApplied)
	}
	return result, nil
}

// transition folds one event into the subject's subscription row.
// Returns false for event types the reconciler does not act on.
func (r *reconciler) transition(ctx context.Context, tx *gorm.DB, event billingdomain.ExternalEvent, now time.Time) (bool, error) {
	existing, err := r.subscriptionRepo.FindBySubject(ctx, tx, event.SubjectID)
	if err != nil {
		return false, err
	}

	state := subscriptiondomain.SubscriptionState{
		SubjectID: event.SubjectID,
		Status:    subscriptiondomain.StatusInactive,
		CreatedAt: now,
	}
	if existing != nil {
		state = *existing
	}
	state.UpdatedAt = now

	switch event.Type {
	case "invoice.paid":
		state.Status = subscriptiondomain.StatusActive
		if event.CurrentPeriodEnd != nil {
			state.CurrentPeriodEnd = event.CurrentPeriodEnd
		}
		mergeExternalIDs(&state, event)

	case "customer.subscription.updated":
		state.Status = mapProviderStatus(event.ProviderStatus)
		state.CurrentPeriodEnd = event.CurrentPeriodEnd
		mergeExternalIDs(&state, event)

	case "customer.subscription.deleted":
		state.Status = subscriptiondomain.StatusCanceled
		state.CurrentPeriodEnd = nil
		state.ExternalSubscriptionID = nil
		state.ExternalCustomerID = nil

	default:
		return false, nil
	}

	if err := r.subscriptionRepo.Upsert(ctx, tx, &state); err != nil {
		return false, err
	}

	r.log.Info("subscription state reconciled",
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", event.Type),
		zap.String("status", string(state.Status)),
	)
	return true, nil
}

func mergeExternalIDs(state *subscriptiondomain.SubscriptionState, event billingdomain.ExternalEvent) {
	if event.SubscriptionID != "" {
		id := event.SubscriptionID
		state.ExternalSubscriptionID = &id
	}
	if event.CustomerID != "" {
		id := event.CustomerID
		state.ExternalCustomerID = &id
	}
}

func mapProviderStatus(providerStatus string) subscriptiondomain.Status {
	switch providerStatus {
	case "active":
		return subscriptiondomain.StatusActive
	case "trialing":
		return subscriptiondomain.StatusTrialing
	case "past_due":
		return subscriptiondomain.StatusPastDue
	case "unpaid":
		return subscriptiondomain.StatusUnpaid
	case "canceled":
		return subscriptiondomain.StatusCanceled
	default:
		return subscriptiondomain.StatusInactive
	}
}
