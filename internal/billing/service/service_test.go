package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/smallbiznis/scriptly/internal/billing/domain"
	"github.com/smallbiznis/scriptly/internal/clock"
	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/scriptly/internal/subscription/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestReconciler(t *testing.T) (billingdomain.Reconciler, *gorm.DB, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&subscriptiondomain.SubscriptionState{},
		&billingdomain.BillingEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	rec := NewReconciler(ReconcilerParam{
		DB:               db,
		Log:              zap.NewNop(),
		GenID:            node,
		Clock:            clk,
		SubscriptionRepo: subscriptionrepo.NewRepository(),
	})
	return rec, db, clk
}

func loadState(t *testing.T, db *gorm.DB, subjectID string) subscriptiondomain.SubscriptionState {
	t.Helper()
	var state subscriptiondomain.SubscriptionState
	require.NoError(t, db.First(&state, "subject_id = ?", subjectID).Error)
	return state
}

func TestApplyInvoicePaidActivates(t *testing.T) {
	rec, db, _ := newTestReconciler(t)

	periodEnd := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	result, err := rec.Apply(context.Background(), billingdomain.ExternalEvent{
		ExternalID:       "evt_inv_1",
		Type:             "invoice.paid",
		SubjectID:        "user_1",
		CurrentPeriodEnd: &periodEnd,
		SubscriptionID:   "sub_123",
		CustomerID:       "cus_123",
		RawPayload:       []byte(`{"id":"evt_inv_1"}`),
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.ResultApplied, result)

	state := loadState(t, db, "user_1")
	require.Equal(t, subscriptiondomain.StatusActive, state.Status)
	require.NotNil(t, state.CurrentPeriodEnd)
	require.True(t, periodEnd.Equal(*state.CurrentPeriodEnd))
	require.Equal(t, "sub_123", *state.ExternalSubscriptionID)
	require.Equal(t, "cus_123", *state.ExternalCustomerID)
}

func TestApplySubscriptionUpdatedMapsStatus(t *testing.T) {
	rec, db, _ := newTestReconciler(t)
	ctx := context.Background()

	cases := map[string]subscriptiondomain.Status{
		"active":     subscriptiondomain.StatusActive,
		"trialing":   subscriptiondomain.StatusTrialing,
		"past_due":   subscriptiondomain.StatusPastDue,
		"unpaid":     subscriptiondomain.StatusUnpaid,
		"canceled":   subscriptiondomain.StatusCanceled,
		"incomplete": subscriptiondomain.StatusInactive,
	}
	i := 0
	for providerStatus, want := range cases {
		i++
		result, err := rec.Apply(ctx, billingdomain.ExternalEvent{
			ExternalID:     fmt.Sprintf("evt_upd_%d", i),
			Type:           "customer.subscription.updated",
			SubjectID:      "user_1",
			ProviderStatus: providerStatus,
			SubscriptionID: "sub_123",
			RawPayload:     []byte(`{}`),
		})
		require.NoError(t, err)
		require.Equal(t, billingdomain.ResultApplied, result)
		require.Equal(t, want, loadState(t, db, "user_1").Status, "provider status %s", providerStatus)
	}
}

func TestApplySubscriptionDeletedCancelsAndClears(t *testing.T) {
	rec, db, _ := newTestReconciler(t)
	ctx := context.Background()

	periodEnd := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	_, err := rec.Apply(ctx, billingdomain.ExternalEvent{
		ExternalID:       "evt_1",
		Type:             "invoice.paid",
		SubjectID:        "user_1",
		CurrentPeriodEnd: &periodEnd,
		SubscriptionID:   "sub_123",
		CustomerID:       "cus_123",
		RawPayload:       []byte(`{}`),
	})
	require.NoError(t, err)

	result, err := rec.Apply(ctx, billingdomain.ExternalEvent{
		ExternalID: "evt_2",
		Type:       "customer.subscription.deleted",
		SubjectID:  "user_1",
		RawPayload: []byte(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.ResultApplied, result)

	state := loadState(t, db, "user_1")
	require.Equal(t, subscriptiondomain.StatusCanceled, state.Status)
	require.Nil(t, state.CurrentPeriodEnd)
	require.Nil(t, state.ExternalSubscriptionID)
	require.Nil(t, state.ExternalCustomerID)
}

func TestApplyReplayIsNoOp(t *testing.T) {
	rec, db, _ := newTestReconciler(t)
	ctx := context.Background()

	// First delivery moves the subject to PAST_DUE.
	result, err := rec.Apply(ctx, billingdomain.ExternalEvent{
		ExternalID:     "evt_1",
		Type:           "customer.subscription.updated",
		SubjectID:      "user_1",
		ProviderStatus: "past_due",
		SubscriptionID: "sub_123",
		RawPayload:     []byte(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.ResultApplied, result)
	require.Equal(t, subscriptiondomain.StatusPastDue, loadState(t, db, "user_1").Status)

	// A later event activates them again.
	result, err = rec.Apply(ctx, billingdomain.ExternalEvent{
		ExternalID:     "evt_2",
		Type:           "customer.subscription.updated",
		SubjectID:      "user_1",
		ProviderStatus: "active",
		SubscriptionID: "sub_123",
		RawPayload:     []byte(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.ResultApplied, result)

	// Redelivery of evt_1 must not drag the state back to PAST_DUE.
	result, err = rec.Apply(ctx, billingdomain.ExternalEvent{
		ExternalID:     "evt_1",
		Type:           "customer.subscription.updated",
		SubjectID:      "user_1",
		ProviderStatus: "past_due",
		SubscriptionID: "sub_123",
		RawPayload:     []byte(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.ResultDuplicate, result)
	require.Equal(t, subscriptiondomain.StatusActive, loadState(t, db, "user_1").Status)

	var eventCount int64
	require.NoError(t, db.Model(&billingdomain.BillingEvent{}).Count(&eventCount).Error)
	require.Equal(t, int64(2), eventCount)
}

func TestApplyUnknownTypeRecordedButIgnored(t *testing.T) {
	rec, db, _ := newTestReconciler(t)

	result, err := rec.Apply(context.Background(), billingdomain.ExternalEvent{
		ExternalID: "evt_1",
		Type:       "charge.refunded",
		SubjectID:  "user_1",
		RawPayload: []byte(`{}`),
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.ResultIgnored, result)

	// The event is remembered for idempotency but no state row appears.
	var eventCount int64
	require.NoError(t, db.Model(&billingdomain.BillingEvent{}).Count(&eventCount).Error)
	require.Equal(t, int64(1), eventCount)

	var stateCount int64
	require.NoError(t, db.Model(&subscriptiondomain.SubscriptionState{}).Count(&stateCount).Error)
	require.Zero(t, stateCount)
}

func TestApplyMissingSubjectRejected(t *testing.T) {
	rec, db, _ := newTestReconciler(t)

	_, err := rec.Apply(context.Background(), billingdomain.ExternalEvent{
		ExternalID: "evt_1",
		Type:       "invoice.paid",
		SubjectID:  "  ",
		RawPayload: []byte(`{}`),
	})
	require.ErrorIs(t, err, billingdomain.ErrMissingSubject)

	var eventCount int64
	require.NoError(t, db.Model(&billingdomain.BillingEvent{}).Count(&eventCount).Error)
	require.Zero(t, eventCount)
}
