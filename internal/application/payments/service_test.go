package payments

import (
	"context"
	"testing"
	"time"

	"clubhub-backend/internal/clock"
	"clubhub-backend/internal/domain"
	"clubhub-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func setupPaymentTest(t *testing.T) (*Service, *FakeProvider, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.PaymentTransaction{}, &domain.PaymentEvent{},
	))
	provider := &FakeProvider{}
	svc := &Service{DB: db, Clock: clock.NewFixed(baseTime), Provider: provider}
	return svc, provider, db
}

func paymentInput(orgID uuid.UUID, key string) InitiatePaymentInput {
	return InitiatePaymentInput{
		OrgID:          orgID,
		ReservationID:  uuid.New(),
		UserID:         uuid.New(),
		AmountCents:    2500,
		Currency:       "usd",
		IdempotencyKey: key,
	}
}

func TestInitiatePayment_Succeeds(t *testing.T) {
	svc, provider, _ := setupPaymentTest(t)
	in := paymentInput(uuid.New(), "pay-1")

	txn, err := svc.InitiatePayment(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, txn.Status)
	assert.Equal(t, "fake", txn.ProviderKey)
	assert.Equal(t, 2, txn.Version)
	require.NotNil(t, txn.ProviderTransactionID)
	require.NotNil(t, txn.SettledAt)
	assert.Equal(t, baseTime, txn.SettledAt.UTC())
	assert.Equal(t, 1, provider.InitiateCalls)
}

func TestInitiatePayment_Decline(t *testing.T) {
	svc, provider, _ := setupPaymentTest(t)
	provider.DeclineNext = true
	provider.DeclineCode = "insufficient_funds"

	txn, err := svc.InitiatePayment(context.Background(), paymentInput(uuid.New(), "pay-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, txn.Status)
	require.NotNil(t, txn.FailureCode)
	assert.Equal(t, "insufficient_funds", *txn.FailureCode)
}

func TestInitiatePayment_Validation(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)

	in := paymentInput(uuid.New(), "")
	_, err := svc.InitiatePayment(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, err.(*domain.Error).Kind)

	in = paymentInput(uuid.New(), "pay-1")
	in.AmountCents = 0
	_, err = svc.InitiatePayment(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, err.(*domain.Error).Kind)
}

func TestInitiatePayment_ProviderCalledOnceAcrossReplays(t *testing.T) {
	svc, provider, _ := setupPaymentTest(t)
	in := paymentInput(uuid.New(), "pay-1")

	first, err := svc.InitiatePayment(context.Background(), in)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		replay, err := svc.InitiatePayment(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first.ID, replay.ID)
		assert.Equal(t, first.Status, replay.Status)
		assert.Equal(t, first.Version, replay.Version)
	}
	assert.Equal(t, 1, provider.InitiateCalls)
}

func TestInitiatePayment_ReplayParameterMismatch(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)
	orgID := uuid.New()
	in := paymentInput(orgID, "pay-1")

	_, err := svc.InitiatePayment(context.Background(), in)
	require.NoError(t, err)

	mismatch := in
	mismatch.AmountCents = 9900
	_, err = svc.InitiatePayment(context.Background(), mismatch)
	require.Error(t, err)
	assert.Equal(t, domain.KindIdempotencyConflict, err.(*domain.Error).Kind)

	mismatch = in
	mismatch.ReservationID = uuid.New()
	_, err = svc.InitiatePayment(context.Background(), mismatch)
	require.Error(t, err)
	assert.Equal(t, domain.KindIdempotencyConflict, err.(*domain.Error).Kind)
}

func TestInitiatePayment_SameKeyDifferentOrg(t *testing.T) {
	svc, provider, _ := setupPaymentTest(t)

	_, err := svc.InitiatePayment(context.Background(), paymentInput(uuid.New(), "pay-1"))
	require.NoError(t, err)
	_, err = svc.InitiatePayment(context.Background(), paymentInput(uuid.New(), "pay-1"))
	require.NoError(t, err)
	assert.Equal(t, 2, provider.InitiateCalls)
}

func TestProcessWebhook_SettlesInitiated(t *testing.T) {
	svc, _, db := setupPaymentTest(t)

	providerTxID := "fake_webhook_1"
	txn := &domain.PaymentTransaction{
		OrgID: uuid.New(), ReservationID: uuid.New(), UserID: uuid.New(),
		ProviderKey: "fake", ProviderTransactionID: &providerTxID,
		IdempotencyKey: "pay-1", AmountCents: 2500, Currency: "usd",
		Status: domain.PaymentStatusInitiated, Version: 1,
	}
	require.NoError(t, db.Create(txn).Error)

	got, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		ProviderEventID:       "evt-1",
		ProviderTransactionID: providerTxID,
		Status:                domain.PaymentStatusSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, got.Status)
	assert.Equal(t, 2, got.Version)
	assert.NotNil(t, got.SettledAt)

	var events int64
	require.NoError(t, db.Model(&domain.PaymentEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestProcessWebhook_UnknownTransaction(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)

	_, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		ProviderTransactionID: "fake_nope",
		Status:                domain.PaymentStatusSucceeded,
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, err.(*domain.Error).Kind)
}

func TestProcessWebhook_UnsupportedStatus(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)

	_, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		ProviderTransactionID: "fake_x",
		Status:                "exploded",
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, err.(*domain.Error).Kind)
}

func TestProcessWebhook_TerminalStatesImmutable(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)

	txn, err := svc.InitiatePayment(context.Background(), paymentInput(uuid.New(), "pay-1"))
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusSucceeded, txn.Status)

	// A late "failed" webhook against a succeeded transaction changes nothing
	got, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		ProviderEventID:       "evt-late",
		ProviderTransactionID: *txn.ProviderTransactionID,
		Status:                domain.PaymentStatusFailed,
		FailureCode:           "card_declined",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, got.Status)
	assert.Equal(t, txn.Version, got.Version)
	assert.Nil(t, got.FailureCode)
}

func TestProcessWebhook_DuplicateFailedPreservesVersion(t *testing.T) {
	svc, _, db := setupPaymentTest(t)

	providerTxID := "fake_webhook_2"
	txn := &domain.PaymentTransaction{
		OrgID: uuid.New(), ReservationID: uuid.New(), UserID: uuid.New(),
		ProviderKey: "fake", ProviderTransactionID: &providerTxID,
		IdempotencyKey: "pay-1", AmountCents: 2500, Currency: "usd",
		Status: domain.PaymentStatusInitiated, Version: 1,
	}
	require.NoError(t, db.Create(txn).Error)

	first, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		ProviderEventID:       "evt-f1",
		ProviderTransactionID: providerTxID,
		Status:                domain.PaymentStatusFailed,
		FailureCode:           "card_declined",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Version)

	second, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		ProviderEventID:       "evt-f2",
		ProviderTransactionID: providerTxID,
		Status:                domain.PaymentStatusFailed,
		FailureCode:           "card_declined",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, second.Status)
	assert.Equal(t, 2, second.Version)
}

func TestProcessWebhook_ReplayedEventUnknownTransaction(t *testing.T) {
	svc, _, db := setupPaymentTest(t)
	event := domain.PaymentEvent{
		ProviderEventID: "evt-orphan",
		EventType:       "payment.succeeded",
		Payload:         datatypes.JSON([]byte(`{}`)),
	}
	require.NoError(t, db.Create(&event).Error)

	_, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		ProviderEventID:       "evt-orphan",
		ProviderTransactionID: "fake_never_issued",
		Status:                domain.PaymentStatusSucceeded,
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, err.(*domain.Error).Kind)
}

func TestProcessWebhook_DuplicateEventIDAcknowledged(t *testing.T) {
	svc, _, db := setupPaymentTest(t)

	providerTxID := "fake_webhook_3"
	txn := &domain.PaymentTransaction{
		OrgID: uuid.New(), ReservationID: uuid.New(), UserID: uuid.New(),
		ProviderKey: "fake", ProviderTransactionID: &providerTxID,
		IdempotencyKey: "pay-1", AmountCents: 2500, Currency: "usd",
		Status: domain.PaymentStatusInitiated, Version: 1,
	}
	require.NoError(t, db.Create(txn).Error)

	in := WebhookInput{
		ProviderEventID:       "evt-dup",
		ProviderTransactionID: providerTxID,
		Status:                domain.PaymentStatusSucceeded,
	}
	_, err := svc.ProcessWebhook(context.Background(), in)
	require.NoError(t, err)

	got, err := svc.ProcessWebhook(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, got.Status)

	var events int64
	require.NoError(t, db.Model(&domain.PaymentEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestRefundPayment_FromSucceeded(t *testing.T) {
	svc, provider, _ := setupPaymentTest(t)
	orgID := uuid.New()

	txn, err := svc.InitiatePayment(context.Background(), paymentInput(orgID, "pay-1"))
	require.NoError(t, err)

	refunded, err := svc.RefundPayment(context.Background(), txn.ID, orgID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, refunded.Status)
	assert.Equal(t, 3, refunded.Version)
	assert.NotNil(t, refunded.RefundedAt)
	assert.Equal(t, 1, provider.RefundCalls)

	// Refunding again is a no-op without another provider call
	again, err := svc.RefundPayment(context.Background(), txn.ID, orgID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Version)
	assert.Equal(t, 1, provider.RefundCalls)
}

func TestRefundPayment_NonSucceededRejected(t *testing.T) {
	svc, provider, _ := setupPaymentTest(t)
	orgID := uuid.New()
	provider.DeclineNext = true

	txn, err := svc.InitiatePayment(context.Background(), paymentInput(orgID, "pay-1"))
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusFailed, txn.Status)

	_, err = svc.RefundPayment(context.Background(), txn.ID, orgID)
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidState, err.(*domain.Error).Kind)
	assert.Equal(t, 0, provider.RefundCalls)
}

func TestRefundPayment_ProviderFailureLeavesStateUnchanged(t *testing.T) {
	svc, provider, db := setupPaymentTest(t)
	orgID := uuid.New()

	txn, err := svc.InitiatePayment(context.Background(), paymentInput(orgID, "pay-1"))
	require.NoError(t, err)

	provider.FailRefund = true
	_, err = svc.RefundPayment(context.Background(), txn.ID, orgID)
	require.Error(t, err)
	assert.Equal(t, domain.KindProviderFailure, err.(*domain.Error).Kind)

	var persisted domain.PaymentTransaction
	require.NoError(t, db.First(&persisted, "id = ?", txn.ID).Error)
	assert.Equal(t, domain.PaymentStatusSucceeded, persisted.Status)
	assert.Equal(t, txn.Version, persisted.Version)
}

func TestRefundPayment_CrossOrgIsNotFound(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)

	txn, err := svc.InitiatePayment(context.Background(), paymentInput(uuid.New(), "pay-1"))
	require.NoError(t, err)

	_, err = svc.RefundPayment(context.Background(), txn.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, err.(*domain.Error).Kind)
}

func TestGetTransaction_Ownership(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)
	orgID := uuid.New()
	in := paymentInput(orgID, "pay-1")

	txn, err := svc.InitiatePayment(context.Background(), in)
	require.NoError(t, err)

	got, err := svc.GetTransaction(context.Background(), txn.ID, domain.Actor{UserID: in.UserID, OrgID: orgID})
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)

	_, err = svc.GetTransaction(context.Background(), txn.ID, domain.Actor{UserID: uuid.New(), OrgID: orgID, Role: constants.Member})
	require.Error(t, err)
	assert.Equal(t, domain.KindNotAuthorized, err.(*domain.Error).Kind)

	// Cross-user reads need the view_finance capability, not just management
	_, err = svc.GetTransaction(context.Background(), txn.ID, domain.Actor{UserID: uuid.New(), OrgID: orgID, Role: constants.Staff, IsManagement: true})
	require.NoError(t, err)

	_, err = svc.GetTransaction(context.Background(), txn.ID, domain.Actor{UserID: in.UserID, OrgID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, err.(*domain.Error).Kind)
}

func TestListMyTransactions(t *testing.T) {
	svc, _, _ := setupPaymentTest(t)
	orgID, userID := uuid.New(), uuid.New()

	in := paymentInput(orgID, "pay-1")
	in.UserID = userID
	_, err := svc.InitiatePayment(context.Background(), in)
	require.NoError(t, err)

	other := paymentInput(orgID, "pay-2")
	_, err = svc.InitiatePayment(context.Background(), other)
	require.NoError(t, err)

	list, err := svc.ListMyTransactions(context.Background(), orgID, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pay-1", list[0].IdempotencyKey)
}
