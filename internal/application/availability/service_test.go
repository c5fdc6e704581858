package availability

import (
	"context"
	"testing"
	"time"

	"clubhub-backend/internal/clock"
	"clubhub-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func setupAvailabilityTest(t *testing.T) (*Service, *gorm.DB, *clock.Fixed) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.ResourceUnit{}, &domain.ReservationHold{}, &domain.Reservation{},
	))
	clk := clock.NewFixed(baseTime)
	return &Service{DB: db, Clock: clk}, db, clk
}

func seedUnit(t *testing.T, db *gorm.DB, orgID uuid.UUID, code, kind string) *domain.ResourceUnit {
	unit := &domain.ResourceUnit{
		OrgID: orgID, Code: code, Name: code, Kind: kind,
		Capacity: 1, Status: domain.ResourceStatusActive,
	}
	require.NoError(t, db.Create(unit).Error)
	return unit
}

func seedHold(t *testing.T, db *gorm.DB, orgID uuid.UUID, unitID uuid.UUID, startsAt, endsAt, expiresAt time.Time) *domain.ReservationHold {
	hold := &domain.ReservationHold{
		OrgID: orgID, UserID: uuid.New(), ResourceUnitID: unitID,
		StartsAt: startsAt, EndsAt: endsAt,
		Status: domain.HoldStatusHeld, ExpiresAt: expiresAt,
	}
	require.NoError(t, db.Create(hold).Error)
	return hold
}

func TestCheck_AllFree(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgID := uuid.New()
	seedUnit(t, db, orgID, "COURT-1", domain.KindCourt)
	seedUnit(t, db, orgID, "COURT-2", domain.KindCourt)

	results, err := svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Available)
		assert.Empty(t, r.BlockingReason)
	}
}

func TestCheck_InvalidRange(t *testing.T) {
	svc, _, _ := setupAvailabilityTest(t)

	_, err := svc.Check(context.Background(), uuid.New(), baseTime.Add(2*time.Hour), baseTime.Add(time.Hour), "")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, err.(*domain.Error).Kind)
}

func TestCheck_ActiveHoldBlocks(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgID := uuid.New()
	unit := seedUnit(t, db, orgID, "COURT-1", domain.KindCourt)
	seedHold(t, db, orgID, unit.ID,
		baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), baseTime.Add(15*time.Minute))

	results, err := svc.Check(context.Background(), orgID, baseTime.Add(90*time.Minute), baseTime.Add(3*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Available)
	assert.Equal(t, domain.BlockingReasonActiveHold, results[0].BlockingReason)
}

func TestCheck_HoldExpiryBoundary(t *testing.T) {
	svc, db, clk := setupAvailabilityTest(t)
	orgID := uuid.New()
	unit := seedUnit(t, db, orgID, "COURT-1", domain.KindCourt)
	hold := seedHold(t, db, orgID, unit.ID,
		baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), baseTime.Add(15*time.Minute))

	// 14 minutes after creation the hold still blocks
	clk.Advance(14 * time.Minute)
	results, err := svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Available)

	// 16 minutes after creation it no longer does, and the row was promoted
	clk.Advance(2 * time.Minute)
	results, err = svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Available)

	var persisted domain.ReservationHold
	require.NoError(t, db.First(&persisted, "id = ?", hold.ID).Error)
	assert.Equal(t, domain.HoldStatusExpired, persisted.Status)
}

func TestCheck_BlockingReservationStatuses(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgID := uuid.New()

	cases := []struct {
		status string
		blocks bool
	}{
		{domain.ReservationStatusPaymentPending, true},
		{domain.ReservationStatusConfirmed, true},
		{domain.ReservationStatusPaymentFailed, false},
		{domain.ReservationStatusCanceled, false},
	}
	for _, tc := range cases {
		unit := seedUnit(t, db, orgID, "U-"+tc.status, domain.KindRoom)
		require.NoError(t, db.Create(&domain.Reservation{
			OrgID: orgID, UserID: uuid.New(), ResourceUnitID: unit.ID,
			StartsAt: baseTime.Add(time.Hour), EndsAt: baseTime.Add(2 * time.Hour),
			Status: tc.status, AmountCents: 2500, Currency: "usd",
			Source: domain.ReservationSourceMemberSelfService, Version: 1,
		}).Error)

		results, err := svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "")
		require.NoError(t, err)
		var got *UnitAvailability
		for i := range results {
			if results[i].ResourceUnitID == unit.ID {
				got = &results[i]
			}
		}
		require.NotNil(t, got, tc.status)
		assert.Equal(t, !tc.blocks, got.Available, tc.status)
		if tc.blocks {
			assert.Equal(t, domain.BlockingReasonConfirmedReservation, got.BlockingReason, tc.status)
		}
	}
}

func TestCheck_ReservationTakesPrecedenceOverHold(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgID := uuid.New()
	unit := seedUnit(t, db, orgID, "COURT-1", domain.KindCourt)

	seedHold(t, db, orgID, unit.ID,
		baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), baseTime.Add(15*time.Minute))
	require.NoError(t, db.Create(&domain.Reservation{
		OrgID: orgID, UserID: uuid.New(), ResourceUnitID: unit.ID,
		StartsAt: baseTime.Add(time.Hour), EndsAt: baseTime.Add(2 * time.Hour),
		Status: domain.ReservationStatusConfirmed, AmountCents: 2500, Currency: "usd",
		Source: domain.ReservationSourceMemberSelfService, Version: 1,
	}).Error)

	results, err := svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.BlockingReasonConfirmedReservation, results[0].BlockingReason)
}

func TestCheck_AdjacentWindowDoesNotBlock(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgID := uuid.New()
	unit := seedUnit(t, db, orgID, "COURT-1", domain.KindCourt)
	require.NoError(t, db.Create(&domain.Reservation{
		OrgID: orgID, UserID: uuid.New(), ResourceUnitID: unit.ID,
		StartsAt: baseTime.Add(time.Hour), EndsAt: baseTime.Add(2 * time.Hour),
		Status: domain.ReservationStatusConfirmed, AmountCents: 2500, Currency: "usd",
		Source: domain.ReservationSourceMemberSelfService, Version: 1,
	}).Error)

	results, err := svc.Check(context.Background(), orgID, baseTime.Add(2*time.Hour), baseTime.Add(3*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Available)
}

func TestCheck_KindFilter(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgID := uuid.New()
	seedUnit(t, db, orgID, "COURT-1", domain.KindCourt)
	seedUnit(t, db, orgID, "ROOM-1", domain.KindRoom)

	results, err := svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), domain.KindRoom)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ROOM-1", results[0].Code)

	_, err = svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "spaceship")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, err.(*domain.Error).Kind)
}

func TestCheck_InactiveUnitsExcluded(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgID := uuid.New()
	unit := seedUnit(t, db, orgID, "COURT-1", domain.KindCourt)
	require.NoError(t, db.Model(unit).Update("status", domain.ResourceStatusInactive).Error)

	results, err := svc.Check(context.Background(), orgID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCheck_OtherOrgEntitiesInvisible(t *testing.T) {
	svc, db, _ := setupAvailabilityTest(t)
	orgA, orgB := uuid.New(), uuid.New()
	unitA := seedUnit(t, db, orgA, "COURT-1", domain.KindCourt)
	unitB := seedUnit(t, db, orgB, "COURT-1", domain.KindCourt)
	seedHold(t, db, orgB, unitB.ID,
		baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), baseTime.Add(15*time.Minute))

	results, err := svc.Check(context.Background(), orgA, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, unitA.ID, results[0].ResourceUnitID)
	assert.True(t, results[0].Available)
}
