package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"milelog/internal/models/db_models"
	rm "milelog/internal/models/request_models"
	"milelog/pkg/utils"
)

const driverEmail = "driver@example.com"

type tripServiceFixture struct {
	svc      TripServiceInterface
	trips    *memTripRepo
	accounts *MockAccountRepository
	events   *recordingPublisher
	clock    *fixedClock
}

func newTripServiceFixture(t *testing.T) *tripServiceFixture {
	t.Helper()
	f := &tripServiceFixture{
		trips:    newMemTripRepo(),
		accounts: new(MockAccountRepository),
		events:   &recordingPublisher{},
		clock:    &fixedClock{now: submissionNow},
	}
	driver := &db_models.Account{Email: driverEmail, Name: "Driver", CustomCategories: []string{"Rideshare"}}
	driver.ID = 7
	f.accounts.On("FindByEmail", mock.Anything, driverEmail).Return(driver, nil)
	f.svc = NewTripService(f.trips, f.accounts, f.events, f.clock, time.UTC, time.Second)
	return f
}

func TestIngestTrip_InsertsNewTrip(t *testing.T) {
	f := newTripServiceFixture(t)

	res, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, 1, f.trips.count())

	stored := f.trips.trips[res.ID]
	assert.Equal(t, uint(7), stored.UserID)
	assert.Equal(t, CategoryBusiness, stored.Category)
	assert.True(t, stored.HasCoordinates())
	assert.Equal(t, submissionNow, stored.CreatedAt)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventTripUpserted, f.events.events[0].Type)
}

func TestIngestTrip_IdenticalSubmissionTwiceKeepsOneRow(t *testing.T) {
	f := newTripServiceFixture(t)

	first, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)
	second, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Updated)
	assert.Equal(t, 1, f.trips.count())
}

func TestIngestTrip_UpdatesMatchWithinWindow(t *testing.T) {
	f := newTripServiceFixture(t)

	first, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)
	originalStart := f.trips.trips[first.ID].StartTime

	later := coordinateRequest()
	start, _ := later.StartTime.Float64()
	later.StartTime = rm.Number(start + float64(10*time.Minute/time.Millisecond))
	later.StartLatitude = rm.Number(40.7135)
	later.Distance = rm.Number(6.1)
	later.Notes = "client visit"

	second, err := f.svc.IngestTrip(context.Background(), driverEmail, later)
	require.NoError(t, err)
	assert.True(t, second.Updated)
	assert.Equal(t, first.ID, second.ID)

	stored := f.trips.trips[first.ID]
	assert.Equal(t, 6.1, stored.Distance)
	assert.Equal(t, "client visit", stored.Notes)
	assert.Equal(t, originalStart, stored.StartTime)
	assert.Equal(t, 40.7128, *stored.StartLatitude)
}

func TestIngestTrip_OutsideWindowInsertsSecondTrip(t *testing.T) {
	f := newTripServiceFixture(t)

	_, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)

	later := coordinateRequest()
	start, _ := later.StartTime.Float64()
	later.StartTime = rm.Number(start + float64(31*time.Minute/time.Millisecond))

	res, err := f.svc.IngestTrip(context.Background(), driverEmail, later)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, 2, f.trips.count())
}

func TestIngestTrip_WebFormMatchesMobileTrip(t *testing.T) {
	f := newTripServiceFixture(t)

	mobile := coordinateRequest()
	mobile.StartLocation = "123 Main St, Springfield, IL"
	mobile.EndLocation = "456 Oak Ave, Springfield, IL"
	first, err := f.svc.IngestTrip(context.Background(), driverEmail, mobile)
	require.NoError(t, err)

	web := addressRequest()
	web.Time = "9:05 AM"
	web.Category = "rideshare"
	second, err := f.svc.IngestTrip(context.Background(), driverEmail, web)
	require.NoError(t, err)

	assert.True(t, second.Updated)
	assert.Equal(t, first.ID, second.ID)
	stored := f.trips.trips[first.ID]
	assert.Equal(t, "Rideshare", stored.Category)
	assert.True(t, stored.HasCoordinates())
}

func TestIngestTrip_ConcurrentDuplicatesKeepOneRow(t *testing.T) {
	f := newTripServiceFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, f.trips.count())
}

func TestIngestTrip_Errors(t *testing.T) {
	f := newTripServiceFixture(t)
	f.accounts.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

	_, err := f.svc.IngestTrip(context.Background(), "", coordinateRequest())
	assert.ErrorIs(t, err, utils.ErrAuthenticationRequired)

	_, err = f.svc.IngestTrip(context.Background(), "ghost@example.com", coordinateRequest())
	assert.ErrorIs(t, err, utils.ErrUserNotFound)

	badCategory := coordinateRequest()
	badCategory.Category = "Vacation"
	_, err = f.svc.IngestTrip(context.Background(), driverEmail, badCategory)
	assert.ErrorIs(t, err, utils.ErrMalformedSubmission)

	assert.Zero(t, f.trips.count())
	assert.Empty(t, f.events.events)
}

func TestIngestTrip_PersistenceFailure(t *testing.T) {
	accounts := new(MockAccountRepository)
	driver := &db_models.Account{Email: driverEmail}
	driver.ID = 7
	accounts.On("FindByEmail", mock.Anything, driverEmail).Return(driver, nil)

	trips := new(MockTripRepository)
	trips.On("WithinUserLock", mock.Anything, uint(7)).Return(nil)
	trips.On("FindCandidates", mock.Anything, uint(7), mock.Anything, mock.Anything).Return([]db_models.Trip{}, nil)
	trips.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := NewTripService(trips, accounts, NewNoopPublisher(), &fixedClock{now: submissionNow}, time.UTC, 0)
	_, err := svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
	trips.AssertExpectations(t)
}

func TestIngestTrip_UserLookupFailure(t *testing.T) {
	accounts := new(MockAccountRepository)
	accounts.On("FindByEmail", mock.Anything, driverEmail).Return(nil, errors.New("timeout"))

	svc := NewTripService(new(MockTripRepository), accounts, NewNoopPublisher(), &fixedClock{now: submissionNow}, time.UTC, 0)
	_, err := svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
}

func TestDeleteTrip(t *testing.T) {
	f := newTripServiceFixture(t)
	other := &db_models.Account{Email: "other@example.com"}
	other.ID = 8
	f.accounts.On("FindByEmail", mock.Anything, "other@example.com").Return(other, nil)

	res, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)

	err = f.svc.DeleteTrip(context.Background(), "other@example.com", res.ID)
	assert.ErrorIs(t, err, utils.ErrTripNotFoundOrUnauthorized)
	assert.Equal(t, 1, f.trips.count())

	require.NoError(t, f.svc.DeleteTrip(context.Background(), driverEmail, res.ID))
	assert.Zero(t, f.trips.count())
	assert.Equal(t, EventTripDeleted, f.events.events[len(f.events.events)-1].Type)

	err = f.svc.DeleteTrip(context.Background(), driverEmail, res.ID)
	assert.ErrorIs(t, err, utils.ErrTripNotFoundOrUnauthorized)
}

func TestUpdateTrip(t *testing.T) {
	f := newTripServiceFixture(t)
	res, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)

	notes := "  parking included "
	category := "medical"
	updated, err := f.svc.UpdateTrip(context.Background(), driverEmail, res.ID, &rm.TripUpdateRequest{
		Notes:    &notes,
		Category: &category,
		Distance: rm.NumberString("7.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "parking included", updated.Notes)
	assert.Equal(t, CategoryMedical, updated.Category)
	assert.Equal(t, 7.5, updated.Distance)

	_, err = f.svc.UpdateTrip(context.Background(), driverEmail, res.ID, &rm.TripUpdateRequest{Distance: rm.Number(0)})
	assert.ErrorIs(t, err, utils.ErrInvalidDistance)

	_, err = f.svc.UpdateTrip(context.Background(), driverEmail, res.ID+100, &rm.TripUpdateRequest{Notes: &notes})
	assert.ErrorIs(t, err, utils.ErrTripNotFoundOrUnauthorized)
}

func TestUpdateTrip_RejectsInconsistentEdits(t *testing.T) {
	f := newTripServiceFixture(t)
	res, err := f.svc.IngestTrip(context.Background(), driverEmail, coordinateRequest())
	require.NoError(t, err)
	ctx := context.Background()

	blank := "   "
	_, err = f.svc.UpdateTrip(ctx, driverEmail, res.ID, &rm.TripUpdateRequest{StartLocation: &blank})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	_, err = f.svc.UpdateTrip(ctx, driverEmail, res.ID, &rm.TripUpdateRequest{EndLocation: &blank})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	// Stored trip runs 09:00 to 09:15.
	early := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	_, err = f.svc.UpdateTrip(ctx, driverEmail, res.ID, &rm.TripUpdateRequest{EndTime: &early})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	late := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	_, err = f.svc.UpdateTrip(ctx, driverEmail, res.ID, &rm.TripUpdateRequest{StartTime: &late})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = f.svc.UpdateTrip(ctx, driverEmail, res.ID, &rm.TripUpdateRequest{StartTime: &late, EndTime: &early})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	end := early.Add(30 * time.Minute)
	updated, err := f.svc.UpdateTrip(ctx, driverEmail, res.ID, &rm.TripUpdateRequest{StartTime: &early, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T08:00:00Z", updated.StartTime)
	assert.Equal(t, "2025-06-01T08:30:00Z", updated.EndTime)
}

func TestListTripsAndClients(t *testing.T) {
	f := newTripServiceFixture(t)

	first := addressRequest()
	first.ClientName = "Acme"
	_, err := f.svc.IngestTrip(context.Background(), driverEmail, first)
	require.NoError(t, err)

	second := addressRequest()
	second.Date = "2025-06-03"
	second.StartLocation = "Warehouse"
	second.EndLocation = "Depot"
	second.ClientName = "Globex"
	_, err = f.svc.IngestTrip(context.Background(), driverEmail, second)
	require.NoError(t, err)

	all, err := f.svc.ListTrips(context.Background(), driverEmail, rm.ListTripsRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Warehouse", all[0].StartLocation)
	assert.Equal(t, "2025-06-03T09:15:00Z", all[0].StartTime)

	ranged, err := f.svc.ListTrips(context.Background(), driverEmail, rm.ListTripsRequest{Page: 1, PageSize: 20, From: "2025-06-01", To: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "123 Main St", ranged[0].StartLocation)

	_, err = f.svc.ListTrips(context.Background(), driverEmail, rm.ListTripsRequest{Page: 1, PageSize: 20, From: "June"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	clients, err := f.svc.ListClients(context.Background(), driverEmail)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, clients)
}

func TestDeductionSummaryAndExport(t *testing.T) {
	f := newTripServiceFixture(t)

	business := addressRequest()
	business.Distance = rm.Number(100)
	_, err := f.svc.IngestTrip(context.Background(), driverEmail, business)
	require.NoError(t, err)

	personal := addressRequest()
	personal.Date = "2025-07-01"
	personal.Category = "Personal"
	personal.Notes = "groceries, weekly"
	_, err = f.svc.IngestTrip(context.Background(), driverEmail, personal)
	require.NoError(t, err)

	summary, err := f.svc.DeductionSummary(context.Background(), driverEmail, 2025)
	require.NoError(t, err)
	assert.Equal(t, 112.5, summary.TotalMiles)
	assert.Equal(t, 70.0, summary.TotalDeduction)
	require.Len(t, summary.Categories, 2)
	assert.Equal(t, CategoryBusiness, summary.Categories[0].Category)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), driverEmail, 2025, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Start,End,Distance (mi),Duration (min),Category,Client,Notes,Deduction", lines[0])
	assert.Equal(t, "2025-06-01,123 Main St,456 Oak Ave,100.0,30,Business,,,70.00", lines[1])
	assert.Equal(t, `2025-07-01,123 Main St,456 Oak Ave,12.5,30,Personal,,"groceries, weekly",0.00`, lines[2])
}
