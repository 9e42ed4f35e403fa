package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"milelog/internal/models/db_models"
	"milelog/internal/models/request_models"
	"milelog/internal/models/response_models"
	"milelog/internal/repositories"
	"milelog/pkg/utils"
)

type TripServiceInterface interface {
	IngestTrip(ctx context.Context, email string, req *request_models.TripSubmission) (*response_models.IngestResult, error)
	UpdateTrip(ctx context.Context, email string, tripID uint, req *request_models.TripUpdateRequest) (*response_models.TripResponse, error)
	DeleteTrip(ctx context.Context, email string, tripID uint) error
	ListTrips(ctx context.Context, email string, req request_models.ListTripsRequest) ([]response_models.TripResponse, error)
	ListClients(ctx context.Context, email string) ([]string, error)
	DeductionSummary(ctx context.Context, email string, year int) (*response_models.DeductionSummary, error)
	ExportCSV(ctx context.Context, email string, year int, w io.Writer) error
}

type TripService struct {
	tripRepo    repositories.TripRepository
	accountRepo repositories.AccountRepository
	events      TripEventPublisher
	clock       utils.Clock
	loc         *time.Location
	dbTimeout   time.Duration
}

func NewTripService(
	tripRepo repositories.TripRepository,
	accountRepo repositories.AccountRepository,
	events TripEventPublisher,
	clock utils.Clock,
	loc *time.Location,
	dbTimeout time.Duration,
) TripServiceInterface {
	return &TripService{
		tripRepo:    tripRepo,
		accountRepo: accountRepo,
		events:      events,
		clock:       clock,
		loc:         loc,
		dbTimeout:   dbTimeout,
	}
}

// resolveUser maps the caller's email to an account through the user directory.
func (s *TripService) resolveUser(ctx context.Context, email string) (*db_models.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, utils.ErrAuthenticationRequired
	}
	account, err := s.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve user: %v", utils.ErrDatabaseError, err)
	}
	if account == nil {
		return nil, utils.ErrUserNotFound
	}
	return account, nil
}

func (s *TripService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.dbTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.dbTimeout)
}

func (s *TripService) IngestTrip(ctx context.Context, email string, req *request_models.TripSubmission) (*response_models.IngestResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	trip, err := NormalizeSubmission(req, s.clock.Now(), s.loc)
	if err != nil {
		return nil, err
	}
	trip.UserID = account.ID
	if trip.Category, err = ResolveCategory(trip.Category, account.CustomCategories); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"user_id": account.ID, "shape": trip.Shape.String()})
	if straight := trip.StraightLineMiles(); straight > 0 && trip.Distance < straight*0.95 {
		logger.WithFields(log.Fields{"distance": trip.Distance, "straight_line": straight}).
			Warn("Reported distance is shorter than the straight-line distance")
	}

	result := &response_models.IngestResult{}
	err = s.tripRepo.WithinUserLock(ctx, account.ID, func(tx repositories.TripRepository) error {
		from, to := DuplicateWindowBounds(trip.StartTime)
		candidates, err := tx.FindCandidates(ctx, account.ID, from, to)
		if err != nil {
			return err
		}

		if match := PickDuplicate(candidates, trip); match != nil {
			result.ID, result.Updated = match.ID, true
			return tx.UpdateFields(ctx, match.ID, trip.ReconcileFields(match))
		}

		model := trip.ToModel(s.clock.Now())
		if err := tx.Insert(ctx, model); err != nil {
			return err
		}
		result.ID = model.ID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ingest trip: %v", utils.ErrDatabaseError, err)
	}

	logger.WithFields(log.Fields{"trip_id": result.ID, "updated": result.Updated}).Info("Trip ingested")
	s.publish(ctx, TripEvent{Type: EventTripUpserted, TripID: result.ID, UserID: account.ID, Updated: result.Updated})
	return result, nil
}

func (s *TripService) UpdateTrip(ctx context.Context, email string, tripID uint, req *request_models.TripUpdateRequest) (*response_models.TripResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	trip, err := s.tripRepo.FindByIdForUser(ctx, tripID, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: find trip: %v", utils.ErrDatabaseError, err)
	}
	if trip == nil {
		return nil, utils.ErrTripNotFoundOrUnauthorized
	}

	fields, err := updateFields(req, trip, account.CustomCategories)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.tripRepo.UpdateFields(ctx, trip.ID, fields); err != nil {
			return nil, fmt.Errorf("%w: update trip: %v", utils.ErrDatabaseError, err)
		}
		if trip, err = s.tripRepo.FindByIdForUser(ctx, tripID, account.ID); err != nil {
			return nil, fmt.Errorf("%w: reload trip: %v", utils.ErrDatabaseError, err)
		}
		if trip == nil {
			return nil, utils.ErrTripNotFoundOrUnauthorized
		}
		s.publish(ctx, TripEvent{Type: EventTripUpserted, TripID: trip.ID, UserID: account.ID, Updated: true})
	}

	out := s.toResponse(trip)
	return &out, nil
}

// updateFields checks the edit against the stored trip so both locations stay
// non-empty and the end never precedes the start.
func updateFields(req *request_models.TripUpdateRequest, stored *db_models.Trip, custom []string) (map[string]interface{}, error) {
	for _, loc := range []*string{req.StartLocation, req.EndLocation} {
		if loc != nil && strings.TrimSpace(*loc) == "" {
			return nil, fmt.Errorf("%w: location must not be empty", utils.ErrInvalidInput)
		}
	}
	if req.StartTime != nil || req.EndTime != nil {
		start, end := stored.StartTime, stored.EndTime
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		if !end.IsZero() && end.Before(start) {
			return nil, fmt.Errorf("%w: endTime before startTime", utils.ErrInvalidInput)
		}
	}

	fields := map[string]interface{}{}
	setString := func(col string, v *string) {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	setString("start_location", req.StartLocation)
	setString("end_location", req.EndLocation)
	setString("start_display_name", req.StartDisplayName)
	setString("end_display_name", req.EndDisplayName)
	setString("client_name", req.ClientName)
	setString("notes", req.Notes)

	if req.Distance.Present() {
		d, err := ParseDistance(req.Distance)
		if err != nil {
			return nil, err
		}
		fields["distance"] = d
	}
	if req.Duration != nil {
		fields["duration"] = *req.Duration
	}
	if req.Category != nil {
		c, err := ResolveCategory(*req.Category, custom)
		if err != nil {
			return nil, err
		}
		fields["category"] = c
	}
	if req.StartTime != nil {
		fields["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		fields["end_time"] = *req.EndTime
	}
	if req.AutoDetected != nil {
		fields["auto_detected"] = *req.AutoDetected
	}
	return fields, nil
}

func (s *TripService) DeleteTrip(ctx context.Context, email string, tripID uint) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.resolveUser(ctx, email)
	if err != nil {
		return err
	}

	deleted, err := s.tripRepo.DeleteForUser(ctx, tripID, account.ID)
	if err != nil {
		return fmt.Errorf("%w: delete trip: %v", utils.ErrDatabaseError, err)
	}
	if !deleted {
		return utils.ErrTripNotFoundOrUnauthorized
	}

	log.WithFields(log.Fields{"user_id": account.ID, "trip_id": tripID}).Info("Trip deleted")
	s.publish(ctx, TripEvent{Type: EventTripDeleted, TripID: tripID, UserID: account.ID})
	return nil
}

func (s *TripService) ListTrips(ctx context.Context, email string, req request_models.ListTripsRequest) ([]response_models.TripResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	filter := repositories.TripFilter{Page: req.Page, PageSize: req.PageSize}
	if filter.From, err = s.parseDay(req.From); err != nil {
		return nil, err
	}
	if filter.To, err = s.parseDay(req.To); err != nil {
		return nil, err
	}
	if !filter.To.IsZero() {
		// "to" is an inclusive day
		filter.To = filter.To.AddDate(0, 0, 1)
	}

	trips, err := s.tripRepo.ListByUser(ctx, account.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list trips: %v", utils.ErrDatabaseError, err)
	}

	out := make([]response_models.TripResponse, 0, len(trips))
	for i := range trips {
		out = append(out, s.toResponse(&trips[i]))
	}
	return out, nil
}

func (s *TripService) parseDay(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(utils.DateLayout, strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", utils.ErrInvalidInput, raw)
	}
	return t, nil
}

func (s *TripService) ListClients(ctx context.Context, email string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	clients, err := s.tripRepo.DistinctClients(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list clients: %v", utils.ErrDatabaseError, err)
	}
	if clients == nil {
		clients = []string{}
	}
	return clients, nil
}

// tripsForYear loads the caller's trips starting in year (local time), oldest first.
func (s *TripService) tripsForYear(ctx context.Context, userID uint, year int) ([]db_models.Trip, error) {
	filter := repositories.TripFilter{}
	if year > 0 {
		filter.From = time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
		filter.To = filter.From.AddDate(1, 0, 0)
	}
	trips, err := s.tripRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(trips)-1; i < j; i, j = i+1, j-1 {
		trips[i], trips[j] = trips[j], trips[i]
	}
	for i := range trips {
		trips[i].StartTime = trips[i].StartTime.In(s.loc)
		trips[i].EndTime = trips[i].EndTime.In(s.loc)
	}
	return trips, nil
}

func (s *TripService) DeductionSummary(ctx context.Context, email string, year int) (*response_models.DeductionSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if year == 0 {
		year = s.clock.Now().In(s.loc).Year()
	}
	account, err := s.resolveUser(ctx, email)
	if err != nil {
		return nil, err
	}

	trips, err := s.tripsForYear(ctx, account.ID, year)
	if err != nil {
		return nil, fmt.Errorf("%w: deduction trips: %v", utils.ErrDatabaseError, err)
	}
	return SummarizeDeductions(trips, year), nil
}

var exportHeader = []string{"Date", "Start", "End", "Distance (mi)", "Duration (min)", "Category", "Client", "Notes", "Deduction"}

// ExportCSV writes the caller's trips for year (all years when 0) as CSV.
func (s *TripService) ExportCSV(ctx context.Context, email string, year int, w io.Writer) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	account, err := s.resolveUser(ctx, email)
	if err != nil {
		return err
	}
	trips, err := s.tripsForYear(ctx, account.ID, year)
	if err != nil {
		return fmt.Errorf("%w: export trips: %v", utils.ErrDatabaseError, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i := range trips {
		t := &trips[i]
		row := []string{
			t.StartTime.Format(utils.DateLayout),
			displayOr(t.StartDisplayName, t.StartLocation),
			displayOr(t.EndDisplayName, t.EndLocation),
			strconv.FormatFloat(t.Distance, 'f', 1, 64),
			strconv.FormatInt(t.Duration/60, 10),
			t.Category,
			t.ClientName,
			t.Notes,
			strconv.FormatFloat(TripDeduction(t), 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func displayOr(display, fallback string) string {
	if display != "" {
		return display
	}
	return fallback
}

func (s *TripService) publish(ctx context.Context, event TripEvent) {
	event.At = s.clock.Now()
	if err := s.events.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).WithFields(log.Fields{"trip_id": event.TripID, "type": event.Type}).
			Warn("Failed to publish trip event")
	}
}

func (s *TripService) toResponse(t *db_models.Trip) response_models.TripResponse {
	return response_models.TripResponse{
		ID:               t.ID,
		StartLocation:    t.StartLocation,
		EndLocation:      t.EndLocation,
		StartLatitude:    t.StartLatitude,
		StartLongitude:   t.StartLongitude,
		EndLatitude:      t.EndLatitude,
		EndLongitude:     t.EndLongitude,
		StartDisplayName: t.StartDisplayName,
		EndDisplayName:   t.EndDisplayName,
		Distance:         t.Distance,
		Duration:         t.Duration,
		Category:         t.Category,
		ClientName:       t.ClientName,
		Notes:            t.Notes,
		StartTime:        utils.FormatRFC3339(t.StartTime, s.loc),
		EndTime:          utils.FormatRFC3339(t.EndTime, s.loc),
		AutoDetected:     t.AutoDetected,
		CreatedAt:        utils.FormatRFC3339(t.CreatedAt, s.loc),
	}
}
