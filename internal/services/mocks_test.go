package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"milelog/internal/models/db_models"
	"milelog/internal/repositories"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Insert(ctx context.Context, account *db_models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindById(ctx context.Context, id uint) (*db_models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db_models.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db_models.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByPhone(ctx context.Context, phone string) (*db_models.Account, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db_models.Account), args.Error(1)
}

func (m *MockAccountRepository) EnableTwoFactor(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) SetCustomCategories(ctx context.Context, id uint, categories []string) error {
	args := m.Called(ctx, id, categories)
	return args.Error(0)
}

// MockTripRepository is a mock implementation of TripRepository
type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) FindCandidates(ctx context.Context, userID uint, from, to time.Time) ([]db_models.Trip, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db_models.Trip), args.Error(1)
}

func (m *MockTripRepository) Insert(ctx context.Context, trip *db_models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockTripRepository) FindByIdForUser(ctx context.Context, id, userID uint) (*db_models.Trip, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db_models.Trip), args.Error(1)
}

func (m *MockTripRepository) DeleteForUser(ctx context.Context, id, userID uint) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTripRepository) ListByUser(ctx context.Context, userID uint, filter repositories.TripFilter) ([]db_models.Trip, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db_models.Trip), args.Error(1)
}

func (m *MockTripRepository) DistinctClients(ctx context.Context, userID uint) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTripRepository) WithinUserLock(ctx context.Context, userID uint, fn func(tx repositories.TripRepository) error) error {
	args := m.Called(ctx, userID)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

// memTripRepo is an in-memory TripRepository for exercising reconciliation
// end to end.
type memTripRepo struct {
	mu     sync.Mutex
	nextID uint
	trips  map[uint]db_models.Trip
}

func newMemTripRepo() *memTripRepo {
	return &memTripRepo{nextID: 1, trips: map[uint]db_models.Trip{}}
}

func (r *memTripRepo) FindCandidates(_ context.Context, userID uint, from, to time.Time) ([]db_models.Trip, error) {
	var out []db_models.Trip
	for _, t := range r.trips {
		if t.UserID == userID && !t.StartTime.Before(from) && !t.StartTime.After(to) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (r *memTripRepo) Insert(_ context.Context, trip *db_models.Trip) error {
	trip.ID = r.nextID
	r.nextID++
	r.trips[trip.ID] = *trip
	return nil
}

func (r *memTripRepo) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	t := r.trips[id]
	for k, v := range fields {
		switch k {
		case "start_location":
			t.StartLocation = v.(string)
		case "end_location":
			t.EndLocation = v.(string)
		case "start_display_name":
			t.StartDisplayName = v.(string)
		case "end_display_name":
			t.EndDisplayName = v.(string)
		case "distance":
			t.Distance = v.(float64)
		case "duration":
			t.Duration = v.(int64)
		case "category":
			t.Category = v.(string)
		case "client_name":
			t.ClientName = v.(string)
		case "notes":
			t.Notes = v.(string)
		case "start_time":
			t.StartTime = v.(time.Time)
		case "end_time":
			t.EndTime = v.(time.Time)
		case "auto_detected":
			t.AutoDetected = v.(bool)
		case "start_latitude":
			t.StartLatitude = floatPtr(v.(float64))
		case "start_longitude":
			t.StartLongitude = floatPtr(v.(float64))
		case "end_latitude":
			t.EndLatitude = floatPtr(v.(float64))
		case "end_longitude":
			t.EndLongitude = floatPtr(v.(float64))
		}
	}
	r.trips[id] = t
	return nil
}

func (r *memTripRepo) FindByIdForUser(_ context.Context, id, userID uint) (*db_models.Trip, error) {
	t, ok := r.trips[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	return &t, nil
}

func (r *memTripRepo) DeleteForUser(_ context.Context, id, userID uint) (bool, error) {
	t, ok := r.trips[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.trips, id)
	return true, nil
}

func (r *memTripRepo) ListByUser(_ context.Context, userID uint, filter repositories.TripFilter) ([]db_models.Trip, error) {
	var out []db_models.Trip
	for _, t := range r.trips {
		if t.UserID != userID {
			continue
		}
		if !filter.From.IsZero() && t.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !t.StartTime.Before(filter.To) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r *memTripRepo) DistinctClients(_ context.Context, userID uint) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, t := range r.trips {
		if t.UserID == userID && t.ClientName != "" && !seen[t.ClientName] {
			seen[t.ClientName] = true
			out = append(out, t.ClientName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memTripRepo) WithinUserLock(_ context.Context, _ uint, fn func(tx repositories.TripRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r)
}

func (r *memTripRepo) count() int { return len(r.trips) }

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type recordingPublisher struct {
	mu     sync.Mutex
	events []TripEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e TripEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() {}

type stubSMS struct {
	phone, code string
	err         error
}

func (s *stubSMS) SendVerificationCode(_ context.Context, phone, code string) error {
	s.phone, s.code = phone, code
	return s.err
}
