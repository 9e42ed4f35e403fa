package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"milelog/internal/models/db_models"
)

// TripFilter narrows a user's trip listing. Zero times are open bounds.
type TripFilter struct {
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

type TripRepository interface {
	// FindCandidates returns the user's trips whose start time lies in
	// [from, to], ordered by start time then id.
	FindCandidates(ctx context.Context, userID uint, from, to time.Time) ([]db_models.Trip, error)
	Insert(ctx context.Context, trip *db_models.Trip) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	FindByIdForUser(ctx context.Context, id, userID uint) (*db_models.Trip, error)
	DeleteForUser(ctx context.Context, id, userID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint, filter TripFilter) ([]db_models.Trip, error)
	DistinctClients(ctx context.Context, userID uint) ([]string, error)

	// WithinUserLock runs fn in a transaction. On postgres the transaction
	// holds an advisory lock keyed by userID, serializing concurrent
	// reconciliation for the same user.
	WithinUserLock(ctx context.Context, userID uint, fn func(tx TripRepository) error) error
}

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) FindCandidates(ctx context.Context, userID uint, from, to time.Time) ([]db_models.Trip, error) {
	var trips []db_models.Trip
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND start_time >= ? AND start_time <= ?", userID, from.UTC(), to.UTC()).
		Order("start_time ASC, id ASC").
		Find(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *tripRepository) Insert(ctx context.Context, trip *db_models.Trip) error {
	trip.StartTime = trip.StartTime.UTC()
	trip.EndTime = trip.EndTime.UTC()
	trip.CreatedAt = trip.CreatedAt.UTC()
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *tripRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	for k, v := range fields {
		if t, ok := v.(time.Time); ok {
			fields[k] = t.UTC()
		}
	}
	return r.db.WithContext(ctx).
		Model(&db_models.Trip{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *tripRepository) FindByIdForUser(ctx context.Context, id, userID uint) (*db_models.Trip, error) {
	var trip db_models.Trip
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}

func (r *tripRepository) DeleteForUser(ctx context.Context, id, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&db_models.Trip{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *tripRepository) ListByUser(ctx context.Context, userID uint, filter TripFilter) ([]db_models.Trip, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !filter.From.IsZero() {
		q = q.Where("start_time >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q = q.Where("start_time < ?", filter.To.UTC())
	}
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var trips []db_models.Trip
	if err := q.Order("start_time DESC, id DESC").Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

func (r *tripRepository) DistinctClients(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&db_models.Trip{}).
		Where("user_id = ? AND client_name <> ''", userID).
		Distinct().
		Order("client_name").
		Pluck("client_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *tripRepository) WithinUserLock(ctx context.Context, userID uint, fn func(tx TripRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(userID)).Error; err != nil {
				return err
			}
		}
		return fn(&tripRepository{db: tx})
	})
}
