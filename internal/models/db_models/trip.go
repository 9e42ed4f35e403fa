package db_models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Trip is one recorded journey. Coordinates are nil for address-only
// (manually entered) trips.
type Trip struct {
	BaseModel
	UserID uint `gorm:"not null;index:idx_trips_user_start,priority:1"`

	StartLocation    string
	EndLocation      string
	StartLatitude    *float64
	StartLongitude   *float64
	EndLatitude      *float64
	EndLongitude     *float64
	StartDisplayName string
	EndDisplayName   string

	Distance     float64 `gorm:"not null"`
	Duration     int64
	Category     string
	ClientName   string `gorm:"index"`
	Notes        string
	StartTime    time.Time `gorm:"not null;index:idx_trips_user_start,priority:2"`
	EndTime      time.Time
	AutoDetected bool
}

func (t *Trip) HasCoordinates() bool {
	return t.StartLatitude != nil && t.StartLongitude != nil &&
		t.EndLatitude != nil && t.EndLongitude != nil
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.UserID == 0 {
		return errors.New("trip must belong to a user")
	}
	if t.Distance <= 0 {
		return errors.New("trip distance must be positive")
	}
	return nil
}
