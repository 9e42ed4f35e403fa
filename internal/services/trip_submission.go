package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/geo/s2"
	"milelog/internal/models/db_models"
	"milelog/internal/models/request_models"
	"milelog/pkg/utils"
)

type SubmissionShape int

const (
	ShapeUnknown SubmissionShape = iota
	ShapeCoordinates
	ShapeAddress
)

func (s SubmissionShape) String() string {
	switch s {
	case ShapeCoordinates:
		return "coordinates"
	case ShapeAddress:
		return "address"
	}
	return "unknown"
}

const earthRadiusMiles = 3958.8

// NormalizedTrip is a validated submission with units and times resolved.
type NormalizedTrip struct {
	UserID uint
	Shape  SubmissionShape

	StartLat, StartLon, EndLat, EndLon float64

	StartLocation    string
	EndLocation      string
	StartDisplayName string
	EndDisplayName   string
	Distance         float64
	Duration         int64 // seconds
	Category         string
	ClientName       string
	Notes            string
	StartTime        time.Time
	EndTime          time.Time
	AutoDetected     bool
}

// DetectShape classifies a submission by the fields it carries.
func DetectShape(req *request_models.TripSubmission) SubmissionShape {
	if !req.Distance.Present() {
		return ShapeUnknown
	}
	if req.StartLatitude.Present() && req.StartLongitude.Present() &&
		req.EndLatitude.Present() && req.EndLongitude.Present() {
		return ShapeCoordinates
	}
	if strings.TrimSpace(req.StartLocation) != "" && strings.TrimSpace(req.EndLocation) != "" &&
		strings.TrimSpace(req.Date) != "" {
		return ShapeAddress
	}
	return ShapeUnknown
}

// NormalizeSubmission runs shape detection and validation. Category
// resolution is left to the caller since it depends on the account.
func NormalizeSubmission(req *request_models.TripSubmission, now time.Time, loc *time.Location) (*NormalizedTrip, error) {
	shape := DetectShape(req)
	if shape == ShapeUnknown {
		return nil, utils.ErrMalformedSubmission
	}

	distance, err := ParseDistance(req.Distance)
	if err != nil {
		return nil, err
	}

	out := &NormalizedTrip{
		Shape:            shape,
		StartLocation:    strings.TrimSpace(req.StartLocation),
		EndLocation:      strings.TrimSpace(req.EndLocation),
		StartDisplayName: strings.TrimSpace(req.StartDisplayName),
		EndDisplayName:   strings.TrimSpace(req.EndDisplayName),
		Distance:         distance,
		Category:         strings.TrimSpace(req.Category),
		ClientName:       strings.TrimSpace(req.ClientName),
		Notes:            strings.TrimSpace(req.Notes),
		AutoDetected:     req.AutoDetected,
	}

	switch shape {
	case ShapeCoordinates:
		err = normalizeCoordinateShape(req, out, now, loc)
	case ShapeAddress:
		err = normalizeAddressShape(req, out, now, loc)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseDistance requires a finite number of miles greater than zero.
func ParseDistance(n request_models.FlexNumber) (float64, error) {
	d, err := n.Float64()
	if err != nil || d <= 0 {
		return 0, utils.ErrInvalidDistance
	}
	return d, nil
}

func normalizeCoordinateShape(req *request_models.TripSubmission, out *NormalizedTrip, now time.Time, loc *time.Location) error {
	coords := [4]float64{}
	for i, n := range []request_models.FlexNumber{req.StartLatitude, req.StartLongitude, req.EndLatitude, req.EndLongitude} {
		v, err := n.Float64()
		if err != nil {
			return fmt.Errorf("%w: coordinate %d is not a number", utils.ErrMalformedSubmission, i)
		}
		coords[i] = v
	}
	if coords == [4]float64{} {
		return utils.ErrCorruptedCoordinates
	}
	start := s2.LatLngFromDegrees(coords[0], coords[1])
	end := s2.LatLngFromDegrees(coords[2], coords[3])
	if !start.IsValid() || !end.IsValid() {
		return fmt.Errorf("%w: coordinates out of range", utils.ErrMalformedSubmission)
	}
	out.StartLat, out.StartLon, out.EndLat, out.EndLon = coords[0], coords[1], coords[2], coords[3]

	if out.StartLocation == "" {
		out.StartLocation = coordinateFallback(out.StartLat, out.StartLon)
	}
	if out.EndLocation == "" {
		out.EndLocation = coordinateFallback(out.EndLat, out.EndLon)
	}

	out.StartTime = now.In(loc)
	if req.StartTime.Present() {
		t, err := parseEpochMillis(req.StartTime, now, loc)
		if err != nil {
			return err
		}
		out.StartTime = t
	}

	if req.Duration.Present() {
		ms, err := req.Duration.Float64()
		if err != nil || ms < 0 || ms > maxTripDuration.Seconds()*1000 {
			return fmt.Errorf("%w: duration", utils.ErrMalformedSubmission)
		}
		out.Duration = int64(ms) / 1000
	}

	switch {
	case req.EndTime.Present():
		t, err := parseEpochMillis(req.EndTime, now, loc)
		if err != nil {
			return err
		}
		if t.Before(out.StartTime) {
			return fmt.Errorf("%w: endTime before startTime", utils.ErrMalformedSubmission)
		}
		out.EndTime = t
		if !req.Duration.Present() && t.After(out.StartTime) {
			out.Duration = int64(t.Sub(out.StartTime) / time.Second)
		}
	default:
		out.EndTime = out.StartTime.Add(time.Duration(out.Duration) * time.Second)
	}
	return nil
}

func normalizeAddressShape(req *request_models.TripSubmission, out *NormalizedTrip, now time.Time, loc *time.Location) error {
	start, err := utils.CombineDateAndTime(req.Date, req.Time, now, loc)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrMalformedSubmission, err)
	}
	out.StartTime = start

	if req.Duration.Present() {
		secs, err := req.Duration.Float64()
		if err != nil || secs < 0 || secs > maxTripDuration.Seconds() {
			return fmt.Errorf("%w: duration", utils.ErrMalformedSubmission)
		}
		out.Duration = int64(secs)
	}
	out.EndTime = start.Add(time.Duration(out.Duration) * time.Second)
	return nil
}

// Accepted trip timestamps run from earliestTripTime to a day past the clock.
var earliestTripTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	futureTripSlack = 24 * time.Hour
	maxTripDuration = 31 * 24 * time.Hour
)

func parseEpochMillis(n request_models.FlexNumber, now time.Time, loc *time.Location) (time.Time, error) {
	ms, err := n.Float64()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp", utils.ErrMalformedSubmission)
	}
	if ms < float64(earliestTripTime.UnixMilli()) || ms > float64(now.Add(futureTripSlack).UnixMilli()) {
		return time.Time{}, fmt.Errorf("%w: timestamp out of range", utils.ErrMalformedSubmission)
	}
	return utils.FromUnixMillis(int64(ms), loc), nil
}

// coordinateFallback is stored in place of an address that was never geocoded.
func coordinateFallback(lat, lon float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lon)
}

// StraightLineMiles is the great-circle distance between the trip endpoints.
func (n *NormalizedTrip) StraightLineMiles() float64 {
	if n.Shape != ShapeCoordinates {
		return 0
	}
	a := s2.LatLngFromDegrees(n.StartLat, n.StartLon)
	b := s2.LatLngFromDegrees(n.EndLat, n.EndLon)
	return a.Distance(b).Radians() * earthRadiusMiles
}

func (n *NormalizedTrip) ToModel(createdAt time.Time) *db_models.Trip {
	trip := &db_models.Trip{
		UserID:           n.UserID,
		StartLocation:    n.StartLocation,
		EndLocation:      n.EndLocation,
		StartDisplayName: n.StartDisplayName,
		EndDisplayName:   n.EndDisplayName,
		Distance:         n.Distance,
		Duration:         n.Duration,
		Category:         n.Category,
		ClientName:       n.ClientName,
		Notes:            n.Notes,
		StartTime:        n.StartTime,
		EndTime:          n.EndTime,
		AutoDetected:     n.AutoDetected,
	}
	if n.Shape == ShapeCoordinates {
		trip.StartLatitude = floatPtr(n.StartLat)
		trip.StartLongitude = floatPtr(n.StartLon)
		trip.EndLatitude = floatPtr(n.EndLat)
		trip.EndLongitude = floatPtr(n.EndLon)
	}
	trip.CreatedAt = createdAt
	return trip
}

// ReconcileFields lists the columns overwritten when n is recognised as the
// stored journey. id, user_id, start_time and created_at are never touched.
func (n *NormalizedTrip) ReconcileFields(stored *db_models.Trip) map[string]interface{} {
	fields := map[string]interface{}{
		"start_location":     n.StartLocation,
		"end_location":       n.EndLocation,
		"start_display_name": n.StartDisplayName,
		"end_display_name":   n.EndDisplayName,
		"distance":           n.Distance,
		"duration":           n.Duration,
		"category":           n.Category,
		"client_name":        n.ClientName,
		"notes":              n.Notes,
		"end_time":           n.EndTime,
		"auto_detected":      n.AutoDetected,
	}
	if n.Shape == ShapeCoordinates && !stored.HasCoordinates() {
		fields["start_latitude"] = n.StartLat
		fields["start_longitude"] = n.StartLon
		fields["end_latitude"] = n.EndLat
		fields["end_longitude"] = n.EndLon
	}
	return fields
}

func floatPtr(v float64) *float64 { return &v }
