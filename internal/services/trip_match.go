package services

import (
	"math"
	"strings"
	"time"

	"milelog/internal/models/db_models"
)

const (
	// DuplicateWindow is how far either side of a new trip's start time a
	// stored trip may start and still be considered the same journey.
	DuplicateWindow = 30 * time.Minute

	// CoordinateEpsilon is the per-axis tolerance in degrees (about 100m)
	// for two endpoints to be the same place.
	CoordinateEpsilon = 0.001
)

// DuplicateWindowBounds returns the inclusive start-time range searched for
// duplicates of a trip starting at start.
func DuplicateWindowBounds(start time.Time) (time.Time, time.Time) {
	return start.Add(-DuplicateWindow), start.Add(DuplicateWindow)
}

func withinDuplicateWindow(candidate, start time.Time) bool {
	d := candidate.Sub(start)
	return d >= -DuplicateWindow && d <= DuplicateWindow
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < CoordinateEpsilon
}

// CoordinatesMatch reports whether both endpoints of the stored trip lie
// within CoordinateEpsilon of the incoming ones. Trips without stored
// coordinates never match.
func CoordinatesMatch(stored *db_models.Trip, startLat, startLon, endLat, endLon float64) bool {
	if !stored.HasCoordinates() {
		return false
	}
	return nearlyEqual(*stored.StartLatitude, startLat) &&
		nearlyEqual(*stored.StartLongitude, startLon) &&
		nearlyEqual(*stored.EndLatitude, endLat) &&
		nearlyEqual(*stored.EndLongitude, endLon)
}

// AddressesEqual is exact string equality of both endpoints.
func AddressesEqual(stored *db_models.Trip, startLocation, endLocation string) bool {
	return stored.StartLocation == startLocation && stored.EndLocation == endLocation
}

// firstSegment returns the lower-cased text before the first comma.
func firstSegment(address string) string {
	seg, _, _ := strings.Cut(address, ",")
	return strings.ToLower(strings.TrimSpace(seg))
}

// addressPartialMatch lets "123 Main St" from the web form match
// "123 Main St, Springfield, IL" from a geocoded mobile trip, in either
// direction.
func addressPartialMatch(stored, incoming string) bool {
	storedSeg, incomingSeg := firstSegment(stored), firstSegment(incoming)
	if storedSeg == "" || incomingSeg == "" {
		return false
	}
	return strings.Contains(strings.ToLower(stored), incomingSeg) ||
		strings.Contains(strings.ToLower(incoming), storedSeg)
}

// AddressesPartiallyMatch applies addressPartialMatch to both endpoints.
func AddressesPartiallyMatch(stored *db_models.Trip, startLocation, endLocation string) bool {
	return addressPartialMatch(stored.StartLocation, startLocation) &&
		addressPartialMatch(stored.EndLocation, endLocation)
}

// IsSameJourney decides whether stored and the normalized submission describe
// one real-world journey.
func IsSameJourney(stored *db_models.Trip, in *NormalizedTrip) bool {
	if stored.UserID != in.UserID || !withinDuplicateWindow(stored.StartTime, in.StartTime) {
		return false
	}

	switch in.Shape {
	case ShapeCoordinates:
		return CoordinatesMatch(stored, in.StartLat, in.StartLon, in.EndLat, in.EndLon) ||
			AddressesEqual(stored, in.StartLocation, in.EndLocation)
	case ShapeAddress:
		return AddressesEqual(stored, in.StartLocation, in.EndLocation) ||
			AddressesPartiallyMatch(stored, in.StartLocation, in.EndLocation)
	}
	return false
}

// PickDuplicate returns the candidate that is the same journey as in and starts
// closest to it, ties going to the lowest id. Nil when nothing matches.
func PickDuplicate(candidates []db_models.Trip, in *NormalizedTrip) *db_models.Trip {
	var best *db_models.Trip
	var bestGap time.Duration
	for i := range candidates {
		c := &candidates[i]
		if !IsSameJourney(c, in) {
			continue
		}
		gap := c.StartTime.Sub(in.StartTime)
		if gap < 0 {
			gap = -gap
		}
		if best == nil || gap < bestGap || (gap == bestGap && c.ID < best.ID) {
			best, bestGap = c, gap
		}
	}
	return best
}
