package response_models

type TripResponse struct {
	ID               uint     `json:"id"`
	StartLocation    string   `json:"startLocation"`
	EndLocation      string   `json:"endLocation"`
	StartLatitude    *float64 `json:"startLatitude"`
	StartLongitude   *float64 `json:"startLongitude"`
	EndLatitude      *float64 `json:"endLatitude"`
	EndLongitude     *float64 `json:"endLongitude"`
	StartDisplayName string   `json:"startDisplayName,omitempty"`
	EndDisplayName   string   `json:"endDisplayName,omitempty"`
	Distance         float64  `json:"distance"`
	Duration         int64    `json:"duration"`
	Category         string   `json:"category"`
	ClientName       string   `json:"clientName,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime,omitempty"`
	AutoDetected     bool     `json:"autoDetected"`
	CreatedAt        string   `json:"createdAt"`
}

// IngestResult is returned by POST /trips. Updated is true when the submission
// was recognised as an already stored journey.
type IngestResult struct {
	ID      uint `json:"id"`
	Updated bool `json:"updated"`
}
