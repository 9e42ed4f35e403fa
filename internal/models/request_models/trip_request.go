package request_models

import "time"

// TripSubmission is the body of POST /trips. Mobile clients send the
// coordinate shape (four coordinates, epoch-millisecond times, duration in
// milliseconds); the web form sends the address shape (two addresses, a date
// and an optional time of day, duration in seconds).
type TripSubmission struct {
	StartLatitude  FlexNumber `json:"startLatitude"`
	StartLongitude FlexNumber `json:"startLongitude"`
	EndLatitude    FlexNumber `json:"endLatitude"`
	EndLongitude   FlexNumber `json:"endLongitude"`
	StartTime      FlexNumber `json:"startTime"`
	EndTime        FlexNumber `json:"endTime"`

	StartLocation    string `json:"startLocation"`
	EndLocation      string `json:"endLocation"`
	StartDisplayName string `json:"startDisplayName"`
	EndDisplayName   string `json:"endDisplayName"`
	Date             string `json:"date"`
	Time             string `json:"time"`

	Distance     FlexNumber `json:"distance"`
	Duration     FlexNumber `json:"duration"`
	Category     string     `json:"category"`
	ClientName   string     `json:"clientName"`
	Notes        string     `json:"notes"`
	AutoDetected bool       `json:"autoDetected"`
}

// TripUpdateRequest is the body of PUT /trips/:id. Nil fields are left as is.
type TripUpdateRequest struct {
	StartLocation    *string    `json:"startLocation"`
	EndLocation      *string    `json:"endLocation"`
	StartDisplayName *string    `json:"startDisplayName"`
	EndDisplayName   *string    `json:"endDisplayName"`
	Distance         FlexNumber `json:"distance"`
	Duration         *int64     `json:"duration" binding:"omitempty,min=0"`
	Category         *string    `json:"category"`
	ClientName       *string    `json:"clientName"`
	Notes            *string    `json:"notes"`
	StartTime        *time.Time `json:"startTime"`
	EndTime          *time.Time `json:"endTime"`
	AutoDetected     *bool      `json:"autoDetected"`
}

type ListTripsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=20" binding:"min=1,max=100"`
	From     string `form:"from"`
	To       string `form:"to"`
}
