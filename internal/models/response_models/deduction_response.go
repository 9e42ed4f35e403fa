package response_models

type CategoryDeduction struct {
	Category  string  `json:"category"`
	Miles     float64 `json:"miles"`
	Rate      float64 `json:"rate"`
	Deduction float64 `json:"deduction"`
	TripCount int     `json:"tripCount"`
}

type DeductionSummary struct {
	Year           int                 `json:"year"`
	TotalMiles     float64             `json:"totalMiles"`
	TotalDeduction float64             `json:"totalDeduction"`
	Categories     []CategoryDeduction `json:"categories"`
}
