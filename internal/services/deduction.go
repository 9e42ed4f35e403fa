package services

import (
	"math"
	"sort"

	"milelog/internal/models/db_models"
	"milelog/internal/models/response_models"
)

// mileageRates holds IRS standard mileage rates in USD per mile.
type mileageRates struct {
	business float64
	medical  float64
	charity  float64
}

var irsRates = map[int]mileageRates{
	2022: {business: 0.625, medical: 0.22, charity: 0.14},
	2023: {business: 0.655, medical: 0.22, charity: 0.14},
	2024: {business: 0.67, medical: 0.21, charity: 0.14},
	2025: {business: 0.70, medical: 0.21, charity: 0.14},
}

const (
	firstRateYear = 2022
	lastRateYear  = 2025
)

// RateFor returns the deductible rate for a category in a tax year. Years
// outside the table use the nearest known year. Personal and custom
// categories are not deductible.
func RateFor(category string, year int) float64 {
	if year < firstRateYear {
		year = firstRateYear
	}
	if year > lastRateYear {
		year = lastRateYear
	}
	r := irsRates[year]

	switch category {
	case CategoryBusiness:
		return r.business
	case CategoryMedical, CategoryMoving:
		return r.medical
	case CategoryCharity:
		return r.charity
	}
	return 0
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// TripDeduction is the deduction for one trip at its own year's rate.
func TripDeduction(trip *db_models.Trip) float64 {
	return roundCents(trip.Distance * RateFor(trip.Category, trip.StartTime.Year()))
}

// SummarizeDeductions totals miles and deductions per category for year.
// Trips from other years are ignored.
func SummarizeDeductions(trips []db_models.Trip, year int) *response_models.DeductionSummary {
	byCategory := map[string]*response_models.CategoryDeduction{}
	summary := &response_models.DeductionSummary{Year: year, Categories: []response_models.CategoryDeduction{}}

	for i := range trips {
		t := &trips[i]
		if t.StartTime.Year() != year {
			continue
		}
		cd, ok := byCategory[t.Category]
		if !ok {
			cd = &response_models.CategoryDeduction{Category: t.Category, Rate: RateFor(t.Category, year)}
			byCategory[t.Category] = cd
		}
		cd.Miles += t.Distance
		cd.TripCount++
		summary.TotalMiles += t.Distance
	}

	for _, cd := range byCategory {
		cd.Miles = roundCents(cd.Miles)
		cd.Deduction = roundCents(cd.Miles * cd.Rate)
		summary.TotalDeduction += cd.Deduction
		summary.Categories = append(summary.Categories, *cd)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Category < summary.Categories[j].Category
	})
	summary.TotalMiles = roundCents(summary.TotalMiles)
	summary.TotalDeduction = roundCents(summary.TotalDeduction)
	return summary
}
