package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"milelog/internal/models/request_models"
	"milelog/internal/services"
	"milelog/pkg/middleware"
	"milelog/pkg/utils"
)

type TripController struct {
	tripService services.TripServiceInterface
}

func NewTripController(tripService services.TripServiceInterface) *TripController {
	return &TripController{
		tripService: tripService,
	}
}

// IngestTrip godoc
// @Summary Record a trip
// @Description Accepts a mobile (coordinate) or web form (address) trip. A submission recognised as an already stored journey updates it instead of inserting.
// @Tags Trips
// @Accept json
// @Produce json
// @Param X-User-Email header string false "Caller email"
// @Param request body request_models.TripSubmission true "Trip submission"
// @Success 200 {object} utils.APIResponse{data=response_models.IngestResult}
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 500 {object} utils.APIResponse
// @Router /trips [post]
func (t *TripController) IngestTrip(c *gin.Context) {
	var req request_models.TripSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleServiceError(c, fmt.Errorf("%w: %v", utils.ErrMalformedSubmission, err))
		return
	}

	result, err := t.tripService.IngestTrip(c.Request.Context(), middleware.UserEmail(c), &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	message := "Trip recorded"
	if result.Updated {
		message = "Trip merged with existing trip"
	}
	utils.RespondSuccess(c, result, message)
}

// ListTrips godoc
// @Summary List trips
// @Description Returns the caller's trips, newest first
// @Tags Trips
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} utils.APIResponse{data=[]response_models.TripResponse}
// @Failure 400 {object} utils.APIResponse
// @Router /trips [get]
func (t *TripController) ListTrips(c *gin.Context) {
	var req request_models.ListTripsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.HandleServiceError(c, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err))
		return
	}

	trips, err := t.tripService.ListTrips(c.Request.Context(), middleware.UserEmail(c), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, trips, "Trips retrieved successfully")
}

// UpdateTrip godoc
// @Summary Update a trip
// @Tags Trips
// @Accept json
// @Produce json
// @Param id path int true "Trip ID"
// @Param request body request_models.TripUpdateRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse{data=response_models.TripResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /trips/{id} [put]
func (t *TripController) UpdateTrip(c *gin.Context) {
	id, ok := tripIDParam(c)
	if !ok {
		return
	}

	var req request_models.TripUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleServiceError(c, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err))
		return
	}

	trip, err := t.tripService.UpdateTrip(c.Request.Context(), middleware.UserEmail(c), id, &req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, trip, "Trip updated successfully")
}

// DeleteTrip godoc
// @Summary Delete a trip
// @Tags Trips
// @Produce json
// @Param id path int true "Trip ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /trips/{id} [delete]
func (t *TripController) DeleteTrip(c *gin.Context) {
	id, ok := tripIDParam(c)
	if !ok {
		return
	}

	if err := t.tripService.DeleteTrip(c.Request.Context(), middleware.UserEmail(c), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Trip deleted successfully")
}

// ListClients godoc
// @Summary List client names
// @Description Distinct client names from the caller's trips, for autocomplete
// @Tags Trips
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string}
// @Router /trips/clients [get]
func (t *TripController) ListClients(c *gin.Context) {
	clients, err := t.tripService.ListClients(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, clients, "Clients retrieved successfully")
}

// GetDeduction godoc
// @Summary Mileage deduction summary
// @Description Totals deductible miles per category at the IRS standard rate for the year
// @Tags Trips
// @Produce json
// @Param year query int false "Tax year, defaults to the current year"
// @Success 200 {object} utils.APIResponse{data=response_models.DeductionSummary}
// @Failure 400 {object} utils.APIResponse
// @Router /trips/deduction [get]
func (t *TripController) GetDeduction(c *gin.Context) {
	year, ok := yearQuery(c)
	if !ok {
		return
	}

	summary, err := t.tripService.DeductionSummary(c.Request.Context(), middleware.UserEmail(c), year)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, summary, "Deduction calculated successfully")
}

// ExportTrips godoc
// @Summary Export trips as CSV
// @Tags Trips
// @Produce text/csv
// @Param year query int false "Tax year, all years when omitted"
// @Success 200 {file} file
// @Failure 400 {object} utils.APIResponse
// @Router /trips/export [get]
func (t *TripController) ExportTrips(c *gin.Context) {
	year, ok := yearQuery(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := t.tripService.ExportCSV(c.Request.Context(), middleware.UserEmail(c), year, &buf); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	filename := "trips.csv"
	if year > 0 {
		filename = fmt.Sprintf("trips-%d.csv", year)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func tripIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid trip id")
		return 0, false
	}
	return uint(id), true
}

// yearQuery reads ?year, returning 0 when absent.
func yearQuery(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("year"))
	if raw == "" {
		return 0, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		utils.HandleServiceError(c, fmt.Errorf("%w: year %q", utils.ErrInvalidInput, raw))
		return 0, false
	}
	return year, true
}
