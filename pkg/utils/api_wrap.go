package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: c.GetString("trace_id"),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	respondFailure(c, code, "", message)
}

func respondFailure(c *gin.Context, code int, reason, message string) {
	c.JSON(code, APIResponse{
		Success: false,
		Status:  "error",
		Code:    code,
		Message: message,
		Reason:  reason,
		TraceID: c.GetString("trace_id"),
	})
}

// serviceErrors maps sentinel errors to their HTTP status and the
// machine-readable reason returned to clients.
var serviceErrors = []struct {
	err     error
	code    int
	reason  string
	message string
}{
	{ErrAuthenticationRequired, http.StatusUnauthorized, "authentication_required", "Authentication required"},
	{ErrUserNotFound, http.StatusNotFound, "user_not_found", "User not found"},
	{ErrMalformedSubmission, http.StatusBadRequest, "malformed_submission", "Submission does not match a supported trip format"},
	{ErrInvalidDistance, http.StatusBadRequest, "invalid_distance", "Distance must be a number greater than 0"},
	{ErrCorruptedCoordinates, http.StatusBadRequest, "corrupted_coordinates", "All coordinates are zero"},
	{ErrTripNotFoundOrUnauthorized, http.StatusNotFound, "not_found_or_unauthorized", "Trip not found or not owned by caller"},
	{ErrEmailAlreadyExists, http.StatusConflict, "email_already_exists", "Email already registered"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
	{ErrInvalidCode, http.StatusBadRequest, "invalid_code", "Invalid verification code"},
	{ErrCodeExpired, http.StatusGone, "code_expired", "Verification code expired or not found"},
	{ErrTooManyAttempts, http.StatusTooManyRequests, "too_many_attempts", "Too many attempts, request a new code"},
	{ErrSMSDelivery, http.StatusBadGateway, "sms_delivery_failed", "Could not send verification code"},
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input", "Invalid input"},
	{ErrInvalidPage, http.StatusBadRequest, "invalid_input", "Page must be greater than 0"},
	{ErrInvalidPageSize, http.StatusBadRequest, "invalid_input", "Page size must be between 1 and 100"},
}

func HandleServiceError(c *gin.Context, err error) {
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			respondFailure(c, se.code, se.reason, se.message)
			return
		}
	}

	entry := log.WithField("trace_id", c.GetString("trace_id")).WithError(err)
	if errors.Is(err, ErrDatabaseError) {
		entry.Error("Database error")
		respondFailure(c, http.StatusInternalServerError, "persistence_failure", "Internal server error")
		return
	}
	entry.Error("Unknown error")
	respondFailure(c, http.StatusInternalServerError, "internal_error", "Internal server error")
}
