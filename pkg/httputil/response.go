package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/transplant-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    errors.ErrorCode       `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// statusOf maps application error codes onto HTTP statuses. Precondition
// failures are 409: the request was well formed but the entity state forbids
// it.
func statusOf(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest, errors.ErrInvalidDate:
		return http.StatusBadRequest
	case errors.ErrOrganUnavailable,
		errors.ErrOrganNotEligible,
		errors.ErrOrganNotAllocated,
		errors.ErrTerminalStateViolation,
		errors.ErrRecipientNotEligible,
		errors.ErrDuplicatePendingAllocation,
		errors.ErrDeadlinePassed,
		errors.ErrNoAcceptedAllocation,
		errors.ErrHospitalIncapable,
		errors.ErrSurgeonMismatch,
		errors.ErrNoActiveWaitlistEntry,
		errors.ErrIneligibleCandidate,
		errors.ErrDuplicateWaitlistEntry,
		errors.ErrDonorNotEligible:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		c.JSON(statusOf(appErr.Code), Response{
			Success: false,
			Error: &Error{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error: &Error{
			Code:    errors.ErrInternal,
			Message: "internal server error",
		},
	})
}

// RespondWithValidationError sends a 400 with the binding failure message
func RespondWithValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &Error{
			Code:    errors.ErrBadRequest,
			Message: err.Error(),
		},
	})
}
