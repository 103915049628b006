package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/models"
	"gear_rental_backend/internal/services"
	"gear_rental_backend/pkg/utils"
)

// BookingHandler holds the booking service.
type BookingHandler struct {
	bookingService services.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bs services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bs}
}

// respondCommitError maps the commit error taxonomy onto HTTP responses.
// Availability and validation failures are client-correctable; the customer
// decision pause is a 409 the client resumes by re-submitting with an answer.
func respondCommitError(c *gin.Context, err error) {
	var validation *booking.ValidationError
	var unavailable *booking.UnavailableEquipmentError
	var insufficient *booking.InsufficientAvailabilityError
	var schema *booking.SchemaMismatchError
	var decision *booking.CustomerDecisionRequiredError

	switch {
	case errors.As(err, &validation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), validation.Field))
	case errors.As(err, &unavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), unavailable.Name))
	case errors.As(err, &insufficient):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), insufficient.Name))
	case errors.As(err, &schema):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeSchemaMismatch, err.Error(), schema.Column))
	case errors.As(err, &decision):
		c.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":           utils.ErrCodeDecisionRequired,
				"message":        err.Error(),
				"customer_name":  decision.CustomerName,
				"customer_phone": decision.CustomerPhone,
			},
		})
	case errors.Is(err, services.ErrDraftNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Draft not found.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to commit booking.", err.Error()))
	}
}

// GetBookings handles fetching bookings with pagination and filters.
func (h *BookingHandler) GetBookings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filters := models.BookingFilters{Page: page, PageSize: pageSize}

	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		id, err := strconv.ParseInt(customerIDStr, 10, 64)
		if err != nil {
			utils.RespondValidationFailed(c, "Invalid customer_id format.")
			return
		}
		filters.CustomerID = &id
	}
	if dateFromStr := c.Query("date_from"); dateFromStr != "" {
		t, err := time.Parse("2006-01-02", dateFromStr)
		if err != nil {
			utils.RespondValidationFailed(c, "Invalid date_from format. Use YYYY-MM-DD.")
			return
		}
		filters.DateFrom = &t
	}
	if dateToStr := c.Query("date_to"); dateToStr != "" {
		t, err := time.Parse("2006-01-02", dateToStr)
		if err != nil {
			utils.RespondValidationFailed(c, "Invalid date_to format. Use YYYY-MM-DD.")
			return
		}
		t = t.Add(24 * time.Hour) // half-open: include the whole named day
		filters.DateTo = &t
	}
	if paidStr := c.Query("paid"); paidStr != "" {
		paid, err := strconv.ParseBool(paidStr)
		if err != nil {
			utils.RespondValidationFailed(c, "Invalid paid value.")
			return
		}
		filters.Paid = &paid
	}
	if invoicedStr := c.Query("invoiced"); invoicedStr != "" {
		invoiced, err := strconv.ParseBool(invoicedStr)
		if err != nil {
			utils.RespondValidationFailed(c, "Invalid invoiced value.")
			return
		}
		filters.Invoiced = &invoiced
	}

	bookings, totalCount, err := h.bookingService.GetBookings(filters)
	if err != nil {
		utils.LogError(err, "GetBookings: Error from bookingService.GetBookings")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bookings.", "Internal error"))
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      bookings,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetBookingByID handles fetching a single booking by ID.
func (h *BookingHandler) GetBookingByID(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid booking ID format.")
		return
	}

	b, err := h.bookingService.GetBookingByID(bookingID)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Booking not found.", err.Error()))
		} else {
			utils.LogError(err, "GetBookingByID: Error from bookingService.GetBookingByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch booking.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, b)
}

// PatchBooking handles updating a booking's auxiliary fields (paid/invoiced
// flags, notes, phone, customer link). Time window and selection edits go
// through a draft instead.
func (h *BookingHandler) PatchBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid booking ID format.")
		return
	}

	var patch models.BookingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.LogError(err, "PatchBooking: Failed to bind JSON")
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	b, err := h.bookingService.PatchBooking(bookingID, patch)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Booking not found to update.", err.Error()))
		} else {
			utils.LogError(err, "PatchBooking: Error from bookingService.PatchBooking")
			respondCommitError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBooking handles deleting a booking.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid booking ID format.")
		return
	}

	if err := h.bookingService.DeleteBooking(bookingID); err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Booking not found to delete.", err.Error()))
		} else {
			utils.LogError(err, "DeleteBooking: Error from bookingService.DeleteBooking")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete booking.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted successfully"})
}
