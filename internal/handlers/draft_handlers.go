package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/services"
	"gear_rental_backend/pkg/utils"
)

// DraftHandler exposes the draft lifecycle: start, mutate, price, commit.
type DraftHandler struct {
	bookingService   services.BookingService
	inventoryService services.InventoryService
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(bs services.BookingService, is services.InventoryService) *DraftHandler {
	return &DraftHandler{bookingService: bs, inventoryService: is}
}

func parseDraftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid draft ID format.")
		return uuid.Nil, false
	}
	return id, true
}

func (h *DraftHandler) respondDraftError(c *gin.Context, err error, doing string) {
	var validation *booking.ValidationError
	switch {
	case errors.Is(err, services.ErrDraftNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Draft not found.", err.Error()))
	case errors.Is(err, services.ErrBookingNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Booking not found.", err.Error()))
	case errors.Is(err, services.ErrBookingTimeParse):
		utils.RespondValidationFailed(c, err.Error())
	case errors.As(err, &validation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), validation.Field))
	case errors.Is(err, services.ErrInventoryUnavailable):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeInternalServerError, "Inventory is temporarily unavailable.", err.Error()))
	default:
		utils.LogError(err, doing)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal error.", "Internal error"))
	}
}

// StartDraft opens a new draft, or an edit draft when booking_id is given.
func (h *DraftHandler) StartDraft(c *gin.Context) {
	var req services.StartDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "StartDraft: Failed to bind JSON")
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	view, err := h.bookingService.StartDraft(req)
	if err != nil {
		h.respondDraftError(c, err, "StartDraft: Error from bookingService.StartDraft")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetDraft returns the current draft state, availability included.
func (h *DraftHandler) GetDraft(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	view, err := h.bookingService.GetDraft(id)
	if err != nil {
		h.respondDraftError(c, err, "GetDraft: Error from bookingService.GetDraft")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ApplyEquipmentDelta adjusts one equipment quantity on the draft.
func (h *DraftHandler) ApplyEquipmentDelta(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req services.EquipmentDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}
	view, err := h.bookingService.ApplyEquipmentDelta(id, req)
	if err != nil {
		h.respondDraftError(c, err, "ApplyEquipmentDelta: Error from bookingService.ApplyEquipmentDelta")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ApplyPackageDelta adjusts one package quantity on the draft.
func (h *DraftHandler) ApplyPackageDelta(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req services.PackageDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}
	view, err := h.bookingService.ApplyPackageDelta(id, req)
	if err != nil {
		h.respondDraftError(c, err, "ApplyPackageDelta: Error from bookingService.ApplyPackageDelta")
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetInterval moves the draft's time window. Quantities survive the move;
// only availability is re-evaluated against the new window.
func (h *DraftHandler) SetInterval(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req services.SetIntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}
	view, err := h.bookingService.SetDraftInterval(id, req)
	if err != nil {
		h.respondDraftError(c, err, "SetInterval: Error from bookingService.SetDraftInterval")
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetManualPrice overrides the computed price. The override sticks across
// later selection changes until reverted.
func (h *DraftHandler) SetManualPrice(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req services.SetManualPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}
	view, err := h.bookingService.SetManualPrice(id, req)
	if err != nil {
		h.respondDraftError(c, err, "SetManualPrice: Error from bookingService.SetManualPrice")
		return
	}
	c.JSON(http.StatusOK, view)
}

// RevertPrice drops a manual override and returns to automatic pricing.
func (h *DraftHandler) RevertPrice(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	view, err := h.bookingService.RevertToAutomaticPrice(id)
	if err != nil {
		h.respondDraftError(c, err, "RevertPrice: Error from bookingService.RevertToAutomaticPrice")
		return
	}
	c.JSON(http.StatusOK, view)
}

// CommitDraft turns the draft into a persisted booking. A 409 with code
// CUSTOMER_DECISION_REQUIRED means the client must re-submit with
// create_customer set; the draft is preserved on every failure path.
func (h *DraftHandler) CommitDraft(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	var req services.CommitDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}
	b, err := h.bookingService.CommitDraft(id, req)
	if err != nil {
		if errors.Is(err, services.ErrDraftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Draft not found.", err.Error()))
			return
		}
		respondCommitError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// DiscardDraft throws the draft away without touching any booking.
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	id, ok := parseDraftID(c)
	if !ok {
		return
	}
	h.bookingService.DiscardDraft(id)
	c.JSON(http.StatusOK, gin.H{"message": "Draft discarded"})
}

// GetAvailability reports per-equipment remaining capacity for a window,
// without needing a draft. exclude_booking_id supports edit screens.
func (h *DraftHandler) GetAvailability(c *gin.Context) {
	startStr := c.Query("start_time")
	if startStr == "" {
		utils.RespondValidationFailed(c, "start_time is required.")
		return
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid start_time format. Use RFC3339.")
		return
	}
	durationMinutes, err := strconv.Atoi(c.DefaultQuery("duration_minutes", "60"))
	if err != nil || durationMinutes <= 0 {
		utils.RespondValidationFailed(c, "Invalid duration_minutes value.")
		return
	}

	var exclude *int64
	if excludeStr := c.Query("exclude_booking_id"); excludeStr != "" {
		id, err := strconv.ParseInt(excludeStr, 10, 64)
		if err != nil {
			utils.RespondValidationFailed(c, "Invalid exclude_booking_id format.")
			return
		}
		exclude = &id
	}

	ivl := booking.NewInterval(start, durationMinutes)
	rows, err := h.inventoryService.Availability(ivl, exclude)
	if err != nil {
		h.respondDraftError(c, err, "GetAvailability: Error from inventoryService.Availability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
