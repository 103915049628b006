package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gear_rental_backend/internal/models"
	"gear_rental_backend/internal/services"
	"gear_rental_backend/pkg/utils"
)

// EquipmentHandler holds the equipment service.
type EquipmentHandler struct {
	equipmentService services.EquipmentService
}

// NewEquipmentHandler creates a new EquipmentHandler.
func NewEquipmentHandler(es services.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipmentService: es}
}

// CreateEquipmentItem handles adding a new equipment item to the catalog.
func (h *EquipmentHandler) CreateEquipmentItem(c *gin.Context) {
	var req services.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateEquipmentItem: Failed to bind JSON")
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	item, err := h.equipmentService.CreateEquipmentItem(req)
	if err != nil {
		if errors.Is(err, services.ErrEquipmentValidation) {
			utils.RespondValidationFailed(c, err.Error())
		} else {
			utils.LogError(err, "CreateEquipmentItem: Error from equipmentService.CreateEquipmentItem")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create equipment item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetEquipmentItems handles fetching the full equipment catalog.
func (h *EquipmentHandler) GetEquipmentItems(c *gin.Context) {
	items, err := h.equipmentService.GetEquipmentItems()
	if err != nil {
		utils.LogError(err, "GetEquipmentItems: Error from equipmentService.GetEquipmentItems")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch equipment items.", "Internal error"))
		return
	}
	if items == nil {
		items = []models.EquipmentItem{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// GetEquipmentItemByID handles fetching a single equipment item.
func (h *EquipmentHandler) GetEquipmentItemByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid equipment ID format.")
		return
	}

	item, err := h.equipmentService.GetEquipmentItemByID(id)
	if err != nil {
		if errors.Is(err, services.ErrEquipmentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Equipment item not found.", err.Error()))
		} else {
			utils.LogError(err, "GetEquipmentItemByID: Error from equipmentService.GetEquipmentItemByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch equipment item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateEquipmentItem handles updating an equipment item.
func (h *EquipmentHandler) UpdateEquipmentItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid equipment ID format.")
		return
	}

	var req services.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateEquipmentItem: Failed to bind JSON")
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	item, err := h.equipmentService.UpdateEquipmentItem(id, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEquipmentNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Equipment item not found to update.", err.Error()))
		case errors.Is(err, services.ErrEquipmentValidation):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "UpdateEquipmentItem: Error from equipmentService.UpdateEquipmentItem")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update equipment item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteEquipmentItem handles removing an equipment item from the catalog.
func (h *EquipmentHandler) DeleteEquipmentItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid equipment ID format.")
		return
	}

	if err := h.equipmentService.DeleteEquipmentItem(id); err != nil {
		if errors.Is(err, services.ErrEquipmentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Equipment item not found to delete.", err.Error()))
		} else {
			utils.LogError(err, "DeleteEquipmentItem: Error from equipmentService.DeleteEquipmentItem")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete equipment item.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Equipment item deleted successfully"})
}
