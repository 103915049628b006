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

// PackageHandler holds the package service.
type PackageHandler struct {
	packageService services.PackageService
}

// NewPackageHandler creates a new PackageHandler.
func NewPackageHandler(ps services.PackageService) *PackageHandler {
	return &PackageHandler{packageService: ps}
}

// CreatePackage handles adding a new fixed-price package.
func (h *PackageHandler) CreatePackage(c *gin.Context) {
	var req services.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreatePackage: Failed to bind JSON")
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	pkg, err := h.packageService.CreatePackage(req)
	if err != nil {
		if errors.Is(err, services.ErrPackageValidation) {
			utils.RespondValidationFailed(c, err.Error())
		} else {
			utils.LogError(err, "CreatePackage: Error from packageService.CreatePackage")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create package.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// GetPackages handles fetching all packages with their equipment requirements.
func (h *PackageHandler) GetPackages(c *gin.Context) {
	pkgs, err := h.packageService.GetPackages()
	if err != nil {
		utils.LogError(err, "GetPackages: Error from packageService.GetPackages")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch packages.", "Internal error"))
		return
	}
	if pkgs == nil {
		pkgs = []models.Package{}
	}
	c.JSON(http.StatusOK, gin.H{"data": pkgs})
}

// GetPackageByID handles fetching a single package.
func (h *PackageHandler) GetPackageByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid package ID format.")
		return
	}

	pkg, err := h.packageService.GetPackageByID(id)
	if err != nil {
		if errors.Is(err, services.ErrPackageNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Package not found.", err.Error()))
		} else {
			utils.LogError(err, "GetPackageByID: Error from packageService.GetPackageByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch package.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// UpdatePackage handles updating a package and, when given, replacing its
// equipment requirements wholesale.
func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid package ID format.")
		return
	}

	var req services.UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdatePackage: Failed to bind JSON")
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return
	}

	pkg, err := h.packageService.UpdatePackage(id, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPackageNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Package not found to update.", err.Error()))
		case errors.Is(err, services.ErrPackageValidation):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "UpdatePackage: Error from packageService.UpdatePackage")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update package.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// DeletePackage handles removing a package.
func (h *PackageHandler) DeletePackage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid package ID format.")
		return
	}

	if err := h.packageService.DeletePackage(id); err != nil {
		if errors.Is(err, services.ErrPackageNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Package not found to delete.", err.Error()))
		} else {
			utils.LogError(err, "DeletePackage: Error from packageService.DeletePackage")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete package.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Package deleted successfully"})
}
