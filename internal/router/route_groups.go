package router

import (
	"github.com/gin-gonic/gin"

	"gear_rental_backend/internal/handlers"
	"gear_rental_backend/internal/middleware"
)

// SetupEquipmentRoutes sets up the equipment catalog routes.
// Catalog writes are admin-only; reads are open to staff.
func SetupEquipmentRoutes(authenticatedGroup *gin.RouterGroup, equipmentHandler *handlers.EquipmentHandler) {
	equipmentWriteRoutes := authenticatedGroup.Group("/equipment")
	equipmentWriteRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		equipmentWriteRoutes.POST("", equipmentHandler.CreateEquipmentItem)
		equipmentWriteRoutes.PUT("/:id", equipmentHandler.UpdateEquipmentItem)
		equipmentWriteRoutes.DELETE("/:id", equipmentHandler.DeleteEquipmentItem)
	}

	authenticatedGroup.GET("/equipment", middleware.RoleAuthMiddleware("admin", "staff"), equipmentHandler.GetEquipmentItems)
	authenticatedGroup.GET("/equipment/:id", middleware.RoleAuthMiddleware("admin", "staff"), equipmentHandler.GetEquipmentItemByID)
}

// SetupPackageRoutes sets up the package catalog routes.
func SetupPackageRoutes(authenticatedGroup *gin.RouterGroup, packageHandler *handlers.PackageHandler) {
	packageWriteRoutes := authenticatedGroup.Group("/packages")
	packageWriteRoutes.Use(middleware.RoleAuthMiddleware("admin"))
	{
		packageWriteRoutes.POST("", packageHandler.CreatePackage)
		packageWriteRoutes.PUT("/:id", packageHandler.UpdatePackage)
		packageWriteRoutes.DELETE("/:id", packageHandler.DeletePackage)
	}

	authenticatedGroup.GET("/packages", middleware.RoleAuthMiddleware("admin", "staff"), packageHandler.GetPackages)
	authenticatedGroup.GET("/packages/:id", middleware.RoleAuthMiddleware("admin", "staff"), packageHandler.GetPackageByID)
}

// SetupCustomerRoutes sets up the customer registry routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff"))
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", customerHandler.DeleteCustomer)
	}
}

// SetupBookingRoutes sets up the persisted booking routes. Creating and
// editing bookings goes through drafts; these cover reads, auxiliary
// patches, and deletion.
func SetupBookingRoutes(authenticatedGroup *gin.RouterGroup, bookingHandler *handlers.BookingHandler) {
	bookingRoutes := authenticatedGroup.Group("/bookings")
	bookingRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff"))
	{
		bookingRoutes.GET("", bookingHandler.GetBookings)
		bookingRoutes.GET("/:id", bookingHandler.GetBookingByID)
		bookingRoutes.PATCH("/:id", bookingHandler.PatchBooking)
		bookingRoutes.DELETE("/:id", bookingHandler.DeleteBooking)
	}
}

// SetupDraftRoutes sets up the draft lifecycle routes.
func SetupDraftRoutes(authenticatedGroup *gin.RouterGroup, draftHandler *handlers.DraftHandler) {
	draftRoutes := authenticatedGroup.Group("/drafts")
	draftRoutes.Use(middleware.RoleAuthMiddleware("admin", "staff"))
	{
		draftRoutes.POST("", draftHandler.StartDraft)
		draftRoutes.GET("/:id", draftHandler.GetDraft)
		draftRoutes.POST("/:id/equipment-delta", draftHandler.ApplyEquipmentDelta)
		draftRoutes.POST("/:id/package-delta", draftHandler.ApplyPackageDelta)
		draftRoutes.PUT("/:id/interval", draftHandler.SetInterval)
		draftRoutes.PUT("/:id/price", draftHandler.SetManualPrice)
		draftRoutes.DELETE("/:id/price", draftHandler.RevertPrice)
		draftRoutes.POST("/:id/commit", draftHandler.CommitDraft)
		draftRoutes.DELETE("/:id", draftHandler.DiscardDraft)
	}
}

// SetupAvailabilityRoutes sets up the standalone availability lookup.
func SetupAvailabilityRoutes(authenticatedGroup *gin.RouterGroup, draftHandler *handlers.DraftHandler) {
	authenticatedGroup.GET("/availability", middleware.RoleAuthMiddleware("admin", "staff"), draftHandler.GetAvailability)
}
