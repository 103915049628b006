package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"gear_rental_backend/internal/booking"
	"gear_rental_backend/internal/events"
	"gear_rental_backend/internal/handlers"
	"gear_rental_backend/internal/middleware"
	"gear_rental_backend/internal/repositories"
	"gear_rental_backend/internal/services"
)

// Setup wires repositories, services, and handlers onto the engine and
// returns the inventory service so the caller can close its subscriptions
// on shutdown.
func Setup(engine *gin.Engine, db *sql.DB, bus events.Bus) services.InventoryService {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	equipmentRepo := repositories.NewEquipmentRepository(db)
	packageRepo := repositories.NewPackageRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)

	// Services
	authService := services.NewAuthService(authRepo, db)
	equipmentService := services.NewEquipmentService(equipmentRepo, db, bus)
	packageService := services.NewPackageService(packageRepo, equipmentRepo, bus)
	customerService := services.NewCustomerService(customerRepo)
	inventoryService := services.NewInventoryService(equipmentRepo, packageRepo, bookingRepo, bus)
	draftStore := booking.NewDraftStore(0)
	bookingService := services.NewBookingService(bookingRepo, customerRepo, inventoryService, draftStore, bus)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	equipmentHandler := handlers.NewEquipmentHandler(equipmentService)
	packageHandler := handlers.NewPackageHandler(packageService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	draftHandler := handlers.NewDraftHandler(bookingService, inventoryService)

	apiV1 := engine.Group("/api/v1")

	authPublicRoutes := apiV1.Group("/auth")
	SetupPublicAuthRoutes(authPublicRoutes, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupEquipmentRoutes(authenticated, equipmentHandler)
		SetupPackageRoutes(authenticated, packageHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
		SetupBookingRoutes(authenticated, bookingHandler)
		SetupDraftRoutes(authenticated, draftHandler)
		SetupAvailabilityRoutes(authenticated, draftHandler)
	}

	return inventoryService
}

// SetupPublicAuthRoutes registers the unauthenticated auth endpoints.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterUser)
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes registers the auth endpoints that require a token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
}
