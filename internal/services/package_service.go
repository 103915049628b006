package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gear_rental_backend/internal/events"
	"gear_rental_backend/internal/models"
	"gear_rental_backend/internal/repositories"
	"gear_rental_backend/pkg/utils"
)

var (
	ErrPackageNotFound   = errors.New("package not found")
	ErrPackageValidation = errors.New("package data validation error")
)

// --- Package DTOs ---

type PackageRequirementRequest struct {
	EquipmentID     int64 `json:"equipment_id" binding:"required"`
	QuantityPerUnit int   `json:"quantity_per_unit" binding:"required,gte=1"`
}

type CreatePackageRequest struct {
	Name         string                      `json:"name" binding:"required"`
	FixedPrice   string                      `json:"fixed_price" binding:"required"`
	Description  *string                     `json:"description"`
	Requirements []PackageRequirementRequest `json:"equipment_items"`
}

type UpdatePackageRequest struct {
	Name         *string                      `json:"name"`
	FixedPrice   *string                      `json:"fixed_price"`
	Description  *string                      `json:"description"`
	Requirements *[]PackageRequirementRequest `json:"equipment_items"`
}

// --- PackageService Interface ---

type PackageService interface {
	CreatePackage(req CreatePackageRequest) (*models.Package, error)
	GetPackageByID(id int64) (*models.Package, error)
	GetPackages() ([]models.Package, error)
	UpdatePackage(id int64, req UpdatePackageRequest) (*models.Package, error)
	DeletePackage(id int64) error
}

type packageService struct {
	packageRepo   repositories.PackageRepository
	equipmentRepo repositories.EquipmentRepository
	bus           events.Bus
}

// NewPackageService creates a new instance of PackageService.
func NewPackageService(pr repositories.PackageRepository, er repositories.EquipmentRepository, bus events.Bus) PackageService {
	return &packageService{packageRepo: pr, equipmentRepo: er, bus: bus}
}

func (s *packageService) CreatePackage(req CreatePackageRequest) (*models.Package, error) {
	price, err := decimal.NewFromString(req.FixedPrice)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("%w: fixed_price must be a non-negative number", ErrPackageValidation)
	}
	requirements, err := s.validateRequirements(req.Requirements)
	if err != nil {
		return nil, err
	}

	pkg := &models.Package{
		Name:         req.Name,
		FixedPrice:   price,
		Description:  req.Description,
		Requirements: requirements,
	}
	if _, err := s.packageRepo.CreatePackage(pkg); err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}
	s.publishInventoryChanged(pkg.ID)
	return pkg, nil
}

func (s *packageService) GetPackageByID(id int64) (*models.Package, error) {
	pkg, err := s.packageRepo.GetPackageByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return pkg, nil
}

func (s *packageService) GetPackages() ([]models.Package, error) {
	packages, err := s.packageRepo.GetPackages()
	if err != nil {
		return nil, fmt.Errorf("failed to get packages: %w", err)
	}
	return packages, nil
}

func (s *packageService) UpdatePackage(id int64, req UpdatePackageRequest) (*models.Package, error) {
	pkg, err := s.GetPackageByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		pkg.Name = *req.Name
	}
	if req.FixedPrice != nil {
		price, err := decimal.NewFromString(*req.FixedPrice)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("%w: fixed_price must be a non-negative number", ErrPackageValidation)
		}
		pkg.FixedPrice = price
	}
	if req.Description != nil {
		pkg.Description = req.Description
	}
	if req.Requirements != nil {
		requirements, err := s.validateRequirements(*req.Requirements)
		if err != nil {
			return nil, err
		}
		pkg.Requirements = requirements
	}

	if err := s.packageRepo.UpdatePackage(pkg); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to update package: %w", err)
	}
	s.publishInventoryChanged(id)
	return pkg, nil
}

func (s *packageService) DeletePackage(id int64) error {
	if err := s.packageRepo.DeletePackage(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPackageNotFound
		}
		return fmt.Errorf("failed to delete package: %w", err)
	}
	s.publishInventoryChanged(id)
	return nil
}

// validateRequirements checks every referenced equipment item exists and
// quantities are positive. Duplicate equipment ids collapse into one line.
func (s *packageService) validateRequirements(reqs []PackageRequirementRequest) ([]models.PackageRequirement, error) {
	byID := make(map[int64]int, len(reqs))
	order := make([]int64, 0, len(reqs))
	for _, req := range reqs {
		if req.QuantityPerUnit <= 0 {
			return nil, fmt.Errorf("%w: quantity_per_unit must be at least 1", ErrPackageValidation)
		}
		if _, err := s.equipmentRepo.GetEquipmentItemByID(req.EquipmentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: equipment item %d does not exist", ErrPackageValidation, req.EquipmentID)
			}
			return nil, fmt.Errorf("failed to validate package requirement: %w", err)
		}
		if _, seen := byID[req.EquipmentID]; !seen {
			order = append(order, req.EquipmentID)
		}
		byID[req.EquipmentID] += req.QuantityPerUnit
	}

	out := make([]models.PackageRequirement, 0, len(order))
	for _, id := range order {
		out = append(out, models.PackageRequirement{EquipmentID: id, QuantityPerUnit: byID[id]})
	}
	return out, nil
}

func (s *packageService) publishInventoryChanged(id int64) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(context.Background(), events.Event{
		Topic:    events.TopicInventoryChanged,
		EntityID: id,
		At:       time.Now(),
	})
	utils.LogError(err, "publishing inventory change event")
}
