package services

import (
	"context"
	"database/sql"
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
	ErrEquipmentNotFound   = errors.New("equipment item not found")
	ErrEquipmentValidation = errors.New("equipment data validation error")
)

// --- Equipment DTOs ---

type CreateEquipmentRequest struct {
	Name          string  `json:"name" binding:"required"`
	TotalQuantity int     `json:"total_quantity" binding:"required,gte=0"`
	Status        string  `json:"status"`
	HourlyRate    string  `json:"hourly_rate" binding:"required"`
	Notes         *string `json:"notes"`
}

type UpdateEquipmentRequest struct {
	Name          *string `json:"name"`
	TotalQuantity *int    `json:"total_quantity"`
	Status        *string `json:"status"`
	HourlyRate    *string `json:"hourly_rate"`
	Notes         *string `json:"notes"`
}

// --- EquipmentService Interface ---

type EquipmentService interface {
	CreateEquipmentItem(req CreateEquipmentRequest) (*models.EquipmentItem, error)
	GetEquipmentItemByID(id int64) (*models.EquipmentItem, error)
	GetEquipmentItems() ([]models.EquipmentItem, error)
	UpdateEquipmentItem(id int64, req UpdateEquipmentRequest) (*models.EquipmentItem, error)
	DeleteEquipmentItem(id int64) error
}

type equipmentService struct {
	equipmentRepo repositories.EquipmentRepository
	db            *sql.DB
	bus           events.Bus
}

// NewEquipmentService creates a new instance of EquipmentService.
func NewEquipmentService(er repositories.EquipmentRepository, db *sql.DB, bus events.Bus) EquipmentService {
	return &equipmentService{equipmentRepo: er, db: db, bus: bus}
}

func (s *equipmentService) CreateEquipmentItem(req CreateEquipmentRequest) (*models.EquipmentItem, error) {
	status := models.EquipmentStatusAvailable
	if req.Status != "" {
		if !models.IsValidEquipmentStatus(req.Status) {
			return nil, fmt.Errorf("%w: invalid status '%s'", ErrEquipmentValidation, req.Status)
		}
		status = models.EquipmentStatus(req.Status)
	}
	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || rate.IsNegative() {
		return nil, fmt.Errorf("%w: hourly_rate must be a non-negative number", ErrEquipmentValidation)
	}
	if req.TotalQuantity < 0 {
		return nil, fmt.Errorf("%w: total_quantity cannot be negative", ErrEquipmentValidation)
	}

	item := &models.EquipmentItem{
		Name:          req.Name,
		TotalQuantity: req.TotalQuantity,
		Status:        status,
		HourlyRate:    rate,
		Notes:         req.Notes,
	}
	if _, err := s.equipmentRepo.CreateEquipmentItem(s.db, item); err != nil {
		return nil, fmt.Errorf("failed to create equipment item: %w", err)
	}
	s.publishInventoryChanged(item.ID)
	return item, nil
}

func (s *equipmentService) GetEquipmentItemByID(id int64) (*models.EquipmentItem, error) {
	item, err := s.equipmentRepo.GetEquipmentItemByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to get equipment item: %w", err)
	}
	return item, nil
}

func (s *equipmentService) GetEquipmentItems() ([]models.EquipmentItem, error) {
	items, err := s.equipmentRepo.GetEquipmentItems()
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment items: %w", err)
	}
	return items, nil
}

func (s *equipmentService) UpdateEquipmentItem(id int64, req UpdateEquipmentRequest) (*models.EquipmentItem, error) {
	item, err := s.GetEquipmentItemByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.TotalQuantity != nil {
		if *req.TotalQuantity < 0 {
			return nil, fmt.Errorf("%w: total_quantity cannot be negative", ErrEquipmentValidation)
		}
		item.TotalQuantity = *req.TotalQuantity
	}
	if req.Status != nil {
		if !models.IsValidEquipmentStatus(*req.Status) {
			return nil, fmt.Errorf("%w: invalid status '%s'", ErrEquipmentValidation, *req.Status)
		}
		item.Status = models.EquipmentStatus(*req.Status)
	}
	if req.HourlyRate != nil {
		rate, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("%w: hourly_rate must be a non-negative number", ErrEquipmentValidation)
		}
		item.HourlyRate = rate
	}
	if req.Notes != nil {
		item.Notes = req.Notes
	}

	if err := s.equipmentRepo.UpdateEquipmentItem(s.db, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to update equipment item: %w", err)
	}
	s.publishInventoryChanged(id)
	return item, nil
}

func (s *equipmentService) DeleteEquipmentItem(id int64) error {
	if err := s.equipmentRepo.DeleteEquipmentItem(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEquipmentNotFound
		}
		return fmt.Errorf("failed to delete equipment item: %w", err)
	}
	s.publishInventoryChanged(id)
	return nil
}

func (s *equipmentService) publishInventoryChanged(id int64) {
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
