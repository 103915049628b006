package services

import (
	"errors"
	"fmt"

	"gear_rental_backend/internal/models"
	"gear_rental_backend/internal/repositories"
	"gear_rental_backend/pkg/utils"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerValidation = errors.New("customer data validation error")
)

// --- Customer DTOs ---

type CreateCustomerRequest struct {
	Name  string  `json:"name" binding:"required"`
	Phone string  `json:"phone" binding:"required"`
	Notes *string `json:"notes"`
}

type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
	Notes *string `json:"notes"`
}

// --- CustomerService Interface ---

type CustomerService interface {
	CreateCustomer(req CreateCustomerRequest) (*models.Customer, error)
	GetCustomerByID(id int64) (*models.Customer, error)
	GetCustomers(phoneFragment string) ([]models.Customer, error)
	UpdateCustomer(id int64, req UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(id int64) error
}

type customerService struct {
	customerRepo repositories.CustomerRepository
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(cr repositories.CustomerRepository) CustomerService {
	return &customerService{customerRepo: cr}
}

func (s *customerService) CreateCustomer(req CreateCustomerRequest) (*models.Customer, error) {
	if utils.NormalizePhone(req.Phone) == "" {
		return nil, fmt.Errorf("%w: phone must contain digits", ErrCustomerValidation)
	}
	customer := &models.Customer{
		Name:  req.Name,
		Phone: req.Phone,
		Notes: req.Notes,
	}
	if _, err := s.customerRepo.CreateCustomer(customer); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: a customer with this phone already exists", ErrCustomerValidation)
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) GetCustomerByID(id int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// GetCustomers lists customers, optionally narrowed by a partial phone match.
func (s *customerService) GetCustomers(phoneFragment string) ([]models.Customer, error) {
	var customers []models.Customer
	var err error
	if utils.NormalizePhone(phoneFragment) != "" {
		customers, err = s.customerRepo.SearchByPhone(phoneFragment)
	} else {
		customers, err = s.customerRepo.GetCustomers()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomer(id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.GetCustomerByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Phone != nil {
		if utils.NormalizePhone(*req.Phone) == "" {
			return nil, fmt.Errorf("%w: phone must contain digits", ErrCustomerValidation)
		}
		customer.Phone = *req.Phone
	}
	if req.Notes != nil {
		customer.Notes = req.Notes
	}

	if err := s.customerRepo.UpdateCustomer(customer); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) DeleteCustomer(id int64) error {
	if err := s.customerRepo.DeleteCustomer(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}
