package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gear_rental_backend/internal/models"
)

// CustomerRepository defines the interface for customer-related database operations.
type CustomerRepository interface {
	CreateCustomer(customer *models.Customer) (int64, error)
	GetCustomerByID(id int64) (*models.Customer, error)
	GetCustomers() ([]models.Customer, error)
	SearchByPhone(phoneFragment string) ([]models.Customer, error)
	UpdateCustomer(customer *models.Customer) error
	DeleteCustomer(id int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const selectCustomerFields = `id, name, phone, notes, created_at, updated_at`

func scanCustomerRow(s scanner, c *models.Customer) error {
	return s.Scan(&c.ID, &c.Name, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
}

func (r *customerRepository) CreateCustomer(customer *models.Customer) (int64, error) {
	currentTime := time.Now()
	customer.CreatedAt = currentTime
	customer.UpdatedAt = currentTime

	err := r.db.QueryRow(
		`INSERT INTO customers (name, phone, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		customer.Name, customer.Phone, customer.Notes, customer.CreatedAt, customer.UpdatedAt,
	).Scan(&customer.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating customer")
	}
	return customer.ID, nil
}

func (r *customerRepository) GetCustomerByID(id int64) (*models.Customer, error) {
	customer := &models.Customer{}
	err := scanCustomerRow(r.db.QueryRow(
		`SELECT `+selectCustomerFields+` FROM customers WHERE id = $1`, id,
	), customer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapPQError(err, fmt.Sprintf("getting customer by ID %d", id))
	}
	return customer, nil
}

func (r *customerRepository) GetCustomers() ([]models.Customer, error) {
	rows, err := r.db.Query(`SELECT ` + selectCustomerFields + ` FROM customers ORDER BY name ASC`)
	if err != nil {
		return nil, wrapPQError(err, "querying customers")
	}
	defer rows.Close()

	return collectCustomers(rows)
}

// SearchByPhone returns customers whose phone contains the given fragment,
// case-insensitively. Non-digit separators in the stored phone are ignored so
// "7012" matches "+7 (701) 2...".
func (r *customerRepository) SearchByPhone(phoneFragment string) ([]models.Customer, error) {
	rows, err := r.db.Query(
		`SELECT `+selectCustomerFields+` FROM customers
		 WHERE regexp_replace(phone, '\D', '', 'g') ILIKE '%' || regexp_replace($1, '\D', '', 'g') || '%'
		 ORDER BY name ASC`,
		phoneFragment,
	)
	if err != nil {
		return nil, wrapPQError(err, "searching customers by phone")
	}
	defer rows.Close()

	return collectCustomers(rows)
}

func (r *customerRepository) UpdateCustomer(customer *models.Customer) error {
	customer.UpdatedAt = time.Now()
	err := r.db.QueryRow(
		`UPDATE customers SET name = $1, phone = $2, notes = $3, updated_at = $4
		 WHERE id = $5 RETURNING updated_at`,
		customer.Name, customer.Phone, customer.Notes, customer.UpdatedAt, customer.ID,
	).Scan(&customer.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapPQError(err, fmt.Sprintf("updating customer ID %d", customer.ID))
	}
	return nil
}

func (r *customerRepository) DeleteCustomer(id int64) error {
	result, err := r.db.Exec(`DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting customer ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func collectCustomers(rows *sql.Rows) ([]models.Customer, error) {
	customers := []models.Customer{}
	for rows.Next() {
		var customer models.Customer
		if err := scanCustomerRow(rows, &customer); err != nil {
			return nil, wrapPQError(err, "scanning customer")
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, nil
}
