package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gear_rental_backend/internal/models"
)

// EquipmentRepository defines the interface for equipment-related database operations.
type EquipmentRepository interface {
	CreateEquipmentItem(executor SQLExecutor, item *models.EquipmentItem) (int64, error)
	GetEquipmentItemByID(id int64) (*models.EquipmentItem, error)
	GetEquipmentItems() ([]models.EquipmentItem, error)
	UpdateEquipmentItem(executor SQLExecutor, item *models.EquipmentItem) error
	DeleteEquipmentItem(executor SQLExecutor, id int64) error
}

type equipmentRepository struct {
	db *sql.DB
}

// NewEquipmentRepository creates a new instance of EquipmentRepository.
func NewEquipmentRepository(db *sql.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

const selectEquipmentFields = `id, name, total_quantity, status, hourly_rate, notes, created_at, updated_at`

func scanEquipmentRow(row scanner) (*models.EquipmentItem, error) {
	item := &models.EquipmentItem{}
	err := row.Scan(
		&item.ID, &item.Name, &item.TotalQuantity, &item.Status, &item.HourlyRate,
		&item.Notes, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapPQError(err, "scanning equipment item")
	}
	return item, nil
}

func (r *equipmentRepository) CreateEquipmentItem(executor SQLExecutor, item *models.EquipmentItem) (int64, error) {
	query := `INSERT INTO equipment_items (name, total_quantity, status, hourly_rate, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	item.CreatedAt = currentTime
	item.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		item.Name, item.TotalQuantity, item.Status, item.HourlyRate, item.Notes,
		item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating equipment item")
	}
	return item.ID, nil
}

func (r *equipmentRepository) GetEquipmentItemByID(id int64) (*models.EquipmentItem, error) {
	query := "SELECT " + selectEquipmentFields + " FROM equipment_items WHERE id = $1"
	return scanEquipmentRow(r.db.QueryRow(query, id))
}

func (r *equipmentRepository) GetEquipmentItems() ([]models.EquipmentItem, error) {
	query := "SELECT " + selectEquipmentFields + " FROM equipment_items ORDER BY name ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, wrapPQError(err, "querying equipment items")
	}
	defer rows.Close()

	items := []models.EquipmentItem{}
	for rows.Next() {
		item, scanErr := scanEquipmentRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating equipment rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *equipmentRepository) UpdateEquipmentItem(executor SQLExecutor, item *models.EquipmentItem) error {
	query := `UPDATE equipment_items SET
	            name = $1, total_quantity = $2, status = $3, hourly_rate = $4, notes = $5, updated_at = $6
	          WHERE id = $7
	          RETURNING updated_at`
	item.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		item.Name, item.TotalQuantity, item.Status, item.HourlyRate, item.Notes,
		item.UpdatedAt, item.ID,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapPQError(err, fmt.Sprintf("updating equipment item ID %d", item.ID))
	}
	return nil
}

func (r *equipmentRepository) DeleteEquipmentItem(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM equipment_items WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting equipment item ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
