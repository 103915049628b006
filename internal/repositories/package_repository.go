package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gear_rental_backend/internal/models"
)

// PackageRepository defines the interface for package-related database operations.
// Packages and their equipment requirements are written together in one
// transaction so a package is never visible with half its requirements.
type PackageRepository interface {
	CreatePackage(pkg *models.Package) (int64, error)
	GetPackageByID(id int64) (*models.Package, error)
	GetPackages() ([]models.Package, error)
	UpdatePackage(pkg *models.Package) error
	DeletePackage(id int64) error
}

type packageRepository struct {
	db *sql.DB
}

// NewPackageRepository creates a new instance of PackageRepository.
func NewPackageRepository(db *sql.DB) PackageRepository {
	return &packageRepository{db: db}
}

func (r *packageRepository) CreatePackage(pkg *models.Package) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: beginning package create: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	currentTime := time.Now()
	pkg.CreatedAt = currentTime
	pkg.UpdatedAt = currentTime

	err = tx.QueryRow(
		`INSERT INTO packages (name, fixed_price, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		pkg.Name, pkg.FixedPrice, pkg.Description, pkg.CreatedAt, pkg.UpdatedAt,
	).Scan(&pkg.ID)
	if err != nil {
		return 0, wrapPQError(err, "creating package")
	}

	if err := insertPackageRequirements(tx, pkg.ID, pkg.Requirements); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing package create: %v", ErrDatabaseError, err)
	}
	return pkg.ID, nil
}

func (r *packageRepository) GetPackageByID(id int64) (*models.Package, error) {
	pkg := &models.Package{}
	err := r.db.QueryRow(
		`SELECT id, name, fixed_price, description, created_at, updated_at FROM packages WHERE id = $1`, id,
	).Scan(&pkg.ID, &pkg.Name, &pkg.FixedPrice, &pkg.Description, &pkg.CreatedAt, &pkg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapPQError(err, fmt.Sprintf("getting package by ID %d", id))
	}

	reqs, err := r.loadRequirements([]int64{id})
	if err != nil {
		return nil, err
	}
	pkg.Requirements = reqs[id]
	return pkg, nil
}

func (r *packageRepository) GetPackages() ([]models.Package, error) {
	rows, err := r.db.Query(`SELECT id, name, fixed_price, description, created_at, updated_at FROM packages ORDER BY name ASC`)
	if err != nil {
		return nil, wrapPQError(err, "querying packages")
	}
	defer rows.Close()

	packages := []models.Package{}
	ids := []int64{}
	for rows.Next() {
		var pkg models.Package
		if err := rows.Scan(&pkg.ID, &pkg.Name, &pkg.FixedPrice, &pkg.Description, &pkg.CreatedAt, &pkg.UpdatedAt); err != nil {
			return nil, wrapPQError(err, "scanning package")
		}
		packages = append(packages, pkg)
		ids = append(ids, pkg.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating package rows: %v", ErrDatabaseError, err)
	}

	reqs, err := r.loadRequirements(ids)
	if err != nil {
		return nil, err
	}
	for i := range packages {
		packages[i].Requirements = reqs[packages[i].ID]
	}
	return packages, nil
}

func (r *packageRepository) UpdatePackage(pkg *models.Package) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning package update: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	pkg.UpdatedAt = time.Now()
	err = tx.QueryRow(
		`UPDATE packages SET name = $1, fixed_price = $2, description = $3, updated_at = $4
		 WHERE id = $5 RETURNING updated_at`,
		pkg.Name, pkg.FixedPrice, pkg.Description, pkg.UpdatedAt, pkg.ID,
	).Scan(&pkg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return wrapPQError(err, fmt.Sprintf("updating package ID %d", pkg.ID))
	}

	// Requirements are replaced wholesale; the package row's transaction
	// keeps old and new sets from interleaving.
	if _, err := tx.Exec(`DELETE FROM package_equipment WHERE package_id = $1`, pkg.ID); err != nil {
		return wrapPQError(err, "clearing package requirements")
	}
	if err := insertPackageRequirements(tx, pkg.ID, pkg.Requirements); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing package update: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *packageRepository) DeletePackage(id int64) error {
	result, err := r.db.Exec(`DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return wrapPQError(err, fmt.Sprintf("deleting package ID %d", id))
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func insertPackageRequirements(executor SQLExecutor, packageID int64, reqs []models.PackageRequirement) error {
	for _, req := range reqs {
		_, err := executor.Exec(
			`INSERT INTO package_equipment (package_id, equipment_id, quantity_per_unit) VALUES ($1, $2, $3)`,
			packageID, req.EquipmentID, req.QuantityPerUnit,
		)
		if err != nil {
			return wrapPQError(err, "inserting package requirement")
		}
	}
	return nil
}

// loadRequirements fetches the equipment requirements for a set of package
// ids in one query, keyed by package id.
func (r *packageRepository) loadRequirements(packageIDs []int64) (map[int64][]models.PackageRequirement, error) {
	out := make(map[int64][]models.PackageRequirement, len(packageIDs))
	if len(packageIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(
		`SELECT package_id, equipment_id, quantity_per_unit FROM package_equipment
		 WHERE package_id = ANY($1) ORDER BY package_id, equipment_id`,
		pq.Array(packageIDs),
	)
	if err != nil {
		return nil, wrapPQError(err, "querying package requirements")
	}
	defer rows.Close()

	for rows.Next() {
		var packageID int64
		var req models.PackageRequirement
		if err := rows.Scan(&packageID, &req.EquipmentID, &req.QuantityPerUnit); err != nil {
			return nil, wrapPQError(err, "scanning package requirement")
		}
		out[packageID] = append(out[packageID], req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating requirement rows: %v", ErrDatabaseError, err)
	}
	return out, nil
}
