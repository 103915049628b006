package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gear_rental_backend/internal/models"
)

func TestPackageRepository_GetPackageByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPackageRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, fixed_price, description, created_at, updated_at FROM packages WHERE id = ").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "fixed_price", "description", "created_at", "updated_at",
		}).AddRow(3, "Family Picnic", "50.00", "table, chairs, grill", now, now))
	mock.ExpectQuery("SELECT package_id, equipment_id, quantity_per_unit FROM package_equipment").
		WillReturnRows(sqlmock.NewRows([]string{"package_id", "equipment_id", "quantity_per_unit"}).
			AddRow(3, 7, 2).
			AddRow(3, 9, 1))

	pkg, err := repo.GetPackageByID(3)
	require.NoError(t, err)
	assert.Equal(t, "Family Picnic", pkg.Name)
	assert.True(t, pkg.FixedPrice.Equal(decimal.RequireFromString("50.00")))
	require.Len(t, pkg.Requirements, 2)
	assert.Equal(t, 2, pkg.Requirements[0].QuantityPerUnit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageRepository_CreatePackage_WritesRequirementsInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPackageRepository(db)
	pkg := &models.Package{
		Name:       "Family Picnic",
		FixedPrice: decimal.RequireFromString("50.00"),
		Requirements: []models.PackageRequirement{
			{EquipmentID: 7, QuantityPerUnit: 2},
			{EquipmentID: 9, QuantityPerUnit: 1},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO packages").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec("INSERT INTO package_equipment").
		WithArgs(int64(3), int64(7), 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO package_equipment").
		WithArgs(int64(3), int64(9), 1).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	id, err := repo.CreatePackage(pkg)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
