package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository_SearchByPhone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCustomerRepository(db)
	now := time.Now()

	t.Run("FragmentMatches", func(t *testing.T) {
		mock.ExpectQuery(`(?s)SELECT (.+) FROM customers.+regexp_replace`).
			WithArgs("7012").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "phone", "notes", "created_at", "updated_at",
			}).AddRow(1, "Aigerim", "+7 (701) 234-56-78", nil, now, now))

		customers, err := repo.SearchByPhone("7012")
		require.NoError(t, err)
		require.Len(t, customers, 1)
		assert.Equal(t, "Aigerim", customers[0].Name)
	})

	t.Run("NoMatchesReturnsEmptySlice", func(t *testing.T) {
		mock.ExpectQuery(`(?s)SELECT (.+) FROM customers.+regexp_replace`).
			WithArgs("999").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "phone", "notes", "created_at", "updated_at",
			}))

		customers, err := repo.SearchByPhone("999")
		require.NoError(t, err)
		assert.Empty(t, customers)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
