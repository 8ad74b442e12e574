package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stockadmin/console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		setupMock     func(sqlmock.Sqlmock)
		expectedUser  *models.User
		expectedError error
	}{
		{
			name:  "success",
			email: "admin@example.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "role"}).
					AddRow(1, "admin@example.com", "Admin", "hash", "admin")
				mock.ExpectQuery(`SELECT id, email, name, password_hash, role\s+FROM users\s+WHERE email = \?`).
					WithArgs("admin@example.com").
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Email: "admin@example.com", Name: "Admin", PasswordHash: "hash", Role: models.RoleAdmin},
		},
		{
			name:  "not found",
			email: "missing@example.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, email, name, password_hash, role`).
					WithArgs("missing@example.com").
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrNotFound,
		},
		{
			name:  "database error",
			email: "admin@example.com",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, email, name, password_hash, role`).
					WithArgs("admin@example.com").
					WillReturnError(errors.New("connection refused"))
			},
			expectedError: errors.New("failed to get user"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupMockDB(t)
			defer cleanup()
			repo := NewUserRepository(db)
			tt.setupMock(mock)

			user, err := repo.GetByEmail(context.Background(), tt.email)

			if tt.expectedError != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedError, models.ErrNotFound) {
					assert.ErrorIs(t, err, models.ErrNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.expectedError.Error())
				}
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedUser, user)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "name", "password_hash", "role"}).
		AddRow(2, "manager@example.com", "Manager", "hash", "manager")
	mock.ExpectQuery(`FROM users\s+WHERE id = \?`).WithArgs(2).WillReturnRows(rows)

	user, err := repo.GetByID(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetAll(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedCount int
		expectedError bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "email", "name", "role"}).
					AddRow(1, "admin@example.com", "Admin", "admin").
					AddRow(2, "clerk@example.com", "Clerk", "employee")
				mock.ExpectQuery(`SELECT id, email, name, role\s+FROM users\s+ORDER BY id`).WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name: "empty",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role"}))
			},
			expectedCount: 0,
		},
		{
			name: "scan error",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "email", "name", "role"}).
					AddRow("not-a-number", "admin@example.com", "Admin", "admin")
				mock.ExpectQuery(`FROM users`).WillReturnRows(rows)
			},
			expectedError: true,
		},
		{
			name: "query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM users`).WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupMockDB(t)
			defer cleanup()
			repo := NewUserRepository(db)
			tt.setupMock(mock)

			users, err := repo.GetAll(context.Background())

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, users)
			} else {
				require.NoError(t, err)
				assert.Len(t, users, tt.expectedCount)
				assert.NotNil(t, users)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users \(email, name, password_hash, role\)`).
					WithArgs("admin@example.com", "Admin", "hash", "admin").
					WillReturnResult(sqlmock.NewResult(5, 1))
			},
		},
		{
			name: "duplicate email",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO users`).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'admin@example.com'"})
			},
			expectedError: models.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupMockDB(t)
			defer cleanup()
			repo := NewUserRepository(db)
			tt.setupMock(mock)
			user := &models.User{Email: "admin@example.com", Name: "Admin", PasswordHash: "hash", Role: models.RoleAdmin}

			err := repo.Create(context.Background(), user)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 5, user.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
