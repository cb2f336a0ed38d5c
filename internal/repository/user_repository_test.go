package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbook/appointment-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userColumns() []string {
	return []string{"id", "email", "password_hash", "full_name", "role", "student_id", "department", "active", "created_at", "updated_at"}
}

func TestUserFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow("u1", "prof@example.edu", "hash", "Prof Example", string(models.RoleProfessor), nil, "Physics", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(email) = LOWER($1)")).
		WithArgs("prof@example.edu").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "prof@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "prof@example.edu", user.Email)
	assert.Equal(t, models.RoleProfessor, user.Role)
	require.NotNil(t, user.Department)
	assert.Equal(t, "Physics", *user.Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	studentID := "S-1001"
	user := &models.User{
		Email:        "student@example.edu",
		PasswordHash: "hash",
		FullName:     "Student Example",
		Role:         models.RoleStudent,
		StudentID:    &studentID,
		Active:       true,
	}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"?column?"}).AddRow(1)
	mock.ExpectQuery("SELECT 1 FROM users").WithArgs("taken@example.edu").WillReturnRows(rows)

	exists, err := repo.ExistsByEmail(context.Background(), "taken@example.edu")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM users").WithArgs("free@example.edu").WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByEmail(context.Background(), "free@example.edu")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
