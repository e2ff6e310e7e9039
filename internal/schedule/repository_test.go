package schedule

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var templateRowColumns = []string{
	"id", "title", "instructor", "day_of_week", "start_time", "duration_minutes", "eligibility", "capacity", "created_at",
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreateTemplate(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	instructor := "Ayşe"
	in := Template{
		ID:              id,
		Title:           "Pilates",
		Instructor:      &instructor,
		DayOfWeek:       Monday,
		StartTime:       "18:00",
		DurationMinutes: 60,
		Eligibility:     EligibilityFemale,
		Capacity:        12,
	}

	mock.ExpectQuery(`INSERT INTO session_templates`).
		WithArgs(id, "Pilates", &instructor, Monday, ClockTime("18:00"), 60, EligibilityFemale, 12).
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow(id.String(), "Pilates", "Ayşe", 1, "18:00", 60, "female", 12, time.Now()))

	got, err := repo.CreateTemplate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, Monday, got.DayOfWeek)
	assert.Equal(t, ClockTime("18:00"), got.StartTime)
	require.NotNil(t, got.Instructor)
	assert.Equal(t, "Ayşe", *got.Instructor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTemplate_DatabaseError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO session_templates`).WillReturnError(errors.New("connection refused"))

	_, err := repo.CreateTemplate(context.Background(), Template{ID: uuid.New()})
	assert.ErrorContains(t, err, "insert template")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTemplates(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE deleted_at IS NULL`) + `\s+` + regexp.QuoteMeta(`ORDER BY (day_of_week + 6) % 7, start_time, title`)).
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow(uuid.NewString(), "Spin", nil, 1, "07:00", 45, "mixed", 20, time.Now()).
			AddRow(uuid.NewString(), "Yoga", nil, 0, "10:00", 60, "mixed", 15, time.Now()))

	templates, err := repo.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Nil(t, templates[0].Instructor)
	assert.Equal(t, Sunday, templates[1].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTemplates_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM session_templates`).
		WillReturnRows(sqlmock.NewRows(templateRowColumns))

	templates, err := repo.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, templates)
	assert.Empty(t, templates)
}

func TestGetTemplate(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM session_templates\s+WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(templateRowColumns).
			AddRow(id.String(), "Boxing", nil, 3, "19:30", 90, "male", 8, time.Now()))

	tpl, err := repo.GetTemplate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, Wednesday, tpl.DayOfWeek)
	assert.Equal(t, EligibilityMale, tpl.Eligibility)
	assert.Equal(t, 90, tpl.DurationMinutes)
}

func TestGetTemplate_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM session_templates`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(templateRowColumns))

	_, err := repo.GetTemplate(context.Background(), id)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
