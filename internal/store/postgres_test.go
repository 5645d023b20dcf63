package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/rpggio/accord/internal/domain/activity"
	"github.com/rpggio/accord/internal/domain/instance"
	"github.com/rpggio/accord/internal/domain/user"
	"github.com/rpggio/accord/internal/repository"
	"github.com/stretchr/testify/require"
)

func newPostgresMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	dialect, err := DialectFor(DialectPostgres)
	require.NoError(t, err)
	return Wrap(sqlDB, dialect), mock
}

func TestPostgres_CreateIfAbsentRebindsPlaceholders(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewInstanceRepository(db)

	weekStart := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	inst := instance.Instance{
		ID:         "i1",
		ContractID: "c1",
		TemplateID: "t1",
		UserID:     "alice",
		WeekStart:  weekStart,
		DueAt:      weekStart.AddDate(0, 0, 7).Add(-time.Millisecond),
		CreatedAt:  weekStart,
	}
	existing := inst
	existing.ID = "i2"
	existing.Occurrence = 1

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)") + `\s+ON CONFLICT DO NOTHING`)
	prep.ExpectExec().
		WithArgs("i1", "c1", "t1", "alice", weekStart.UnixMilli(), 0, inst.DueAt.UnixMilli(), nil, nil, weekStart.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("i2", "c1", "t1", "alice", weekStart.UnixMilli(), 1, inst.DueAt.UnixMilli(), nil, nil, weekStart.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	n, err := repo.CreateIfAbsent(context.Background(), []instance.Instance{inst, existing})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateIfAbsentRollsBackOnForeignKeyViolation(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewInstanceRepository(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO obligation_instances")
	prep.ExpectExec().WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, err := repo.CreateIfAbsent(context.Background(), []instance.Instance{{ID: "i1"}})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UniqueViolationMapsToConflict(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, display_name, created_at)")+`\s+`+regexp.QuoteMeta("VALUES ($1, $2, $3)")).
		WithArgs("alice", "Alice", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &user.User{ID: "alice", DisplayName: "Alice"})
	require.ErrorIs(t, err, repository.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ActivityLogReturnsID(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewActivityRepository(db)

	mock.ExpectQuery(`INSERT INTO activity_log .*`+regexp.QuoteMeta("VALUES ($1, $2, $3, $4, $5, $6, $7)")+`\s+RETURNING id`).
		WithArgs("c1", "alice", nil, "contract_created", "created", "", testNow.UnixMilli()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	entry := &activity.ActivityEntry{
		ContractID:   "c1",
		UserID:       "alice",
		ActivityType: activity.TypeContractCreated,
		Summary:      "created",
		CreatedAt:    testNow,
	}
	require.NoError(t, repo.Log(context.Background(), entry))
	require.Equal(t, int64(42), entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListActiveBindsBoolean(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := NewContractRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.is_active = $1 AND c.deleted_at IS NULL")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "creator_id", "due_date", "is_active", "created_at", "activated_at", "deleted_at",
		}).AddRow("c1", "Chores", "alice", nil, true, testNow.UnixMilli(), testNow.UnixMilli(), nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM contract_participants WHERE contract_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice").AddRow("bob"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT template_id FROM contract_templates WHERE contract_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"template_id"}).AddRow("t1"))

	contracts, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	require.Equal(t, []string{"alice", "bob"}, contracts[0].ParticipantIDs)
	require.Equal(t, []string{"t1"}, contracts[0].TemplateIDs)
	require.True(t, contracts[0].ActivatedAt.Equal(testNow))
	require.NoError(t, mock.ExpectationsWereMet())
}
