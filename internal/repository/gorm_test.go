package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/samthedataman/resumably/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormFindByMessageIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectQuery("SELECT \\* FROM `processed_emails`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.ProcessedEmails.FindByMessageID(context.Background(), 1, "m1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInsertIfAbsentCreates(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectExec("INSERT INTO `processed_emails`").
		WillReturnResult(sqlmock.NewResult(5, 1))

	pe, created, err := store.ProcessedEmails.InsertIfAbsent(context.Background(), &model.ProcessedEmail{
		UserID: 1, MessageID: "m1", ProcessedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(5), pe.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInsertIfAbsentReturnsExisting(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectExec("INSERT INTO `processed_emails`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT \\* FROM `processed_emails`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "message_id", "subject"}).
			AddRow(9, 1, "m1", "stored subject"))

	pe, created, err := store.ProcessedEmails.InsertIfAbsent(context.Background(), &model.ProcessedEmail{
		UserID: 1, MessageID: "m1", Subject: "new subject", ProcessedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint(9), pe.ID)
	assert.Equal(t, "stored subject", pe.Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedgerInsertsNewSkill(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `skill_learnings` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `skill_learnings`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Ledger.RecordMentions(context.Background(), 1, []model.SkillMention{
		{Name: "Spark", Category: "data_engineering", Context: "pipelines"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedgerUpdatesExistingSkill(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `skill_learnings` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "skill_name", "category", "occurrence_count", "contexts"}).
			AddRow(3, 1, "spark", "data_engineering", 1, []byte(`["first"]`)))
	mock.ExpectExec("UPDATE `skill_learnings` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Ledger.RecordMentions(context.Background(), 1, []model.SkillMention{
		{Name: "spark", Category: "analytics", Context: "second"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedgerRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `skill_learnings` .*FOR UPDATE").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.Ledger.RecordMentions(context.Background(), 1, []model.SkillMention{{Name: "go"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedgerRetriesDeadlock(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `skill_learnings` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `skill_learnings`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `skill_learnings` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `skill_learnings`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Ledger.RecordMentions(context.Background(), 1, []model.SkillMention{
		{Name: "Rust", Category: "languages", Context: "systems work"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedgerGivesUpAfterRepeatedDeadlocks(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	for i := 0; i < ledgerAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM `skill_learnings` .*FOR UPDATE").
			WillReturnError(&mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
		mock.ExpectRollback()
	}

	err := store.Ledger.RecordMentions(context.Background(), 1, []model.SkillMention{{Name: "go"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryableTxError(t *testing.T) {
	assert.True(t, isRetryableTxError(&mysqldriver.MySQLError{Number: 1213}))
	assert.True(t, isRetryableTxError(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, isRetryableTxError(&pgconn.PgError{Code: "40001"}))
	assert.False(t, isRetryableTxError(&mysqldriver.MySQLError{Number: 1062}))
	assert.False(t, isRetryableTxError(assert.AnError))
}

func TestGormLedgerSkipsEmptyMentions(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	err := store.Ledger.RecordMentions(context.Background(), 1, []model.SkillMention{{Name: "  "}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSetDefaultUnknownResume(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `resumes` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectRollback()

	err := store.Resumes.SetDefault(context.Background(), 1, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSetDefault(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `resumes` .*FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectExec("UPDATE `resumes` SET `is_default`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `resumes` SET `is_default`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Resumes.SetDefault(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDeleteMissingSkill(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormStore(db)

	mock.ExpectExec("DELETE FROM `skills`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Skills.Delete(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
