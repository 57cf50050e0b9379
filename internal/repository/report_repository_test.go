package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kintai-api/internal/models"
)

func reportRecordRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "reviewer_id", "title", "content", "date", "status", "created_at", "updated_at", "author_name", "author_email", "reviewer_name", "reviewer_email"}).
		AddRow("r1", "u1", nil, "日報", "本日の作業内容", now, string(models.ReportStatusDraft), now, now, "User", "user@example.com", nil, nil)
}

func TestGetRecord(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM reports r").
		WithArgs("r1").
		WillReturnRows(reportRecordRows(now))

	record, err := repo.GetRecord(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", record.ID)
	assert.Equal(t, models.ReportStatusDraft, record.Status)
	assert.Equal(t, "User", record.AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReport(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.Report{UserID: "u1", Title: "日報", Content: "内容", Date: time.Now(), Status: models.ReportStatusDraft}
	err := repo.Create(context.Background(), report)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithComments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE report_id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteWithComments(context.Background(), "r1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithCommentsMissingReport(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE report_id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteWithComments(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListComments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "report_id", "user_id", "content", "created_at", "author_name", "author_email"}).
		AddRow("c2", "r1", "u2", "確認しました", now, "Reviewer", "rev@example.com").
		AddRow("c1", "r1", "u1", "お疲れさまです", now.Add(-time.Hour), "User", "user@example.com")
	mock.ExpectQuery("SELECT (.+) FROM comments c JOIN users u").
		WithArgs("r1").
		WillReturnRows(rows)

	comments, err := repo.ListComments(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
