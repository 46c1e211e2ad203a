package postgres

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

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var requestCols = []string{
	"id", "name", "short_description", "description", "status",
	"requester_id", "assignee_id", "assigned_email", "app_id", "team_id",
	"created_at", "updated_at",
}

func TestAppRequestRepository_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppRequestRepository(NewBaseRepository(db))
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM app_requests r WHERE r.id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(requestCols))

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppRequestRepository_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppRequestRepository(NewBaseRepository(db))

	status := model.RequestStatusAssigned
	teamID := uuid.New()
	assignee := uuid.New()
	reqID := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(append(append([]string{}, requestCols...), "pending_claims_count")).
		AddRow(reqID.String(), "Ledger App", "Ledger", nil, "assigned",
			uuid.NewString(), assignee.String(), nil, nil, teamID.String(), now, now, 2)

	mock.ExpectQuery(`WHERE r.status = \$1 AND r.team_id = \$2 AND \(r.assignee_id = \$3 OR lower\(r.assigned_email\) = lower\(\$4\)\)\s+ORDER BY r.created_at DESC`).
		WithArgs(status, teamID, assignee, "bob@example.com").
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), &model.AppRequestFilters{
		Status:        &status,
		TeamID:        &teamID,
		AssigneeID:    &assignee,
		AssigneeEmail: "bob@example.com",
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, reqID, items[0].ID)
	assert.Equal(t, model.RequestStatusAssigned, items[0].Status)
	assert.Equal(t, 2, items[0].PendingClaimsCount)
	require.NotNil(t, items[0].AssigneeID)
	assert.Equal(t, assignee, *items[0].AssigneeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppRequestRepository_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAppRequestRepository(NewBaseRepository(db))

	mock.ExpectExec("UPDATE app_requests SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.AppRequest{Base: model.Base{ID: uuid.New()}, Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestNotificationRepository_CreateAndList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(NewBaseRepository(db))
	userID := uuid.New()
	reqID := uuid.New()

	n := &model.Notification{
		UserID:  userID,
		Type:    model.NotificationNewClaim,
		Title:   "New claim request for: Ledger App",
		Related: model.AppRequestRef(reqID),
	}
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(sqlmock.AnyArg(), userID, model.NotificationNewClaim, n.Title, nil,
			"app_request", reqID, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), n))
	assert.NotEqual(t, uuid.Nil, n.ID)

	cols := []string{"id", "user_id", "type", "title", "message", "related_type", "related_id", "is_read", "created_at"}
	mock.ExpectQuery(`WHERE user_id = \$1 AND is_read = FALSE ORDER BY created_at DESC, id LIMIT \$2`).
		WithArgs(userID, 20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(n.ID.String(), userID.String(), "new_claim", n.Title, nil, "app_request", reqID.String(), false, time.Now()))

	items, err := repo.List(context.Background(), userID, true, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Related)
	assert.Equal(t, model.RelatedAppRequest, items[0].Related.Kind)
	assert.Equal(t, reqID, items[0].Related.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkReadNotOwned(t *testing.T) {
	db, mock := newMock(t)
	repo := NewNotificationRepository(NewBaseRepository(db))

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE WHERE id = \\$1 AND user_id = \\$2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOutboxRepository_PendingUsesSkipLocked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOutboxRepository(NewBaseRepository(db))

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(model.OutboxStatusPending, 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_type", "payload", "headers", "status", "error_message",
			"retry_count", "retry_at", "created_at", "processed_at", "updated_at",
		}).AddRow(uuid.NewString(), model.EventNotificationCreated, []byte(`{}`), []byte(`{"type":"new_claim"}`),
			"PENDING", nil, 0, nil, time.Now(), nil, time.Now()))

	events, err := repo.GetPendingEventsWithLock(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new_claim", events[0].Headers["type"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxRollsBack(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.WithTx(context.Background(), func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Notifications.Delete(ctx, uuid.New(), uuid.New()))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxCommits(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM outbox_events").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	var purged int64
	err := store.WithTx(context.Background(), func(ctx context.Context, tx repository.Repositories) error {
		var err error
		purged, err = tx.Outbox.DeleteProcessedBefore(ctx, time.Now())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
