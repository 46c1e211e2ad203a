package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository"
	apperrors "github.com/jwalitptl/showcase-api/pkg/errors"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
)

// Recorder appends notifications inside a caller's unit of work. Each
// notification is mirrored as an outbox event so the worker can fan it out
// to the message broker once the transaction commits.
type Recorder struct {
	metrics *metrics.Metrics
}

func NewRecorder(m *metrics.Metrics) *Recorder {
	return &Recorder{metrics: m}
}

func validateNotice(notice *model.Notice) error {
	if notice.UserID == uuid.Nil {
		return apperrors.InvalidArgument("notification recipient is required")
	}
	if strings.TrimSpace(notice.Title) == "" {
		return apperrors.InvalidArgument("notification title is required")
	}
	if !notice.Type.Valid() {
		return apperrors.InvalidArgument(fmt.Sprintf("unknown notification type %q", notice.Type))
	}
	return nil
}

func (r *Recorder) Append(ctx context.Context, tx repository.Repositories, notice model.Notice) (*model.Notification, error) {
	if err := validateNotice(&notice); err != nil {
		return nil, err
	}

	n := &model.Notification{
		UserID:  notice.UserID,
		Type:    notice.Type,
		Title:   notice.Title,
		Message: notice.Message,
		Related: notice.Related,
	}
	if err := tx.Notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	event, err := model.NewOutboxEvent(model.EventNotificationCreated, n.Event(), model.Headers{
		"user_id": n.UserID.String(),
		"type":    string(n.Type),
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Outbox.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to enqueue notification event: %w", err)
	}

	r.metrics.NotificationCreated(string(n.Type))
	return n, nil
}
