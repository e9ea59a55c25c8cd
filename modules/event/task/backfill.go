package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/modules/event/dto"

	"github.com/hibiken/asynq"
)

// BackfillPayload selects whose events to migrate. An empty OwnerID means all owners.
type BackfillPayload struct {
	OwnerID string `json:"owner_id,omitempty"`
}

// NewBackfillLegacyMetaTask builds the task that moves "[META]" description
// blocks into structured fields.
func NewBackfillLegacyMetaTask(ownerID string) (*asynq.Task, error) {
	payload, err := json.Marshal(BackfillPayload{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(constants.TaskBackfillLegacyMeta, payload,
		asynq.Queue(constants.QueueMaintenance),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
	), nil
}

// Backfiller runs one backfill pass.
type Backfiller interface {
	BackfillLegacyMeta(ctx context.Context, ownerID string) (*dto.BackfillReport, *errors.AppError)
}

type BackfillHandler struct {
	backfiller Backfiller
}

func NewBackfillHandler(backfiller Backfiller) *BackfillHandler {
	return &BackfillHandler{backfiller: backfiller}
}

func (h *BackfillHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload BackfillPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			// A malformed payload will never succeed.
			return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
	}

	logger.Info("BackfillHandler:ProcessTask:Start", "owner_id", payload.OwnerID)
	report, appErr := h.backfiller.BackfillLegacyMeta(ctx, payload.OwnerID)
	if appErr != nil {
		logger.Error("BackfillHandler:ProcessTask:Failed", "owner_id", payload.OwnerID, "error", appErr)
		return appErr
	}
	logger.Info("BackfillHandler:ProcessTask:Done", "owner_id", payload.OwnerID,
		"scanned", report.Scanned, "updated", report.Updated, "groups", report.Groups)
	return nil
}
