package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/usecase"
)

// activityPriority ranks audit entries ahead of the store default.
const activityPriority = 2

// BufferBridge adapts the processor to the use-case facing OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferActivity(ctx context.Context, operation string, entry *domain.ActivityEntry) error {
	if b.processor == nil || entry == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	item := buffer.Item{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Entity:    buffer.EntityActivity,
		Operation: operation,
		Data:      payload,
		Priority:  activityPriority,
	}
	return b.processor.Enqueue(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
