package usecase

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

const (
	OperationAppend = "append"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferActivity(ctx context.Context, operation string, entry *domain.ActivityEntry) error
}
