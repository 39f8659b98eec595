package jobqueue

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/slabtrack/cardstock/internal/usecase"
)

const importCommittedJobPath = "/v1/internal/jobs/exports/import-committed"

// ExportPublisher enqueues the post-commit export job for a finished import.
// The deduplication id is the session id, so a retried commit never enqueues
// the same export twice.
type ExportPublisher struct {
	queue *QStashPublisher
	delay time.Duration
}

func NewExportPublisher(queue *QStashPublisher, delay time.Duration) *ExportPublisher {
	return &ExportPublisher{
		queue: queue,
		delay: delay,
	}
}

func (p *ExportPublisher) PublishImportCommitted(ctx context.Context, event usecase.ImportCommittedEvent) error {
	if p.queue == nil {
		return crerr.New("job queue is not configured")
	}
	return p.queue.Enqueue(ctx, importCommittedJobPath, event, p.delay, event.SessionID)
}
