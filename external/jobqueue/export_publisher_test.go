package jobqueue

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slabtrack/cardstock/internal/usecase"
)

func TestExportPublisherEnqueuesImportCommitted(t *testing.T) {
	t.Parallel()

	var gotPath, gotDedup, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	queue := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		Token:         "qstash-token",
		TargetBaseURL: "https://cardstock.internal",
	}, nil)
	publisher := NewExportPublisher(queue, 0)

	event := usecase.ImportCommittedEvent{
		SessionID:      "sess-1",
		OrganizationID: "org-1",
		CatalogID:      "catalog-1",
		CardIDs:        []string{"card-1"},
		CardCount:      1,
		CommittedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := publisher.PublishImportCommitted(context.Background(), event); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}

	if !strings.HasPrefix(gotPath, "/v2/publish/") {
		t.Fatalf("unexpected publish path %q", gotPath)
	}
	if !strings.HasSuffix(gotPath, importCommittedJobPath) {
		t.Fatalf("expected target path suffix %q, got %q", importCommittedJobPath, gotPath)
	}
	if gotDedup != "sess-1" {
		t.Fatalf("expected session id as deduplication id, got %q", gotDedup)
	}
	if !strings.Contains(gotBody, `"session_id":"sess-1"`) {
		t.Fatalf("expected event payload in body, got %s", gotBody)
	}
}

func TestExportPublisherRequiresQueue(t *testing.T) {
	t.Parallel()

	publisher := NewExportPublisher(nil, 0)
	if err := publisher.PublishImportCommitted(context.Background(), usecase.ImportCommittedEvent{}); err == nil {
		t.Fatalf("expected error without a configured queue")
	}
}
