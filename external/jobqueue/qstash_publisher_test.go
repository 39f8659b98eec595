package jobqueue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEnqueueMarksRetryableStatusTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	queue := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		Token:         "qstash-token",
		TargetBaseURL: "https://cardstock.internal",
	}, nil)

	err := queue.Enqueue(context.Background(), "/v1/internal/jobs/exports/import-committed", map[string]string{"k": "v"}, 0, "dedup-1")
	if !errors.Is(err, errQueueTransient) {
		t.Fatalf("expected transient classification for 503, got %v", err)
	}
}

func TestEnqueueRejectsBadRequestWithoutTransientMark(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	queue := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		Token:         "qstash-token",
		TargetBaseURL: "https://cardstock.internal",
	}, nil)

	err := queue.Enqueue(context.Background(), "/v1/internal/jobs/exports/import-committed", nil, 0, "")
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if errors.Is(err, errQueueTransient) {
		t.Fatalf("400 must not count as transient, got %v", err)
	}
}

func TestDelayHeaderValueRoundsToWholeSeconds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{1500 * time.Millisecond, "2s"},
		{30 * time.Second, "30s"},
	}
	for _, tc := range cases {
		if got := delayHeaderValue(tc.in); got != tc.want {
			t.Fatalf("delayHeaderValue(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
