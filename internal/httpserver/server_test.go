package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRunStopsWhenContextIsCancelled(t *testing.T) {
	srv := New(0, http.NotFoundHandler(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	srv := New(-1, http.NotFoundHandler(), nil)

	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected invalid port to fail")
	}
}
