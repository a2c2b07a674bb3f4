package admin

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/MasterLaplace/Optimizing/internal/testutil/testlog"
)

func TestServeStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, &fakeView{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not return after cancel")
	}
}

func TestServeReportsListenError(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t, &fakeView{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	s.Addr = ln.Addr().String()
	if err := s.Serve(context.Background()); err == nil {
		t.Fatalf("expected listen error")
	}
}
