package diagnostics

import "testing"

func TestBroadcastToNoSubscribersDoesNotPanic(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(Event{Level: "info", Message: "no subscribers yet"})
}

func TestLoggerWithoutHubDoesNotPanic(t *testing.T) {
	l := NewLogger()
	l.Infof("compiled kernel %s", "k0")
	l.Warnf("cache miss for hash %s", "abc123")
	l.Errorf("jit_unsupported: %v", "complex literal")
}

func TestLoggerAttachBroadcastsToHub(t *testing.T) {
	hub := NewHub()
	l := NewLogger()
	l.Attach(hub)
	l.Infof("kernel %s compiled in %dms", "k1", 12)
}
