package errors

import "testing"

func TestLastMessageRoundTrip(t *testing.T) {
	SetLast(nil)
	if _, ok := Last(); ok {
		t.Fatal("expected no last message")
	}
	err := New(KindParse, Position{Offset: 4}, "unexpected token %q", "+")
	SetLast(err)
	msg, ok := Last()
	if !ok {
		t.Fatal("expected a last message")
	}
	if msg != err.Error() {
		t.Fatalf("Last() = %q, want %q", msg, err.Error())
	}
	SetLast(nil)
	if _, ok := Last(); ok {
		t.Fatal("expected last message cleared")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := New(KindResource, Position{}, "disk full")
	wrapped := Wrap(KindResource, Position{}, cause, "writing cache entry")
	if wrapped.Unwrap() != error(cause) {
		t.Fatalf("Unwrap() did not return original cause")
	}
}
