package streams

import (
	"testing"
	"time"
)

func TestStream_SendThenDone(t *testing.T) {
	s := New[int](4)
	if !s.Send(1) {
		t.Error("Expected Send to succeed on an open stream")
	}
	if !s.Send(2) {
		t.Error("Expected Send to succeed on an open stream")
	}
	s.Done()

	var got []int
	for v := range s.C() {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected [1 2], got %v", got)
	}
}

func TestStream_SendAfterDoneIsDropped(t *testing.T) {
	s := New[string](4)
	s.Done()
	if s.Send("late") {
		t.Error("Expected Send after Done to return false")
	}
	if _, ok := <-s.C(); ok {
		t.Error("Expected channel to be closed and empty")
	}
}

func TestStream_DoneIsIdempotent(t *testing.T) {
	s := New[bool](1)
	s.Done()
	s.Done() // must not panic
}

func TestStream_DoneWith(t *testing.T) {
	s := New[bool](1)
	s.DoneWith(false)

	v, ok := <-s.C()
	if !ok || v != false {
		t.Errorf("Expected final value false, got %v (open=%v)", v, ok)
	}
	if _, ok := <-s.C(); ok {
		t.Error("Expected stream closed after DoneWith")
	}
}

func TestStream_DoneNotBlockedByStalledSend(t *testing.T) {
	s := New[int](1)
	s.Send(1) // fill the buffer

	sendResult := make(chan bool)
	go func() { sendResult <- s.Send(2) }()
	time.Sleep(10 * time.Millisecond) // let the send block on the full buffer

	done := make(chan struct{})
	go func() {
		s.Done()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Done did not complete while a Send was blocked")
	}

	select {
	case ok := <-sendResult:
		if ok {
			t.Error("Expected the stalled Send to report failure after Done")
		}
	case <-time.After(time.Second):
		t.Fatal("Stalled Send did not return after Done")
	}

	if v, open := <-s.C(); !open || v != 1 {
		t.Errorf("Expected the buffered value to survive, got %v (open=%v)", v, open)
	}
	if _, open := <-s.C(); open {
		t.Error("Expected the stream closed after Done")
	}
}

func TestSet_CloseAllClosesEveryStream(t *testing.T) {
	set := NewSet()
	set.CloseAll()
	set.CloseAll() // idempotent

	if _, ok := <-set.UI.C(); ok {
		t.Error("Expected UI stream closed")
	}
	if _, ok := <-set.Generating.C(); ok {
		t.Error("Expected Generating stream closed")
	}
	if _, ok := <-set.Collapsed.C(); ok {
		t.Error("Expected Collapsed stream closed")
	}
}
