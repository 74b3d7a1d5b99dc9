package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("no-op logger should not have triggered the previous callback")
	}
}

func TestTagged(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})

	logf := Tagged("sprint")
	logf("start at frame %d", 12)

	// Swapping the logger after Tagged must still route through the new one.
	var late string
	SetLogger(func(format string, v ...interface{}) {
		late = fmt.Sprintf(format, v...)
	})
	logf("finish")

	if len(got) != 1 || got[0] != "[sprint] start at frame 12" {
		t.Errorf("first message = %v, want [\"[sprint] start at frame 12\"]", got)
	}
	if late != "[sprint] finish" {
		t.Errorf("late message = %q, want %q", late, "[sprint] finish")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()
	Logf("test message: %s", "value")
}
