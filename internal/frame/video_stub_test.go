//go:build !gocv
// +build !gocv

package frame

import (
	"strings"
	"testing"
)

func TestOpenVideo_Stub(t *testing.T) {
	src, err := OpenVideo("sprint.mp4", 0)
	if err == nil {
		t.Fatal("expected error from stub")
	}
	if src != nil {
		t.Error("stub should not return a source")
	}
	if !strings.Contains(err.Error(), "-tags=gocv") {
		t.Errorf("error %q should mention the build tag", err)
	}
}
