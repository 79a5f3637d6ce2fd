package main

import (
	"strings"
	"testing"
)

func TestCrashTextTruncatesStack(t *testing.T) {
	stack := []byte(strings.Repeat("x", 5000))
	got := crashText("boom", stack)
	if !strings.Contains(got, "Cause: boom") {
		t.Fatalf("missing panic value: %q", got[:80])
	}
	if strings.Count(got, "x") != 3000 {
		t.Fatalf("stack not truncated: %d", strings.Count(got, "x"))
	}
}
