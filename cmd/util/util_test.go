package util

import (
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dLock/lib/lock"
	"github.com/ValentinKolb/dLock/lib/sharedlock"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line exceeds %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString("  short   text "); got != "short text" {
		t.Errorf("expected %q, got %q", "short text", got)
	}
}

func TestFormatState(t *testing.T) {
	exp := time.Now().Add(time.Minute)

	if got := FormatLockState("k", nil); got != "key=k mode=free" {
		t.Errorf("unexpected free state: %q", got)
	}
	if got := FormatLockState("k", &lock.State{Owner: "a"}); got != "key=k mode=locked owner=a expires=never" {
		t.Errorf("unexpected lock state: %q", got)
	}

	got := FormatSharedLockState("k", &sharedlock.State{
		Reader: &sharedlock.ReaderState{
			Limit:         3,
			AcquiredSlots: map[string]*time.Time{"b": nil, "a": &exp},
		},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 3 || lines[0] != "key=k mode=reader slots=2/3" {
		t.Fatalf("unexpected reader state: %q", got)
	}
	if !strings.HasPrefix(lines[1], "  reader=a expires=") || lines[2] != "  reader=b expires=never" {
		t.Errorf("expected sorted reader lines, got %q", got)
	}

	got = FormatSharedLockState("k", &sharedlock.State{Writer: &sharedlock.WriterState{Owner: "w"}})
	if got != "key=k mode=writer owner=w expires=never" {
		t.Errorf("unexpected writer state: %q", got)
	}
}
