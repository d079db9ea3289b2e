package utils

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestUtils_FormatTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.50s"},
		{90 * time.Second, "1m 30.00s"},
		{2*time.Hour + 5*time.Minute, "2h 5m 0.00s"},
		{26 * time.Hour, "1d 2h 0m 0.00s"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.d); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestUtils_DecorateText(t *testing.T) {
	s := DecorateText("done", SuccessMessage)
	if !strings.HasPrefix(s, SuccessColor) || !strings.HasSuffix(s, DefaultColor) {
		t.Errorf("unexpected decoration: %q", s)
	}
	if s := DecorateText("raw", MessageType(99)); s != "raw" {
		t.Errorf("unknown message types should be left untouched, got %q", s)
	}
}

func TestUtils_Spinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinnerTo(&buf, "working", time.Millisecond, false)
	s.StopMsg = "finished\n"

	s.Start()
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.SetMessage("still working")
	s.Stop()
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "working") {
		t.Errorf("the spinner message was never written: %q", out)
	}
	if !strings.HasSuffix(out, "finished\n") {
		t.Errorf("the stop message should be written last: %q", out)
	}
}

func TestUtils_Status(t *testing.T) {
	s := Status("⚡ KANJIDRILL", "⇢ done", WarningMessage)
	want := StatusColor + "⚡ KANJIDRILL" + DefaultColor + " " + WarningColor + "⇢ done" + DefaultColor
	if s != want {
		t.Errorf("Status() = %q, want %q", s, want)
	}
}

func TestUtils_SpinnerRestoreCursor(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinnerTo(&buf, "working", time.Millisecond, true)
	s.RestoreCursor()

	if runtime.GOOS != "windows" && buf.String() != "\033[?25h" {
		t.Errorf("the cursor should have been made visible, got %q", buf.String())
	}
}
