package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestTranscriptAttr_RedactsWhenDisabled(t *testing.T) {
	a := Transcript{}.Attr("speech", "שלום עולם")
	if a.Key != "speech_len" {
		t.Fatalf("expected redacted key, got %q", a.Key)
	}
	if a.Value.Int64() != 9 {
		t.Fatalf("expected rune count 9, got %d", a.Value.Int64())
	}
}

func TestTranscriptAttr_Truncates(t *testing.T) {
	a := Transcript{Enabled: true, MaxChars: 3}.Attr("speech", "abcdef")
	if a.Value.String() != "abc..." {
		t.Fatalf("unexpected value %q", a.Value.String())
	}
}

func TestFrom_FallsBackToDefault(t *testing.T) {
	if From(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger")
	}
	l := New("production", "warn")
	if From(With(context.Background(), l)) != l {
		t.Fatalf("expected stored logger")
	}
}
