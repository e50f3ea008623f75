package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/musewave/api/internal/probe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGate() *Gate {
	return NewGate(10000, 256, 44100, 2, nil, testLogger())
}

func writeFileOfSize(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x55}, size), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestGateRejectsMissingFile(t *testing.T) {
	gate := testGate()
	path := filepath.Join(t.TempDir(), "mix.wav")

	_, err := gate.Check(context.Background(), path, ArtifactMixAudio)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Reason != "not created" {
		t.Errorf("reason = %q, want %q", verr.Reason, "not created")
	}
}

func TestGateSizeBoundary(t *testing.T) {
	gate := testGate()
	dir := t.TempDir()

	tests := []struct {
		name string
		size int
		ok   bool
	}{
		{"one byte under", 9999, false},
		{"exactly at floor", 10000, true},
		{"well above floor", 20000, true},
		{"empty", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".wav")
			writeFileOfSize(t, path, tt.size)

			art, err := gate.Check(context.Background(), path, ArtifactTextureAudio)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if art.Size != int64(tt.size) {
					t.Errorf("size = %d, want %d", art.Size, tt.size)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Min != 10000 {
				t.Errorf("min = %d, want 10000", verr.Min)
			}
		})
	}
}

func TestGateSymbolicFloor(t *testing.T) {
	gate := testGate()
	dir := t.TempDir()

	// A procedurally written MIDI file is a few hundred bytes and must pass,
	// while the same size for an audio artifact would be rejected.
	small := filepath.Join(dir, "melody.mid")
	writeFileOfSize(t, small, 600)

	art, err := gate.Check(context.Background(), small, ArtifactMelodyMIDI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Kind != ArtifactMelodyMIDI {
		t.Errorf("kind = %s, want %s", art.Kind, ArtifactMelodyMIDI)
	}

	tiny := filepath.Join(dir, "tiny.mid")
	writeFileOfSize(t, tiny, 255)
	if _, err := gate.Check(context.Background(), tiny, ArtifactMelodyMIDI); err == nil {
		t.Error("expected undersized midi to be rejected")
	}
}

func TestGateFormatMismatchIsWarningOnly(t *testing.T) {
	gate := testGate()
	art := &Artifact{Kind: ArtifactMixAudio, Path: "mix.wav", Size: 20000}

	result := &probe.Result{Streams: []probe.StreamInfo{
		{CodecType: "audio", CodecName: "pcm_s16le", SampleRate: 22050, Channels: 1},
	}}

	got := gate.checkAudio(art, result)
	if got == nil {
		t.Fatal("mismatched format must not invalidate the artifact")
	}
	if len(got.Warnings) != 2 {
		t.Fatalf("warnings = %v, want sample rate and channel mismatches", got.Warnings)
	}
	if got.Format == nil || got.Format.SampleRate != 22050 {
		t.Errorf("format = %+v, want decoded stream info", got.Format)
	}
}

func TestGateVideoWithoutVideoStreamIsFatal(t *testing.T) {
	gate := testGate()
	art := &Artifact{Kind: ArtifactVideo, Path: "final.mp4", Size: 20000}

	// An encoder that emits an audio-only container did not produce a video.
	result := &probe.Result{Streams: []probe.StreamInfo{
		{CodecType: "audio", CodecName: "aac", SampleRate: 44100, Channels: 2},
	}}

	_, err := gate.checkVideo(art, result)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestGateSkipsProbeWhenUnavailable(t *testing.T) {
	gate := testGate()
	path := filepath.Join(t.TempDir(), "texture.wav")
	writeFileOfSize(t, path, 15000)

	// No prober configured: the size check alone decides, and no format
	// warnings are attached.
	art, err := gate.Check(context.Background(), path, ArtifactTextureAudio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(art.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", art.Warnings)
	}
	if art.Format != nil {
		t.Errorf("format = %+v, want nil", art.Format)
	}
}
