package synth

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func readHeader(t *testing.T, path string, n int) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if len(data) < n {
		t.Fatalf("%s is only %d bytes", path, len(data))
	}
	return data[:n]
}

func TestWriteMelodyProducesStandardMIDI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melody.mid")

	if err := WriteMelody(path, "C", 120, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	header := readHeader(t, path, 4)
	if !bytes.Equal(header, []byte("MThd")) {
		t.Errorf("header = %q, want MThd", header)
	}

	info, _ := os.Stat(path)
	if info.Size() < 256 {
		t.Errorf("file is %d bytes, want at least 256", info.Size())
	}
}

func TestWriteMelodyUnknownKeyDefaultsToC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "melody.mid")
	if err := WriteMelody(path, "H#", 120, 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWritePadProducesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texture.wav")

	if err := WritePad(path, 2*time.Second, 44100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	header := readHeader(t, path, 4)
	if !bytes.Equal(header, []byte("RIFF")) {
		t.Errorf("header = %q, want RIFF", header)
	}

	// 2 seconds of 16-bit stereo at 44.1kHz
	info, _ := os.Stat(path)
	wantMin := int64(2 * 44100 * 2 * 2)
	if info.Size() < wantMin {
		t.Errorf("file is %d bytes, want at least %d", info.Size(), wantMin)
	}
}

func TestWriteVoiceEnforcesMinimumDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocals.wav")

	// One word lasts well under the floor; the output still spans 2 seconds.
	if err := WriteVoice(path, "hi", 44100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, _ := os.Stat(path)
	wantMin := int64(2 * 44100 * 2 * 2)
	if info.Size() < wantMin {
		t.Errorf("file is %d bytes, want at least %d for 2 seconds", info.Size(), wantMin)
	}
}

func TestMixWAVs(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	if err := WritePad(a, time.Second, 44100); err != nil {
		t.Fatalf("writing stem a: %v", err)
	}
	if err := WritePad(b, time.Second, 44100); err != nil {
		t.Fatalf("writing stem b: %v", err)
	}

	out := filepath.Join(dir, "mix.wav")
	if err := MixWAVs(out, []string{a, b}, 44100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	header := readHeader(t, out, 4)
	if !bytes.Equal(header, []byte("RIFF")) {
		t.Errorf("header = %q, want RIFF", header)
	}
}

func TestMixWAVsRejectsEmptyInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mix.wav")
	if err := MixWAVs(out, nil, 44100); err == nil {
		t.Fatal("expected an error for zero inputs")
	}
}
