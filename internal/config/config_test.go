package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("port = %q, want 8000", cfg.Server.Port)
	}
	if cfg.Pipeline.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100", cfg.Pipeline.SampleRate)
	}
	if cfg.Pipeline.Channels != 2 {
		t.Errorf("channels = %d, want 2", cfg.Pipeline.Channels)
	}
	if cfg.Pipeline.MinArtifactSize != 10000 {
		t.Errorf("min artifact size = %d, want 10000", cfg.Pipeline.MinArtifactSize)
	}
	if cfg.Pipeline.MinSymbolicSize != 256 {
		t.Errorf("min symbolic size = %d, want 256", cfg.Pipeline.MinSymbolicSize)
	}
	if cfg.Pipeline.VideoWidth != 1280 || cfg.Pipeline.VideoHeight != 720 {
		t.Errorf("video size = %dx%d, want 1280x720", cfg.Pipeline.VideoWidth, cfg.Pipeline.VideoHeight)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" {
		t.Errorf("ffmpeg = %q, want ffmpeg", cfg.Tools.FFmpeg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("PIPELINE_MIN_ARTIFACT_SIZE", "5000")
	t.Setenv("TOOL_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "9100" {
		t.Errorf("port = %q, want 9100", cfg.Server.Port)
	}
	if cfg.Pipeline.MinArtifactSize != 5000 {
		t.Errorf("min artifact size = %d, want 5000", cfg.Pipeline.MinArtifactSize)
	}
	if cfg.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg = %q", cfg.Tools.FFmpeg)
	}
}

func TestReadSecretFromFile(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "jwt_secret")
	if err := os.WriteFile(secretFile, []byte("s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("JWT_SECRET_FILE", secretFile)

	readSecret("JWT_SECRET")

	if got := os.Getenv("JWT_SECRET"); got != "s3cret" {
		t.Errorf("JWT_SECRET = %q, want s3cret", got)
	}
}

func TestReadSecretPrefersDirectEnv(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "jwt_secret")
	if err := os.WriteFile(secretFile, []byte("from-file"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JWT_SECRET", "direct")
	t.Setenv("JWT_SECRET_FILE", secretFile)

	readSecret("JWT_SECRET")

	if got := os.Getenv("JWT_SECRET"); got != "direct" {
		t.Errorf("JWT_SECRET = %q, want direct", got)
	}
}
