package probe

import (
	"testing"
	"time"
)

const sampleOutput = `{
  "streams": [
    {
      "codec_type": "audio",
      "codec_name": "pcm_s16le",
      "sample_rate": "44100",
      "channels": 2
    },
    {
      "codec_type": "video",
      "codec_name": "h264",
      "width": 1280,
      "height": 720,
      "r_frame_rate": "30/1"
    }
  ]
}`

func TestParse(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	audio := result.Audio()
	if audio == nil {
		t.Fatal("no audio stream found")
	}
	if audio.SampleRate != 44100 {
		t.Errorf("sample rate = %d, want 44100 (decoded from string)", audio.SampleRate)
	}
	if audio.Channels != 2 {
		t.Errorf("channels = %d, want 2", audio.Channels)
	}

	video := result.Video()
	if video == nil {
		t.Fatal("no video stream found")
	}
	if video.Width != 1280 || video.Height != 720 {
		t.Errorf("resolution = %dx%d, want 1280x720", video.Width, video.Height)
	}
	if video.FrameRate != "30/1" {
		t.Errorf("frame rate = %q, want 30/1", video.FrameRate)
	}
}

func TestParseNoStreams(t *testing.T) {
	result, err := Parse([]byte(`{"streams": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Audio() != nil || result.Video() != nil {
		t.Error("expected no streams")
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestAvailable(t *testing.T) {
	if New("definitely-not-a-real-binary-9f2c", time.Second).Available() {
		t.Error("missing binary reported as available")
	}
}

func TestNewDefaultsBinName(t *testing.T) {
	if p := New("", time.Second); p.Bin != "ffprobe" {
		t.Errorf("bin = %q, want ffprobe", p.Bin)
	}
}
