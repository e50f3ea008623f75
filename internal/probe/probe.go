// Package probe decodes container/stream metadata from produced media files
// by shelling out to ffprobe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// StreamInfo describes one decoded stream.
type StreamInfo struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	SampleRate int    `json:"-"`
	Channels   int    `json:"channels"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameRate  string `json:"r_frame_rate"`

	// ffprobe emits sample_rate as a string
	RawSampleRate string `json:"sample_rate"`
}

// Result holds all streams found in a media file.
type Result struct {
	Streams []StreamInfo `json:"streams"`
}

// Audio returns the first audio stream, or nil.
func (r *Result) Audio() *StreamInfo {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "audio" {
			return &r.Streams[i]
		}
	}
	return nil
}

// Video returns the first video stream, or nil.
func (r *Result) Video() *StreamInfo {
	for i := range r.Streams {
		if r.Streams[i].CodecType == "video" {
			return &r.Streams[i]
		}
	}
	return nil
}

// Prober runs ffprobe against artifact files.
type Prober struct {
	Bin     string
	Timeout time.Duration
}

// New creates a Prober for the given ffprobe binary.
func New(bin string, timeout time.Duration) *Prober {
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{Bin: bin, Timeout: timeout}
}

// Available reports whether the prober binary is on PATH.
func (p *Prober) Available() bool {
	_, err := exec.LookPath(p.Bin)
	return err == nil
}

// Probe decodes stream metadata for the file at path.
func (p *Prober) Probe(ctx context.Context, path string) (*Result, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Bin, "-v", "error", "-show_streams", "-of", "json", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w (%s)", path, err, stderr.String())
	}

	result, err := Parse(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return result, nil
}

// Parse decodes ffprobe -show_streams -of json output.
func Parse(data []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing stream info: %w", err)
	}
	for i := range result.Streams {
		if result.Streams[i].RawSampleRate != "" {
			if sr, err := strconv.Atoi(result.Streams[i].RawSampleRate); err == nil {
				result.Streams[i].SampleRate = sr
			}
		}
	}
	return &result, nil
}
