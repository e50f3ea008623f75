package model

// Video visualization styles
type VideoStyle string

const (
	VideoStyleSpectrum  VideoStyle = "spectrum"
	VideoStyleWaveform  VideoStyle = "waveform"
	VideoStyleVolumeter VideoStyle = "volumeter"
)

var ValidVideoStyles = []VideoStyle{
	VideoStyleSpectrum, VideoStyleWaveform, VideoStyleVolumeter,
}

// DefaultVideoStyle is used when a request leaves the style empty.
const DefaultVideoStyle = VideoStyleSpectrum

// IsValid reports whether s is a known visualization style.
func (s VideoStyle) IsValid() bool {
	for _, v := range ValidVideoStyles {
		if s == v {
			return true
		}
	}
	return false
}

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)
