package build

import (
	"encoding/json"
	"time"
)

// Outcome is the final status of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// IsSuccess reports whether the site was written.
func (o Outcome) IsSuccess() bool {
	return o == OutcomeSuccess || o == OutcomeWarning
}

// Stage names, also used as metric labels.
const (
	StageDiscover = "discover"
	StageParse    = "parse"
	StageFilter   = "filter"
	StageEmit     = "emit"
	StageManifest = "manifest"
)

// StageTiming is the wall time of one stage.
type StageTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Report describes one build run.
type Report struct {
	BuildID    string        `json:"build_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	Outcome    Outcome       `json:"outcome"`
	OutputDir  string        `json:"output_dir"`

	Discovered int `json:"discovered"`
	Assets     int `json:"assets"`
	Parsed     int `json:"parsed"`
	Published  int `json:"published"`
	Filtered   int `json:"filtered"`
	Emitted    int `json:"emitted"`
	Skipped    int `json:"skipped"`
	Removed    int `json:"removed"`

	Stages   []StageTiming `json:"stages"`
	Warnings []string      `json:"warnings,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// StageDuration returns the recorded duration of stage, or zero.
func (r *Report) StageDuration(stage string) time.Duration {
	for _, s := range r.Stages {
		if s.Name == stage {
			return s.Duration
		}
	}
	return 0
}

// JSON encodes the report for the build history.
func (r *Report) JSON() []byte {
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	return data
}
