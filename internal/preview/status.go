package preview

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/gardenbuild/internal/build"
)

// buildStatus tracks the latest build for /healthz.
type buildStatus struct {
	mu           sync.RWMutex
	builds       int
	last         *build.Report
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(r *build.Report, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.last = r
	bs.lastError = err
}

func (bs *buildStatus) setSuccess(r *build.Report) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.last = r
	bs.lastError = nil
	bs.hasGoodBuild = true
}

// healthResponse is the /healthz body.
type healthResponse struct {
	Status     string     `json:"status"`
	Builds     int        `json:"builds"`
	BuildID    string     `json:"build_id,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// snapshot reports the health body and whether the server can serve a site.
func (bs *buildStatus) snapshot() (healthResponse, bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	h := healthResponse{Status: "ok", Builds: bs.builds}
	if bs.last != nil {
		h.BuildID = bs.last.BuildID
		h.Outcome = string(bs.last.Outcome)
		if !bs.last.FinishedAt.IsZero() {
			finished := bs.last.FinishedAt
			h.FinishedAt = &finished
		}
	}
	if bs.lastError != nil {
		h.Status = "degraded"
		h.Error = bs.lastError.Error()
		if !bs.hasGoodBuild {
			h.Status = "failing"
		}
	}
	if bs.builds == 0 {
		h.Status = "starting"
	}
	return h, bs.hasGoodBuild || bs.lastError == nil
}
