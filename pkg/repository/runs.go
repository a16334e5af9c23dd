package repository

import (
	"sync"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

// maxFinishedRuns caps how many finished runs stay readable for late polls.
// Beyond that the oldest finished runs are evicted, so a long-lived server
// does not accumulate one entry per run.
const maxFinishedRuns = 20

// runRepository tracks pipeline runs in memory. Runs are ephemeral; they do
// not survive a restart and only the aggregator writes them.
type runRepository struct {
	mu       sync.RWMutex
	runs     map[string]domain.Run
	finished []string // finished run ids, oldest first
}

func NewRunRepository() *runRepository {
	return &runRepository{runs: make(map[string]domain.Run)}
}

func (r *runRepository) Save(run domain.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.runs[run.ID]
	r.runs[run.ID] = run

	// Track the running->finished transition once; later updates of a
	// finished run (like the progress reset) must not re-enqueue it.
	if run.Status == domain.RunStatusRunning || (existed && prev.Status != domain.RunStatusRunning) {
		return
	}
	r.finished = append(r.finished, run.ID)
	for len(r.finished) > maxFinishedRuns {
		delete(r.runs, r.finished[0])
		r.finished = r.finished[1:]
	}
}

func (r *runRepository) Get(runID string) (domain.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[runID]
	return run, exists
}

// Active returns the currently running pipeline run, if any.
func (r *runRepository) Active() (domain.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, run := range r.runs {
		if run.Status == domain.RunStatusRunning {
			return run, true
		}
	}
	return domain.Run{}, false
}
