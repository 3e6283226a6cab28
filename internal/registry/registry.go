// Package registry manages the worker pool and allocates tasks to the
// best-fit worker. A Registry is an explicitly constructed instance;
// callers inject it wherever assignment decisions are made.
package registry

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// ErrNoAvailableWorker is returned by Assign when every worker is either
// unavailable or at capacity. Callers should queue or surface the task to
// the operator rather than retry immediately.
var ErrNoAvailableWorker = errors.New("no available worker")

// ErrUnknownTask is returned by Complete for a task id with no active
// assignment.
var ErrUnknownTask = errors.New("unknown task")

// Registry holds the profiles of all workers and the assignments bound to
// them. All methods are safe for concurrent use; the score-pick-increment
// sequence inside Assign is atomic per registry.
type Registry struct {
	mu sync.Mutex
	// workers maps worker name to its live profile.
	workers map[string]*models.WorkerProfile
	// active maps task id to its in-flight assignment.
	active map[string]*models.Assignment
	// history holds terminal assignments in completion order.
	history []models.Assignment
}

// New creates a Registry from the given profiles. Profiles are copied;
// later mutations of the caller's slice do not affect the registry.
func New(profiles []models.WorkerProfile) *Registry {
	r := &Registry{
		workers: make(map[string]*models.WorkerProfile, len(profiles)),
		active:  make(map[string]*models.Assignment),
	}
	for i := range profiles {
		p := profiles[i].Clone()
		r.workers[p.Name] = p
	}
	return r
}

// Reload replaces the roster with the given profiles. Workers already
// known keep their live state (CurrentLoad, CurrentTaskIDs, success
// rate); new workers start fresh; workers absent from the new roster
// are dropped once they have no active assignments.
func (r *Registry) Reload(profiles []models.WorkerProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]*models.WorkerProfile, len(profiles))
	for i := range profiles {
		p := profiles[i].Clone()
		if prev, ok := r.workers[p.Name]; ok {
			p.CurrentLoad = prev.CurrentLoad
			p.CurrentTaskIDs = append([]string(nil), prev.CurrentTaskIDs...)
			p.SuccessRate = prev.SuccessRate
		}
		next[p.Name] = p
	}
	// Keep departed workers that still hold tasks, so Complete can
	// settle them.
	for name, prev := range r.workers {
		if _, ok := next[name]; !ok && prev.CurrentLoad > 0 {
			prev.IsAvailable = false
			next[name] = prev
		}
	}
	r.workers = next
}

// Complete finishes the active assignment for taskID, returning the
// winner's capacity and moving the assignment to history with status
// completed or failed. On success the worker's success rate is bumped by
// one point, bounded at 100. Failures leave the rate unchanged; that
// one-directional behavior is intentional pending product clarification.
func (r *Registry) Complete(taskID string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.active[taskID]
	if !ok {
		return fmt.Errorf("complete %s: %w", taskID, ErrUnknownTask)
	}

	if w, ok := r.workers[a.WorkerName]; ok {
		if w.CurrentLoad > 0 {
			w.CurrentLoad--
		}
		for i, id := range w.CurrentTaskIDs {
			if id == taskID {
				w.CurrentTaskIDs = append(w.CurrentTaskIDs[:i], w.CurrentTaskIDs[i+1:]...)
				break
			}
		}
		if success {
			w.SuccessRate = math.Min(100, math.Round(w.SuccessRate)+1)
		}
	}

	if success {
		a.Status = models.AssignmentCompleted
	} else {
		a.Status = models.AssignmentFailed
	}
	r.history = append(r.history, *a)
	delete(r.active, taskID)
	return nil
}

// SetAvailability toggles a worker's availability. It returns false when
// the worker is unknown, keeping the admin toggle idempotent.
func (r *Registry) SetAvailability(name string, available bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[name]
	if !ok {
		return false
	}
	w.IsAvailable = available
	return true
}

// Workers returns copies of all worker profiles, sorted by name.
func (r *Registry) Workers() []models.WorkerProfile {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.WorkerProfile, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, *w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ActiveAssignments returns copies of all in-flight assignments, sorted
// by task id.
func (r *Registry) ActiveAssignments() []models.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Assignment, 0, len(r.active))
	for _, a := range r.active {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// History returns copies of all terminal assignments in completion order.
func (r *Registry) History() []models.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Assignment(nil), r.history...)
}

// LoadRecommendations computes a per-worker load percentage with a
// redistribution label: under 20% underutilized, 20-60% optimal, 60-80%
// monitor, above 80% redistribute.
func (r *Registry) LoadRecommendations() []models.LoadRecommendation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.LoadRecommendation, 0, len(r.workers))
	for _, w := range r.workers {
		loadPct := w.LoadPercent()
		rec := models.LoadOptimal
		switch {
		case loadPct > 80:
			rec = models.LoadHigh
		case loadPct < 20:
			rec = models.LoadUnderutilized
		case loadPct > 60:
			rec = models.LoadModerate
		}
		out = append(out, models.LoadRecommendation{
			WorkerName:     w.Name,
			LoadPercent:    int(math.Round(loadPct)),
			Recommendation: rec,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerName < out[j].WorkerName })
	return out
}
