package registry

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// scoreWorker computes the compatibility score (0-100) between a task and
// a worker. Four weighted components: skill match (70), load balance (15),
// success rate (10), complexity fit (5). When the task declares no
// required skills, the skill component is skipped and the remaining
// weights are renormalized so the score still spans 0-100.
func scoreWorker(task *models.Task, w *models.WorkerProfile) float64 {
	score := 0.0
	weight := 0.0

	if len(task.RequiredSkills) > 0 {
		total := 0.0
		for _, skill := range task.RequiredSkills {
			if level, ok := w.SkillLevels[skill]; ok {
				total += float64(level) * 0.7
			} else if w.HasSpecialization(skill) {
				// Listed but unleveled skills earn a flat credit, not a
				// scaled one, so declaring a specialization outranks a
				// declared level up to 71.
				total += 50
			}
		}
		score += total / float64(len(task.RequiredSkills))
		weight += 70
	}

	score += (100 - w.LoadPercent()) * 0.15
	weight += 15

	score += w.SuccessRate * 0.1
	weight += 10

	score += complexityFit(task.Complexity, w) * 0.05
	weight += 5

	if weight == 0 {
		return 0
	}
	return score / weight * 100
}

// complexityFit measures how far the worker's strongest skill exceeds the
// proficiency the task's complexity calls for, clamped to 0-100.
func complexityFit(c models.TaskComplexity, w *models.WorkerProfile) float64 {
	fit := float64(w.MaxSkillLevel()-c.RequiredSkillLevel()) + 50
	return math.Max(0, math.Min(100, fit))
}

// estimateDuration scales the task's base estimate by the worker's speed
// relative to a 30-minute baseline and by the complexity multiplier.
func estimateDuration(task *models.Task, w *models.WorkerProfile) float64 {
	base := task.EstimatedTimeMinutes
	if base <= 0 {
		base = 30
	}
	speed := w.AverageTaskTimeMinutes / 30
	if w.AverageTaskTimeMinutes <= 0 {
		speed = 1
	}
	return math.Round(base * speed * task.Complexity.DurationMultiplier())
}

// Assign binds the task to the best-fit available worker and returns the
// new assignment. Candidates are workers that are available and under
// capacity; ties on score break toward the lower current load, then the
// lexicographically smaller name, so repeated calls with equal inputs
// pick the same worker. Returns ErrNoAvailableWorker when no worker
// qualifies.
func (r *Registry) Assign(task *models.Task) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assignLocked(task)
}

func (r *Registry) assignLocked(task *models.Task) (*models.Assignment, error) {
	var best *models.WorkerProfile
	bestScore := -1.0

	names := make([]string, 0, len(r.workers))
	for name := range r.workers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		w := r.workers[name]
		if !w.IsAvailable || w.CurrentLoad >= w.MaxConcurrentTasks {
			continue
		}
		score := scoreWorker(task, w)
		switch {
		case score > bestScore:
			best, bestScore = w, score
		case score == bestScore && w.CurrentLoad < best.CurrentLoad:
			best = w
		}
	}

	if best == nil {
		return nil, fmt.Errorf("assign %s: %w", task.ID, ErrNoAvailableWorker)
	}

	a := &models.Assignment{
		TaskID:                   task.ID,
		WorkerName:               best.Name,
		Confidence:               bestScore,
		EstimatedDurationMinutes: estimateDuration(task, best),
		AssignedAt:               time.Now(),
		Status:                   models.AssignmentAssigned,
	}
	best.CurrentLoad++
	best.CurrentTaskIDs = append(best.CurrentTaskIDs, task.ID)
	r.active[task.ID] = a
	return a, nil
}

// AssignAll assigns each task in order under a single lock, so a batch
// sees a consistent view of worker load. Tasks that cannot be placed are
// returned in the second slice; the rest are assigned normally.
func (r *Registry) AssignAll(tasks []*models.Task) ([]*models.Assignment, []*models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var assigned []*models.Assignment
	var unplaced []*models.Task
	for _, task := range tasks {
		a, err := r.assignLocked(task)
		if err != nil {
			unplaced = append(unplaced, task)
			continue
		}
		assigned = append(assigned, a)
	}
	return assigned, unplaced
}
