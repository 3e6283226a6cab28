// Package models contains the shared domain types for Foreman.
package models

// WorkerProfile describes one member of the worker pool: its declared
// skills, capacity, and running performance counters.
type WorkerProfile struct {
	// Name is the unique worker name.
	Name string `json:"name" yaml:"name"`
	// Specializations is the set of skill tags the worker declares.
	Specializations []string `json:"specializations" yaml:"specializations"`
	// SkillLevels maps a skill tag to a proficiency level (1-100).
	SkillLevels map[string]int `json:"skill_levels" yaml:"skill_levels"`
	// MaxConcurrentTasks is the worker's capacity.
	MaxConcurrentTasks int `json:"max_concurrent_tasks" yaml:"max_concurrent_tasks"`
	// CurrentLoad is the number of tasks currently assigned.
	// Invariant: CurrentLoad == len(CurrentTaskIDs).
	CurrentLoad int `json:"current_load" yaml:"-"`
	// AverageTaskTimeMinutes is the worker's historical mean task time.
	AverageTaskTimeMinutes float64 `json:"average_task_time_minutes" yaml:"average_task_time_minutes"`
	// SuccessRate is the worker's historical success rate (0-100).
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
	// IsAvailable reports whether the worker accepts new tasks.
	IsAvailable bool `json:"is_available" yaml:"is_available"`
	// CurrentTaskIDs holds the ids of the tasks currently assigned.
	CurrentTaskIDs []string `json:"current_task_ids" yaml:"-"`
}

// HasSpecialization reports whether the worker lists the given skill tag.
func (w *WorkerProfile) HasSpecialization(skill string) bool {
	for _, s := range w.Specializations {
		if s == skill {
			return true
		}
	}
	return false
}

// MaxSkillLevel returns the highest proficiency the worker declares,
// or 0 if it declares none.
func (w *WorkerProfile) MaxSkillLevel() int {
	max := 0
	for _, level := range w.SkillLevels {
		if level > max {
			max = level
		}
	}
	return max
}

// LoadPercent returns the worker's load as a percentage of capacity.
func (w *WorkerProfile) LoadPercent() float64 {
	if w.MaxConcurrentTasks <= 0 {
		return 0
	}
	return float64(w.CurrentLoad) / float64(w.MaxConcurrentTasks) * 100
}

// Clone returns a deep copy of the profile.
func (w *WorkerProfile) Clone() *WorkerProfile {
	c := *w
	c.Specializations = append([]string(nil), w.Specializations...)
	c.CurrentTaskIDs = append([]string(nil), w.CurrentTaskIDs...)
	c.SkillLevels = make(map[string]int, len(w.SkillLevels))
	for skill, level := range w.SkillLevels {
		c.SkillLevels[skill] = level
	}
	return &c
}

// LoadRecommendation is a per-worker load assessment produced by the registry.
type LoadRecommendation struct {
	// WorkerName identifies the worker.
	WorkerName string `json:"worker_name"`
	// LoadPercent is the worker's load as a whole percentage of capacity.
	LoadPercent int `json:"load_percent"`
	// Recommendation is one of the load recommendation labels.
	Recommendation string `json:"recommendation"`
}

// Load recommendation labels.
const (
	LoadOptimal       = "optimal"
	LoadUnderutilized = "underutilized-assign-more"
	LoadModerate      = "moderate-load-monitor"
	LoadHigh          = "high-load-redistribute"
)
