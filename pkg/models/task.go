package models

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	// PriorityLow indicates the task can wait.
	PriorityLow TaskPriority = "low"
	// PriorityMedium indicates normal urgency.
	PriorityMedium TaskPriority = "medium"
	// PriorityHigh indicates the task should be handled soon.
	PriorityHigh TaskPriority = "high"
	// PriorityCritical indicates the task needs immediate attention.
	PriorityCritical TaskPriority = "critical"
)

// Valid returns true if the priority is a known value.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// TaskComplexity represents how demanding a task is expected to be.
type TaskComplexity string

const (
	// ComplexitySimple is a routine task.
	ComplexitySimple TaskComplexity = "simple"
	// ComplexityModerate is a standard task.
	ComplexityModerate TaskComplexity = "moderate"
	// ComplexityComplex is a demanding multi-part task.
	ComplexityComplex TaskComplexity = "complex"
	// ComplexityEnterprise is the most demanding class of task.
	ComplexityEnterprise TaskComplexity = "enterprise"
)

// Valid returns true if the complexity is a known value.
func (c TaskComplexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityEnterprise:
		return true
	default:
		return false
	}
}

// RequiredSkillLevel maps the complexity to the proficiency a worker
// should bring to handle it comfortably.
func (c TaskComplexity) RequiredSkillLevel() int {
	switch c {
	case ComplexitySimple:
		return 20
	case ComplexityModerate:
		return 40
	case ComplexityComplex:
		return 70
	case ComplexityEnterprise:
		return 100
	default:
		return 50
	}
}

// DurationMultiplier maps the complexity to a duration scaling factor.
func (c TaskComplexity) DurationMultiplier() float64 {
	switch c {
	case ComplexitySimple:
		return 0.8
	case ComplexityModerate:
		return 1.0
	case ComplexityComplex:
		return 1.5
	case ComplexityEnterprise:
		return 2.2
	default:
		return 1.0
	}
}

// Task is a unit of requested work, consumed once by the allocator.
type Task struct {
	// ID is the unique task identifier.
	ID string `json:"id"`
	// Title is a short human-readable label.
	Title string `json:"title"`
	// Description explains what the task entails.
	Description string `json:"description"`
	// Priority is the task's urgency.
	Priority TaskPriority `json:"priority"`
	// Complexity is the task's expected demand.
	Complexity TaskComplexity `json:"complexity"`
	// RequiredSkills lists the skill tags the task needs.
	RequiredSkills []string `json:"required_skills"`
	// EstimatedTimeMinutes is the caller's base time estimate.
	EstimatedTimeMinutes float64 `json:"estimated_time_minutes"`
	// Dependencies lists ids of tasks this one depends on (informational).
	Dependencies []string `json:"dependencies,omitempty"`
}
