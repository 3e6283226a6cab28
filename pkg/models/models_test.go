package models

import "testing"

func TestTaskComplexityLevels(t *testing.T) {
	cases := []struct {
		complexity TaskComplexity
		level      int
		multiplier float64
	}{
		{ComplexitySimple, 20, 0.8},
		{ComplexityModerate, 40, 1.0},
		{ComplexityComplex, 70, 1.5},
		{ComplexityEnterprise, 100, 2.2},
	}
	for _, tc := range cases {
		if !tc.complexity.Valid() {
			t.Errorf("%s should be valid", tc.complexity)
		}
		if got := tc.complexity.RequiredSkillLevel(); got != tc.level {
			t.Errorf("%s: expected level %d, got %d", tc.complexity, tc.level, got)
		}
		if got := tc.complexity.DurationMultiplier(); got != tc.multiplier {
			t.Errorf("%s: expected multiplier %.1f, got %.1f", tc.complexity, tc.multiplier, got)
		}
	}
	if TaskComplexity("heroic").Valid() {
		t.Error("unknown complexity should not be valid")
	}
}

func TestTaskPriorityValid(t *testing.T) {
	for _, p := range []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if TaskPriority("whenever").Valid() {
		t.Error("unknown priority should not be valid")
	}
}

func TestAssignmentStatusTerminal(t *testing.T) {
	if AssignmentAssigned.Terminal() || AssignmentInProgress.Terminal() {
		t.Error("open statuses must not be terminal")
	}
	if !AssignmentCompleted.Terminal() || !AssignmentFailed.Terminal() {
		t.Error("finished statuses must be terminal")
	}
	if AssignmentStatus("paused").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestWorkflowStatusValid(t *testing.T) {
	for _, s := range []WorkflowStatus{WorkflowStaged, WorkflowExecuting, WorkflowExecuted, WorkflowFailed, WorkflowExpired} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if WorkflowStatus("queued").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestTurnRoleValid(t *testing.T) {
	for _, r := range []TurnRole{RoleUser, RoleAssistant, RoleSystem} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if TurnRole("narrator").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestWorkerProfileHelpers(t *testing.T) {
	w := &WorkerProfile{
		Name:               "aria",
		Specializations:    []string{"design", "layout"},
		SkillLevels:        map[string]int{"design": 95, "layout": 80},
		MaxConcurrentTasks: 4,
		CurrentLoad:        1,
	}

	if !w.HasSpecialization("design") || w.HasSpecialization("backend") {
		t.Error("HasSpecialization mismatch")
	}
	if got := w.MaxSkillLevel(); got != 95 {
		t.Errorf("expected max skill 95, got %d", got)
	}
	if got := w.LoadPercent(); got != 25 {
		t.Errorf("expected 25%% load, got %.0f", got)
	}

	zero := &WorkerProfile{Name: "empty"}
	if zero.MaxSkillLevel() != 0 {
		t.Error("no skills should give max level 0")
	}
	if zero.LoadPercent() != 0 {
		t.Error("zero capacity should give 0% load")
	}
}

func TestWorkerProfileCloneIsDeep(t *testing.T) {
	w := &WorkerProfile{
		Name:            "aria",
		Specializations: []string{"design"},
		SkillLevels:     map[string]int{"design": 95},
		CurrentTaskIDs:  []string{"t1"},
	}
	c := w.Clone()

	c.Specializations[0] = "changed"
	c.SkillLevels["design"] = 1
	c.CurrentTaskIDs[0] = "t2"

	if w.Specializations[0] != "design" || w.SkillLevels["design"] != 95 || w.CurrentTaskIDs[0] != "t1" {
		t.Errorf("clone shares state with original: %+v", w)
	}
}

func TestDetectedWorkflowCloneIsDeep(t *testing.T) {
	wf := &DetectedWorkflow{
		ID:                 "wf-1",
		Workers:            []string{"aria"},
		CustomRequirements: []string{"mobile-first"},
	}
	c := wf.Clone()

	c.Workers[0] = "zara"
	c.CustomRequirements[0] = "changed"

	if wf.Workers[0] != "aria" || wf.CustomRequirements[0] != "mobile-first" {
		t.Errorf("clone shares state with original: %+v", wf)
	}
}
