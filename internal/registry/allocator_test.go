package registry

import (
	"testing"

	"github.com/ShayCichocki/foreman/pkg/models"
)

func TestScoreWorkerWeights(t *testing.T) {
	w := &models.WorkerProfile{
		Name:               "perfect",
		SkillLevels:        map[string]int{"design": 100},
		MaxConcurrentTasks: 4,
		CurrentLoad:        0,
		SuccessRate:        100,
		IsAvailable:        true,
	}
	task := &models.Task{
		Complexity:     models.ComplexitySimple,
		RequiredSkills: []string{"design"},
	}

	// 70 + 15 + 10 + 5 with every component maxed.
	if got := scoreWorker(task, w); got != 100 {
		t.Errorf("expected perfect score 100, got %v", got)
	}
}

func TestScoreWorkerNoRequiredSkillsRenormalizes(t *testing.T) {
	w := &models.WorkerProfile{
		Name:               "idle",
		SkillLevels:        map[string]int{"x": 100},
		MaxConcurrentTasks: 4,
		CurrentLoad:        0,
		SuccessRate:        100,
		IsAvailable:        true,
	}
	task := &models.Task{Complexity: models.ComplexitySimple}

	// Skill weight is skipped; the remaining 30 points of weight should
	// still be able to produce a full score.
	if got := scoreWorker(task, w); got != 100 {
		t.Errorf("expected renormalized score 100, got %v", got)
	}
}

func TestScoreWorkerMissingSkillScoresZeroForThatSkill(t *testing.T) {
	with := &models.WorkerProfile{
		SkillLevels:        map[string]int{"design": 80},
		MaxConcurrentTasks: 4,
		SuccessRate:        90,
	}
	without := &models.WorkerProfile{
		SkillLevels:        map[string]int{"backend": 80},
		MaxConcurrentTasks: 4,
		SuccessRate:        90,
	}
	task := &models.Task{
		Complexity:     models.ComplexityModerate,
		RequiredSkills: []string{"design"},
	}

	if scoreWorker(task, with) <= scoreWorker(task, without) {
		t.Error("worker with the required skill must outscore one without it")
	}
}

func TestSpecializationFlatCreditOutranksScaledLevel(t *testing.T) {
	// A skill matched only through specializations earns a flat 50
	// against the 70-point denominator, while a declared level is
	// scaled by 0.7 — so a bare specialization beats a level of 60.
	leveled := models.WorkerProfile{
		Name:               "leveled",
		SkillLevels:        map[string]int{"x": 60},
		MaxConcurrentTasks: 4,
		SuccessRate:        90,
		IsAvailable:        true,
	}
	listed := models.WorkerProfile{
		Name:               "listed",
		Specializations:    []string{"x"},
		SkillLevels:        map[string]int{},
		MaxConcurrentTasks: 4,
		SuccessRate:        90,
		IsAvailable:        true,
	}
	task := &models.Task{
		ID:             "t1",
		Complexity:     models.ComplexityModerate,
		RequiredSkills: []string{"x"},
	}

	if scoreWorker(task, &listed) <= scoreWorker(task, &leveled) {
		t.Errorf("flat 50 must outscore 60*0.7=42: listed %.1f, leveled %.1f",
			scoreWorker(task, &listed), scoreWorker(task, &leveled))
	}

	a, err := New([]models.WorkerProfile{leveled, listed}).Assign(task)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if a.WorkerName != "listed" {
		t.Errorf("expected listed to win the assignment, got %s", a.WorkerName)
	}
}

func TestComplexityFitClamped(t *testing.T) {
	novice := &models.WorkerProfile{SkillLevels: map[string]int{"x": 10}}
	expert := &models.WorkerProfile{SkillLevels: map[string]int{"x": 100}}

	if got := complexityFit(models.ComplexityEnterprise, novice); got != 0 {
		t.Errorf("expected clamp to 0, got %v", got)
	}
	if got := complexityFit(models.ComplexitySimple, expert); got != 100 {
		t.Errorf("expected clamp to 100, got %v", got)
	}
}

func TestEstimateDurationScalesWithSpeedAndComplexity(t *testing.T) {
	fast := &models.WorkerProfile{AverageTaskTimeMinutes: 15}
	slow := &models.WorkerProfile{AverageTaskTimeMinutes: 60}

	task := &models.Task{Complexity: models.ComplexityComplex, EstimatedTimeMinutes: 40}

	// 40 * (15/30) * 1.5 = 30; 40 * (60/30) * 1.5 = 120.
	if got := estimateDuration(task, fast); got != 30 {
		t.Errorf("fast worker: expected 30, got %v", got)
	}
	if got := estimateDuration(task, slow); got != 120 {
		t.Errorf("slow worker: expected 120, got %v", got)
	}
}
