package workflow

import (
	"testing"

	"github.com/ShayCichocki/foreman/pkg/models"
)

var rosterNames = []string{
	"elena", "aria", "zara", "maya", "victoria", "rachel", "ava",
	"quinn", "sophia", "martha", "diana", "wilma", "olga",
}

func newTestDetector() *Detector {
	return NewDetector(rosterNames, nil)
}

func TestDetectCoordinationPhrase(t *testing.T) {
	d := newTestDetector()

	wf := d.Detect(`I'll coordinate a "Launch Readiness Audit" workflow with aria, victoria and zara.
Priority: Critical
Duration: 90 minutes
- aria: Review every page against the design system
- victoria: Run the full regression suite
- zara: Verify API response times under load`, "conv-1")
	if wf == nil {
		t.Fatal("expected workflow to be detected")
	}
	if wf.Name != "Launch Readiness Audit" {
		t.Errorf("expected name from quotes, got %q", wf.Name)
	}
	if wf.Priority != models.PriorityCritical {
		t.Errorf("expected critical priority, got %s", wf.Priority)
	}
	if wf.EstimatedDurationMinutes != 90 {
		t.Errorf("expected 90 minutes, got %d", wf.EstimatedDurationMinutes)
	}
	want := []string{"aria", "zara", "victoria"}
	if len(wf.Workers) != len(want) {
		t.Fatalf("expected workers %v, got %v", want, wf.Workers)
	}
	for i, name := range want {
		if wf.Workers[i] != name {
			t.Errorf("worker %d: expected %s, got %s", i, name, wf.Workers[i])
		}
	}
	if len(wf.CustomRequirements) != 3 {
		t.Errorf("expected 3 requirements, got %d: %v", len(wf.CustomRequirements), wf.CustomRequirements)
	}
	if wf.ConversationID != "conv-1" {
		t.Errorf("expected conversation id to carry through, got %q", wf.ConversationID)
	}
}

func TestDetectSingleLineAssignmentReply(t *testing.T) {
	d := newTestDetector()

	wf := d.Detect("I'll coordinate a \"Launch Readiness Audit\" workflow with aria and zara. Priority: High. Duration: 45 minutes. - I'm assigning you to review design.", "conv-9")
	if wf == nil {
		t.Fatal("expected workflow to be detected")
	}
	if wf.Name != "Launch Readiness Audit" {
		t.Errorf("expected name from quotes, got %q", wf.Name)
	}
	want := []string{"aria", "zara"}
	if len(wf.Workers) != len(want) {
		t.Fatalf("expected workers %v, got %v", want, wf.Workers)
	}
	for i, name := range want {
		if wf.Workers[i] != name {
			t.Errorf("worker %d: expected %s, got %s", i, name, wf.Workers[i])
		}
	}
	if wf.Priority != models.PriorityHigh {
		t.Errorf("expected high priority, got %s", wf.Priority)
	}
	if wf.EstimatedDurationMinutes != 45 {
		t.Errorf("expected 45 minutes, got %d", wf.EstimatedDurationMinutes)
	}
}

func TestExtractNameFromLabels(t *testing.T) {
	d := newTestDetector()

	// Coordination-report labels name the workflow when nothing is quoted.
	wf := d.Detect("Strategic Coordination: Checkout Overhaul\nPriority: High", "")
	if wf == nil {
		t.Fatal("expected detection on the coordination label")
	}
	if wf.Name != "Checkout Overhaul" {
		t.Errorf("expected label name, got %q", wf.Name)
	}

	wf = d.Detect("I'll coordinate the response with maya and quinn.\nMission ID: OPS-2240", "")
	if wf == nil {
		t.Fatal("expected detection")
	}
	if wf.Name != "OPS-2240" {
		t.Errorf("expected mission id as name, got %q", wf.Name)
	}

	wf = d.Detect("maya and quinn split this.\nPriority: High\nTest Workflow: SMOKE SUITE", "")
	if wf == nil {
		t.Fatal("expected detection")
	}
	if wf.Name != "SMOKE SUITE" {
		t.Errorf("expected test workflow name, got %q", wf.Name)
	}
}

func TestDetectDelegationNeedsTwoMentions(t *testing.T) {
	d := newTestDetector()

	// A delegation pattern with only one roster mention is not a workflow.
	if wf := d.Detect("aria, please take this.\nPriority: High", ""); wf != nil {
		t.Errorf("expected nil for single mention, got %+v", wf)
	}

	// Two mentions plus a delegation pattern is.
	if wf := d.Detect("aria and zara split this.\nPriority: High", ""); wf == nil {
		t.Error("expected detection for two mentions with delegation pattern")
	}
}

func TestDetectPlainReplyReturnsNil(t *testing.T) {
	d := newTestDetector()

	replies := []string{
		"Here's the summary you asked for.",
		"The dashboard numbers look stable this week.",
		"aria finished her part yesterday.",
	}
	for _, reply := range replies {
		if wf := d.Detect(reply, ""); wf != nil {
			t.Errorf("expected nil for %q, got %+v", reply, wf)
		}
	}
}

func TestDetectFallbackWorkersNotCounted(t *testing.T) {
	d := newTestDetector()

	// Coordination phrase with zero roster mentions: detected, and the
	// fallback crew fills the worker list after the fact.
	wf := d.Detect("I'll coordinate the rollout review tomorrow morning.", "")
	if wf == nil {
		t.Fatal("expected detection on coordination phrase alone")
	}
	want := []string{"aria", "victoria", "zara"}
	if len(wf.Workers) != 3 {
		t.Fatalf("expected fallback crew %v, got %v", want, wf.Workers)
	}
	for i, name := range want {
		if wf.Workers[i] != name {
			t.Errorf("fallback %d: expected %s, got %s", i, name, wf.Workers[i])
		}
	}

	// Zero mentions with only a delegation pattern must stay nil: the
	// fallback crew never feeds back into the decision.
	if got := d.Detect("Priority: High\nDuration: 30 minutes", ""); got != nil {
		t.Errorf("expected nil for delegation pattern without mentions, got %+v", got)
	}
}

func TestDetectDefaults(t *testing.T) {
	d := newTestDetector()

	wf := d.Detect("Let me assign the cleanup to maya and quinn.", "")
	if wf == nil {
		t.Fatal("expected detection")
	}
	if wf.Priority != models.PriorityHigh {
		t.Errorf("expected default high priority, got %s", wf.Priority)
	}
	if wf.EstimatedDurationMinutes != DefaultDurationMinutes {
		t.Errorf("expected default duration %d, got %d", DefaultDurationMinutes, wf.EstimatedDurationMinutes)
	}
	if wf.Name != DefaultWorkflowName {
		t.Errorf("expected default name, got %q", wf.Name)
	}
}

func TestDetectHourDuration(t *testing.T) {
	d := newTestDetector()

	wf := d.Detect("I'll coordinate the audit with maya, should take about 2 hours.", "")
	if wf == nil {
		t.Fatal("expected detection")
	}
	if wf.EstimatedDurationMinutes != 120 {
		t.Errorf("expected 2 hours as 120 minutes, got %d", wf.EstimatedDurationMinutes)
	}
}

func TestDetectRequirementsCappedAtFive(t *testing.T) {
	d := newTestDetector()

	wf := d.Detect(`I'll coordinate the sweep with maya and olga.
- first item
- second item
- third item
- fourth item
- fifth item
- sixth item
- seventh item`, "")
	if wf == nil {
		t.Fatal("expected detection")
	}
	if len(wf.CustomRequirements) != MaxRequirements {
		t.Errorf("expected %d requirements, got %d", MaxRequirements, len(wf.CustomRequirements))
	}
}

func TestDetectRequirementsContentFallback(t *testing.T) {
	d := newTestDetector()

	wf := d.Detect("I'll coordinate a luxury design pass and then test the result.", "")
	if wf == nil {
		t.Fatal("expected detection")
	}
	want := map[string]bool{
		"Design consistency validation": true,
		"Luxury standards compliance":   true,
		"System functionality testing":  true,
	}
	if len(wf.CustomRequirements) != 3 {
		t.Fatalf("expected 3 fallback requirements, got %v", wf.CustomRequirements)
	}
	for _, r := range wf.CustomRequirements {
		if !want[r] {
			t.Errorf("unexpected fallback requirement %q", r)
		}
	}
}

func TestDetectMediumPriorityKeyword(t *testing.T) {
	d := newTestDetector()

	wf := d.Detect("I'll assign this medium cleanup to sophia and diana.", "")
	if wf == nil {
		t.Fatal("expected detection")
	}
	if wf.Priority != models.PriorityMedium {
		t.Errorf("expected medium priority, got %s", wf.Priority)
	}
}
