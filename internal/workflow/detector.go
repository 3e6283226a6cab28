// Package workflow detects multi-worker workflows in coordinator replies
// and stages them for operator-approved execution.
package workflow

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// coordinationPhrases are the literal substrings (case-sensitive) that
// mark a reply as coordination language on their own.
var coordinationPhrases = []string{
	"I'll coordinate",
	"Let me coordinate",
	"I'll assign",
	"Let me assign",
	"I'm assigning",
	"coordinate a",
	"coordinate the",
	"workflow with",
	"I need you to",
	"You'll handle",
	"Strategic Coordination",
}

// delegationPatterns mark structured task hand-offs. On their own they are
// not enough; they only count alongside two or more worker mentions.
var delegationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Priority:\s*(Critical|High|Medium|Low)`),
	regexp.MustCompile(`(?i)Duration:\s*\d+\s*minutes?`),
	regexp.MustCompile(`(?i)- I'm assigning you to`),
	regexp.MustCompile(`(?i)- You'll handle`),
	regexp.MustCompile(`(?i)- I need you to`),
}

// namePatterns extract a workflow title, tried in order; the first
// capture wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\*\*"([^"]+)"\*\*\s*workflow`),
	regexp.MustCompile(`(?i)"([^"]+)"\s*workflow`),
	regexp.MustCompile(`(?i)coordinate a\s*\*\*"([^"]+)"\*\*`),
	regexp.MustCompile(`(?i)coordinate the\s*\*\*"([^"]+)"\*\*`),
	regexp.MustCompile(`(?i)coordinate a\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)coordinate the\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)workflow:\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)"([^"]+)"\s*with`),
	regexp.MustCompile(`(?i)I'll coordinate[^"]*"([^"]+)"`),
	regexp.MustCompile(`(?i)coordinate.*"([^"]+)"`),
	regexp.MustCompile(`(?i)Strategic Coordination:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Mission ID[:\s]*([A-Z0-9-]+)`),
	regexp.MustCompile(`(?i)Test Workflow[:\s]*([A-Z\s-]+)`),
}

var durationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)-minute`),
	regexp.MustCompile(`(?i)(\d+)\s*minutes`),
	regexp.MustCompile(`(?i)(\d+)\s*hour`),
}

var bulletPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[•✅]\s*([^\n]+)`),
	regexp.MustCompile(`(?m)^\s*[-*]\s*([^\n]+)`),
}

const (
	// DefaultDurationMinutes is assumed when a reply names no duration.
	DefaultDurationMinutes = 45
	// MaxRequirements caps the extracted requirement list.
	MaxRequirements = 5
	// DefaultWorkflowName is used when no title can be extracted.
	DefaultWorkflowName = "Strategic Workflow"
)

// defaultFallbackWorkers fills the worker list when coordination language
// was detected but no roster name appears in the reply.
var defaultFallbackWorkers = []string{"aria", "victoria", "zara"}

// Detector scans coordinator replies for workflow creation. It is
// stateless and safe for concurrent use; staging lives in Stager.
type Detector struct {
	workerNames []string
	fallback    []string
}

// NewDetector builds a detector over the given roster names. Mentions of
// names outside the roster never count toward detection. The fallback
// list defaults to a small standing crew when nil.
func NewDetector(workerNames []string, fallback []string) *Detector {
	if fallback == nil {
		fallback = defaultFallbackWorkers
	}
	return &Detector{
		workerNames: append([]string(nil), workerNames...),
		fallback:    append([]string(nil), fallback...),
	}
}

// Detect analyzes one coordinator reply and returns the extracted
// workflow, or nil when the reply contains no workflow. A workflow is
// detected when the reply carries a coordination phrase, or mentions at
// least two roster workers together with a delegation pattern. Mentions
// alone never trigger detection; the fallback crew is applied only after
// the decision, never counted toward it.
func (d *Detector) Detect(reply, conversationID string) *models.DetectedWorkflow {
	hasPhrase := false
	for _, phrase := range coordinationPhrases {
		if strings.Contains(reply, phrase) {
			hasPhrase = true
			break
		}
	}

	mentioned := d.mentionedWorkers(reply)

	hasDelegation := false
	for _, p := range delegationPatterns {
		if p.MatchString(reply) {
			hasDelegation = true
			break
		}
	}

	if !hasPhrase && !(len(mentioned) >= 2 && hasDelegation) {
		return nil
	}

	workers := mentioned
	if len(workers) == 0 {
		workers = append([]string(nil), d.fallback...)
	}

	name := extractName(reply)
	return &models.DetectedWorkflow{
		Name:                     name,
		Description:              fmt.Sprintf("Coordinator created workflow: %s", name),
		Workers:                  workers,
		Priority:                 extractPriority(reply),
		EstimatedDurationMinutes: extractDuration(reply),
		CustomRequirements:       extractRequirements(reply),
		ConversationID:           conversationID,
	}
}

// mentionedWorkers returns roster names appearing in the reply, in
// roster order.
func (d *Detector) mentionedWorkers(reply string) []string {
	lower := strings.ToLower(reply)
	var out []string
	for _, name := range d.workerNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			out = append(out, name)
		}
	}
	return out
}

func extractName(reply string) string {
	for _, p := range namePatterns {
		m := p.FindStringSubmatch(reply)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		// Markdown artifacts slip through the quote captures.
		if name != "**" && len(name) > 2 {
			return name
		}
	}

	firstLine := strings.SplitN(reply, "\n", 2)[0]
	if strings.Contains(firstLine, "coordinate") && len(firstLine) < 100 {
		name := regexp.MustCompile(`(?i).*coordinate\s*`).ReplaceAllString(firstLine, "")
		name = regexp.MustCompile(`\s*with.*`).ReplaceAllString(name, "")
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return DefaultWorkflowName
}

func extractPriority(reply string) models.TaskPriority {
	lower := strings.ToLower(reply)
	switch {
	case strings.Contains(lower, "critical"), strings.Contains(lower, "urgent"):
		return models.PriorityCritical
	case strings.Contains(lower, "high"):
		return models.PriorityHigh
	case strings.Contains(lower, "medium"):
		return models.PriorityMedium
	default:
		return models.PriorityHigh
	}
}

func extractDuration(reply string) int {
	for _, p := range durationPatterns {
		m := p.FindStringSubmatch(reply)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(reply), "hour") {
			return n * 60
		}
		return n
	}
	return DefaultDurationMinutes
}

func extractRequirements(reply string) []string {
	var reqs []string
	for _, p := range bulletPatterns {
		for _, m := range p.FindAllStringSubmatch(reply, -1) {
			if item := strings.TrimSpace(m[1]); item != "" {
				reqs = append(reqs, item)
			}
		}
	}

	if len(reqs) == 0 {
		if strings.Contains(reply, "design") {
			reqs = append(reqs, "Design consistency validation")
		}
		if strings.Contains(reply, "luxury") {
			reqs = append(reqs, "Luxury standards compliance")
		}
		if strings.Contains(reply, "test") {
			reqs = append(reqs, "System functionality testing")
		}
	}

	if len(reqs) > MaxRequirements {
		reqs = reqs[:MaxRequirements]
	}
	return reqs
}
