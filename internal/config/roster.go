package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/foreman/pkg/models"
)

// rosterFile is the YAML shape of a roster file. Workers stay raw nodes
// so the loader can tell an absent is_available key from an explicit
// false.
type rosterFile struct {
	Workers []yaml.Node `yaml:"workers"`
}

// LoadRoster reads worker profiles from a YAML file. Runtime fields
// (current load, task ids) always start zeroed regardless of file
// contents, and workers default to available unless explicitly disabled.
func LoadRoster(path string) ([]models.WorkerProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	if len(f.Workers) == 0 {
		return nil, fmt.Errorf("roster %s: no workers defined", path)
	}

	workers := make([]models.WorkerProfile, 0, len(f.Workers))
	seen := make(map[string]bool, len(f.Workers))
	for i := range f.Workers {
		node := &f.Workers[i]

		var w models.WorkerProfile
		if err := node.Decode(&w); err != nil {
			return nil, fmt.Errorf("parse roster %s: worker %d: %w", path, i, err)
		}
		if w.Name == "" {
			return nil, fmt.Errorf("roster %s: worker %d has no name", path, i)
		}
		if seen[w.Name] {
			return nil, fmt.Errorf("roster %s: duplicate worker %q", path, w.Name)
		}
		seen[w.Name] = true
		if w.MaxConcurrentTasks <= 0 {
			return nil, fmt.Errorf("roster %s: worker %q needs a positive max_concurrent_tasks", path, w.Name)
		}
		if !hasMappingKey(node, "is_available") {
			w.IsAvailable = true
		}
		w.CurrentLoad = 0
		w.CurrentTaskIDs = nil
		workers = append(workers, w)
	}
	return workers, nil
}

// hasMappingKey reports whether a YAML mapping node contains the key.
func hasMappingKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// DefaultRoster returns the built-in worker roster used when no roster
// file is configured.
func DefaultRoster() []models.WorkerProfile {
	return []models.WorkerProfile{
		{
			Name:            "elena",
			Specializations: []string{"strategy", "coordination", "planning", "autonomous-monitoring"},
			SkillLevels: map[string]int{
				"strategy":              95,
				"coordination":          98,
				"planning":              92,
				"autonomous-monitoring": 88,
				"team-management":       90,
			},
			MaxConcurrentTasks:     5,
			AverageTaskTimeMinutes: 30,
			SuccessRate:            98,
			IsAvailable:            true,
		},
		{
			Name:            "aria",
			Specializations: []string{"luxury-design", "editorial-layout", "branding", "visual-storytelling"},
			SkillLevels: map[string]int{
				"luxury-design":       98,
				"editorial-layout":    95,
				"branding":            92,
				"visual-storytelling": 90,
				"ui-design":           85,
			},
			MaxConcurrentTasks:     3,
			AverageTaskTimeMinutes: 45,
			SuccessRate:            96,
			IsAvailable:            true,
		},
		{
			Name:            "zara",
			Specializations: []string{"backend", "architecture", "performance", "technical-optimization"},
			SkillLevels: map[string]int{
				"backend":                95,
				"architecture":           98,
				"performance":            94,
				"technical-optimization": 92,
				"database":               88,
				"scalability":            90,
			},
			MaxConcurrentTasks:     4,
			AverageTaskTimeMinutes: 60,
			SuccessRate:            97,
			IsAvailable:            true,
		},
		{
			Name:            "maya",
			Specializations: []string{"ai-photography", "flux-integration", "celebrity-styling", "user-experience"},
			SkillLevels: map[string]int{
				"ai-photography":    98,
				"flux-integration":  95,
				"celebrity-styling": 92,
				"user-experience":   88,
				"interface-design":  85,
			},
			MaxConcurrentTasks:     3,
			AverageTaskTimeMinutes: 40,
			SuccessRate:            94,
			IsAvailable:            true,
		},
		{
			Name:            "victoria",
			Specializations: []string{"ux-design", "conversion-optimization", "interface-design", "usability"},
			SkillLevels: map[string]int{
				"ux-design":               96,
				"conversion-optimization": 94,
				"interface-design":        90,
				"usability":               92,
				"user-research":           85,
			},
			MaxConcurrentTasks:     4,
			AverageTaskTimeMinutes: 35,
			SuccessRate:            95,
			IsAvailable:            true,
		},
		{
			Name:            "rachel",
			Specializations: []string{"copywriting", "brand-voice", "messaging", "content-strategy"},
			SkillLevels: map[string]int{
				"copywriting":      98,
				"brand-voice":      95,
				"messaging":        94,
				"content-strategy": 90,
				"storytelling":     88,
			},
			MaxConcurrentTasks:     4,
			AverageTaskTimeMinutes: 25,
			SuccessRate:            97,
			IsAvailable:            true,
		},
		{
			Name:            "ava",
			Specializations: []string{"automation", "workflow-optimization", "scalability", "process-design"},
			SkillLevels: map[string]int{
				"automation":            96,
				"workflow-optimization": 94,
				"scalability":           92,
				"process-design":        90,
				"integration":           88,
			},
			MaxConcurrentTasks:     3,
			AverageTaskTimeMinutes: 50,
			SuccessRate:            93,
			IsAvailable:            true,
		},
		{
			Name:            "quinn",
			Specializations: []string{"quality-assurance", "luxury-standards", "testing", "validation"},
			SkillLevels: map[string]int{
				"quality-assurance":   99,
				"luxury-standards":    96,
				"testing":             94,
				"validation":          95,
				"performance-testing": 90,
			},
			MaxConcurrentTasks:     5,
			AverageTaskTimeMinutes: 20,
			SuccessRate:            99,
			IsAvailable:            true,
		},
		{
			Name:            "sophia",
			Specializations: []string{"social-media", "community-management", "engagement", "content-planning"},
			SkillLevels: map[string]int{
				"social-media":         95,
				"community-management": 92,
				"engagement":           90,
				"content-planning":     88,
				"influencer-strategy":  85,
			},
			MaxConcurrentTasks:     4,
			AverageTaskTimeMinutes: 30,
			SuccessRate:            92,
			IsAvailable:            true,
		},
		{
			Name:            "martha",
			Specializations: []string{"marketing", "conversion-optimization", "analytics", "campaign-management"},
			SkillLevels: map[string]int{
				"marketing":               96,
				"conversion-optimization": 94,
				"analytics":               92,
				"campaign-management":     90,
				"performance-tracking":    88,
			},
			MaxConcurrentTasks:     3,
			AverageTaskTimeMinutes: 40,
			SuccessRate:            94,
			IsAvailable:            true,
		},
		{
			Name:            "diana",
			Specializations: []string{"business-strategy", "planning", "decision-making", "coaching"},
			SkillLevels: map[string]int{
				"business-strategy":  98,
				"planning":           95,
				"decision-making":    94,
				"coaching":           92,
				"strategic-analysis": 90,
			},
			MaxConcurrentTasks:     3,
			AverageTaskTimeMinutes: 45,
			SuccessRate:            96,
			IsAvailable:            true,
		},
		{
			Name:            "wilma",
			Specializations: []string{"workflow-design", "efficiency", "process-optimization", "automation"},
			SkillLevels: map[string]int{
				"workflow-design":      96,
				"efficiency":           94,
				"process-optimization": 92,
				"automation":           88,
				"systems-thinking":     90,
			},
			MaxConcurrentTasks:     4,
			AverageTaskTimeMinutes: 35,
			SuccessRate:            95,
			IsAvailable:            true,
		},
		{
			Name:            "olga",
			Specializations: []string{"organization", "maintenance", "cleanup", "architecture-optimization"},
			SkillLevels: map[string]int{
				"organization":              98,
				"maintenance":               95,
				"cleanup":                   96,
				"architecture-optimization": 90,
				"dependency-management":     88,
			},
			MaxConcurrentTasks:     4,
			AverageTaskTimeMinutes: 25,
			SuccessRate:            97,
			IsAvailable:            true,
		},
	}
}

// WorkerNames returns the names in a roster, in roster order.
func WorkerNames(roster []models.WorkerProfile) []string {
	names := make([]string, len(roster))
	for i, w := range roster {
		names[i] = w.Name
	}
	return names
}
