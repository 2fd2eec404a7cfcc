package catalog

import (
	"fmt"
	"strings"

	"skillhub/internal/domain"
)

const (
	minDescriptionLen  = 20
	minInstructionsLen = 50
)

// Validation separates problems that keep a skill out of the index from
// ones that are only worth a log line.
type Validation struct {
	Errors   []string
	Warnings []string
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Validate checks skill against the set of ids discovered in the same pass.
// A nil known set skips the dependency check.
func Validate(skill domain.Skill, known map[string]bool) Validation {
	var v Validation

	if strings.TrimSpace(skill.ID) == "" {
		v.Errors = append(v.Errors, "missing id")
	}
	if strings.TrimSpace(skill.Name) == "" {
		v.Errors = append(v.Errors, "missing name")
	}
	if strings.TrimSpace(skill.Instructions) == "" {
		v.Errors = append(v.Errors, "missing instructions")
	}

	if n := len([]rune(skill.Description)); n < minDescriptionLen {
		v.Warnings = append(v.Warnings, fmt.Sprintf("description is short (%d chars)", n))
	}
	if n := len([]rune(skill.Instructions)); n > 0 && n < minInstructionsLen {
		v.Warnings = append(v.Warnings, fmt.Sprintf("instructions are short (%d chars)", n))
	}
	if known != nil {
		for _, dep := range skill.Dependencies {
			if !known[dep] {
				v.Warnings = append(v.Warnings, fmt.Sprintf("unknown dependency %q", dep))
			}
		}
	}
	return v
}
