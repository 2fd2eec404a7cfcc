package catalog

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"skillhub/internal/domain"
)

// DefaultCategory is assigned to skills whose frontmatter names none.
const DefaultCategory = "general"

var markdown = goldmark.New(goldmark.WithExtensions(meta.Meta))

// SkillID builds the stable id of the skill whose SKILL.md lives in relDir
// (slash-separated, relative to the repository root).
func SkillID(repoID, relDir string) string {
	relDir = strings.Trim(path.Clean(relDir), "/")
	if relDir == "." || relDir == "" {
		return repoID
	}
	return repoID + "/" + relDir
}

// ParseSkill reads a SKILL.md document. Frontmatter is optional; the body
// becomes the instructions.
func ParseSkill(content []byte, repoID, relDir string) (domain.Skill, error) {
	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := markdown.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return domain.Skill{}, errors.Wrap(err, "failed to parse markdown")
	}
	fm, err := meta.TryGet(pctx)
	if err != nil {
		return domain.Skill{}, errors.Wrap(err, "invalid frontmatter")
	}

	body := extractBodyContent(string(content))
	skill := domain.Skill{
		ID:           SkillID(repoID, relDir),
		RepoID:       repoID,
		Name:         stringField(fm, "name"),
		Description:  stringField(fm, "description"),
		Instructions: strings.TrimSpace(body),
		Category:     stringField(fm, "category"),
		Tags:         listField(fm, "tags"),
		Dependencies: listField(fm, "dependencies"),
		Examples:     listField(fm, "examples"),
		Version:      stringField(fm, "version"),
		Author:       stringField(fm, "author"),
	}

	if skill.Name == "" {
		skill.Name = path.Base(path.Clean("/" + relDir))
		if skill.Name == "/" {
			skill.Name = repoID
		}
	}
	if skill.Description == "" {
		skill.Description = firstParagraphLine(body)
	}
	if skill.Category == "" {
		skill.Category = DefaultCategory
	}
	return skill, nil
}

func stringField(fm map[string]interface{}, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// listField accepts a yaml list or a comma-separated string.
func listField(fm map[string]interface{}, key string) []string {
	var raw []string
	switch v := fm[key].(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(v, ",")
	case []interface{}:
		for _, item := range v {
			if item != nil {
				raw = append(raw, fmt.Sprint(item))
			}
		}
	default:
		raw = []string{fmt.Sprint(v)}
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// extractBodyContent removes YAML frontmatter and returns the body
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}

func firstParagraphLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		return line
	}
	return ""
}
