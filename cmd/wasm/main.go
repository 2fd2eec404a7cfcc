//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"syscall/js"

	"skillhub/internal/adapter/catalog"
	"skillhub/internal/adapter/embedding"
	"skillhub/internal/adapter/graph"
	"skillhub/internal/adapter/memstore"
	"skillhub/internal/domain"
	"skillhub/internal/usecase"
)

const repoID = "browser"

var (
	skills *memstore.SkillSource
	engine *usecase.Engine
)

func init() {
	reset()
}

func reset() {
	emb := embedding.NewHashEmbedder(0)
	skills = memstore.NewSkillSource()
	engine = usecase.NewEngine(
		skills,
		emb,
		memstore.NewVectorStore(emb.Dimension()),
		graph.New(),
		usecase.DefaultOptions(),
	)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("skillhubAdd", js.FuncOf(addSkill))
	js.Global().Set("skillhubSearch", js.FuncOf(searchSkills))
	js.Global().Set("skillhubRelated", js.FuncOf(relatedSkills))
	js.Global().Set("skillhubRemove", js.FuncOf(removeSkill))
	js.Global().Set("skillhubClear", js.FuncOf(clearIndex))
	js.Global().Set("skillhubStats", js.FuncOf(getStats))

	<-c
}

// addSkill parses a SKILL.md. The directory of filename becomes the skill id.
func addSkill(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: skillhubAdd(filename, content)")
	}

	filename := args[0].String()
	content := args[1].String()

	relDir := path.Dir(strings.TrimPrefix(filename, "/"))
	skill, err := catalog.ParseSkill([]byte(content), repoID, relDir)
	if err != nil {
		return makeError("parse failed: " + err.Error())
	}
	if v := catalog.Validate(skill, nil); !v.OK() {
		return makeError("invalid skill: " + strings.Join(v.Errors, "; "))
	}

	skills.Put(skill)
	outcome := engine.IndexSkill(context.Background(), skill)
	if outcome.Err != nil {
		return makeError("indexing failed: " + outcome.Err.Error())
	}

	return makeResult(map[string]interface{}{
		"success": true,
		"id":      skill.ID,
		"status":  outcome.Status.String(),
	})
}

func searchSkills(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: skillhubSearch(query, [topK])")
	}

	query := args[0].String()
	topK := 5
	if len(args) > 1 {
		topK = args[1].Int()
	}

	results := engine.Search(context.Background(), domain.SearchRequest{Query: query, TopK: topK})

	output := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		output = append(output, map[string]interface{}{
			"id":          r.Skill.ID,
			"name":        r.Skill.Name,
			"description": r.Skill.Description,
			"score":       r.Score,
			"matchType":   r.MatchType,
		})
	}

	return makeResult(map[string]interface{}{
		"results": output,
		"query":   query,
	})
}

func relatedSkills(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: skillhubRelated(id, [maxDepth])")
	}

	depth := -1
	if len(args) > 1 {
		depth = args[1].Int()
	}

	related := engine.RelatedSkills(context.Background(), args[0].String(), depth)
	ids := make([]string, 0, len(related))
	for _, s := range related {
		ids = append(ids, s.ID)
	}
	return makeResult(map[string]interface{}{
		"related": ids,
	})
}

// removeSkill drops a skill and rebuilds the index from what remains.
func removeSkill(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: skillhubRemove(id)")
	}

	skills.Remove(args[0].String())
	report, err := engine.ReindexAll(context.Background(), true)
	if err != nil {
		return makeError("reindex failed: " + err.Error())
	}
	return makeResult(map[string]interface{}{
		"success": true,
		"indexed": report.Indexed,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	reset()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	stats := engine.Stats()
	return makeResult(map[string]interface{}{
		"skills":      skills.Len(),
		"totalSkills": stats.TotalSkills,
		"graphNodes":  stats.GraphNodes,
		"graphEdges":  stats.GraphEdges,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
