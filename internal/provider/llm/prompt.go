// Package llm holds the prompt and output handling shared by the
// chat-model extractors.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"refinener/internal/domain"
	"refinener/internal/provider"
)

// Settings is the setting spec every chat-model extractor declares.
var Settings = provider.NewSpec(
	"Max entities", "20",
	"Min confidence", "0.5",
)

// Limits are the parsed chat-model settings.
type Limits struct {
	MaxEntities   int
	MinConfidence float64
}

// ReadLimits parses the resolved settings of a chat-model extractor.
func ReadLimits(settings map[string]string) (Limits, error) {
	maxEntities, err := strconv.Atoi(settings["Max entities"])
	if err != nil || maxEntities <= 0 {
		return Limits{}, fmt.Errorf("invalid Max entities setting %q", settings["Max entities"])
	}
	minConfidence, err := strconv.ParseFloat(settings["Min confidence"], 64)
	if err != nil {
		return Limits{}, fmt.Errorf("invalid Min confidence setting %q", settings["Min confidence"])
	}
	return Limits{MaxEntities: maxEntities, MinConfidence: minConfidence}, nil
}

var promptTmpl = template.Must(template.New("ner").Parse(promptTemplate))

// BuildPrompt renders the extraction prompt for text. With wrapped set the
// model is asked for an object {"entities": [...]}, which JSON-object
// response modes require; otherwise for a bare array.
func BuildPrompt(text string, limits Limits, wrapped bool) (string, error) {
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, promptData{Text: text, MaxEntities: limits.MaxEntities, Wrapped: wrapped})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

type llmEntity struct {
	Label      string   `json:"label"`
	URI        string   `json:"uri"`
	Confidence *float64 `json:"confidence"`
}

// ParseEntities decodes the model's output: a JSON array, or an object with
// an "entities" array, optionally inside a markdown code fence. Entities
// below the minimum confidence are dropped and at most MaxEntities are kept.
func ParseEntities(output string, limits Limits) ([]domain.NamedEntity, error) {
	raw := stripCodeFence(output)
	var items []llmEntity
	if strings.HasPrefix(raw, "{") {
		var wrapped struct {
			Entities []llmEntity `json:"entities"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("parsing LLM JSON output: %w", err)
		}
		items = wrapped.Entities
	} else if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parsing LLM JSON output: %w", err)
	}

	entities := make([]domain.NamedEntity, 0, len(items))
	for _, it := range items {
		if len(entities) == limits.MaxEntities {
			break
		}
		label := strings.TrimSpace(it.Label)
		if label == "" {
			continue
		}
		if it.Confidence != nil && *it.Confidence < limits.MinConfidence {
			continue
		}
		switch {
		case it.URI == "":
			entities = append(entities, domain.NewNamedEntity(label))
		case it.Confidence != nil:
			entities = append(entities, domain.NewNamedEntity(label,
				domain.NewDisambiguation(label, it.URI, *it.Confidence)))
		default:
			entities = append(entities, domain.NewLinkedEntity(label, it.URI))
		}
	}
	return entities, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type promptData struct {
	Text        string
	MaxEntities int
	Wrapped     bool
}

const promptTemplate = `Extract the named entities (people, organizations, places, works, events) mentioned in the text below.

{{if .Wrapped}}Return ONLY a JSON object of the form {"entities": [...]}, no prose. Each element of "entities" must be an object:{{else}}Return ONLY a JSON array, no prose. Each element must be an object:{{end}}
{"label": "<surface form exactly as written in the text>", "uri": "<English Wikipedia or DBpedia URI, or empty string if unsure>", "confidence": <number between 0 and 1>}

List entities in order of first appearance, at most {{.MaxEntities}} of them. Return {{if .Wrapped}}{"entities": []}{{else}}[]{{end}} when there are none.

Text:
{{.Text}}
`
