package usecase

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

// Assembler renders retrieved hits and the question into a generation
// prompt. Hits appear in ranking order and are never truncated.
type Assembler struct {
	tmpl      *template.Template
	tokenizer port.Tokenizer
}

type promptData struct {
	Question string
	Hits     domain.RetrievalResult
}

func NewAssembler(tokenizer port.Tokenizer) (*Assembler, error) {
	content, err := promptTemplates.ReadFile("templates/answer_prompt.txt")
	if err != nil {
		return nil, fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New("answer").Funcs(template.FuncMap{
		"json": metadataJSON,
	}).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Assembler{tmpl: tmpl, tokenizer: tokenizer}, nil
}

func (a *Assembler) Assemble(question string, hits domain.RetrievalResult) (string, error) {
	var buf strings.Builder
	if err := a.tmpl.Execute(&buf, promptData{Question: question, Hits: hits}); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// EstimateTokens gives a rough prompt size for diagnostics.
func (a *Assembler) EstimateTokens(prompt string) int {
	if a.tokenizer == nil {
		return 0
	}
	return a.tokenizer.CountTokens(prompt)
}

// metadataJSON renders metadata with sorted keys.
func metadataJSON(m domain.Metadata) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}
