package internal

import (
	"context"
	"fmt"
	"strings"
)

type ExpandCorpusInput struct {
	Category Category
	Count    int
}

type ExpandCorpusOutput struct {
	Category Category
	Proposed []string
	Rejected []string
	Extended *Corpus
}

// ExpandCorpusUseCase asks a language model for new paraphrases of one
// category. Proposals already present in the corpus, under any label, are
// rejected so an expansion never introduces a conflict.
type ExpandCorpusUseCase struct {
	corpus   *Corpus
	provider Provider
}

func NewExpandCorpusUseCase(corpus *Corpus, provider Provider) *ExpandCorpusUseCase {
	return &ExpandCorpusUseCase{
		corpus:   corpus,
		provider: provider,
	}
}

func (uc *ExpandCorpusUseCase) Execute(ctx context.Context, input ExpandCorpusInput) (*ExpandCorpusOutput, error) {
	if uc.provider == nil {
		return nil, fmt.Errorf("provider not available")
	}
	if !input.Category.Valid() {
		return nil, fmt.Errorf("%w: invalid category", ErrInvalidInput)
	}

	count := input.Count
	if count <= 0 {
		count = 10
	}

	var paraphrases Paraphrases
	if err := uc.provider.GenerateObject(ctx, expandPrompt(uc.corpus, input.Category, count), &paraphrases); err != nil {
		return nil, fmt.Errorf("generate paraphrases: %w", err)
	}

	out := &ExpandCorpusOutput{Category: input.Category}
	seen := make(map[string]bool)
	for _, phrase := range paraphrases.Phrases {
		p := Normalize(phrase)
		if p == "" || seen[p] || uc.corpus.Contains(p) {
			out.Rejected = append(out.Rejected, phrase)
			continue
		}
		seen[p] = true
		out.Proposed = append(out.Proposed, p)
	}

	examples := insertAfterCategory(uc.corpus.Examples(), input.Category, out.Proposed)

	extended, err := NewCorpus(examples)
	if err != nil {
		return nil, fmt.Errorf("extend corpus: %w", err)
	}
	out.Extended = extended

	return out, nil
}

// insertAfterCategory places phrases right after the last example of cat.
// The relative order of existing examples, and so every tie-break between
// them, is unchanged.
func insertAfterCategory(examples []Example, cat Category, phrases []string) []Example {
	at := len(examples)
	for i := len(examples) - 1; i >= 0; i-- {
		if examples[i].Category == cat {
			at = i + 1
			break
		}
	}

	out := make([]Example, 0, len(examples)+len(phrases))
	out = append(out, examples[:at]...)
	for _, p := range phrases {
		out = append(out, Example{Text: p, Category: cat})
	}
	return append(out, examples[at:]...)
}

func expandPrompt(corpus *Corpus, cat Category, count int) string {
	var sb strings.Builder
	sb.WriteString("Les phrases suivantes sont des réponses d'utilisateurs francophones à une demande de consentement.\n")
	sb.WriteString(fmt.Sprintf("Elles expriment toutes une réponse %s.\n\n", categoryLabelFR(cat)))
	for _, p := range corpus.Phrases(cat) {
		sb.WriteString("- ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\nPropose %d nouvelles formulations courtes, familières ou formelles, de même sens. ", count))
	sb.WriteString("N'en répète aucune et réponds uniquement avec la liste des phrases.\n")
	return sb.String()
}

func categoryLabelFR(cat Category) string {
	switch cat {
	case Affirmative:
		return "affirmative (accord)"
	case Negative:
		return "négative (refus)"
	default:
		return "indéterminée (hésitation ou ambiguïté)"
	}
}
