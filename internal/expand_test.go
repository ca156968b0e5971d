package internal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider answers GenerateObject with a fixed JSON document.
type stubProvider struct {
	response string
	err      error
	prompt   string
}

func (p *stubProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.prompt = prompt
	return p.response, p.err
}

func (p *stubProvider) GenerateObject(_ context.Context, prompt string, target any) error {
	p.prompt = prompt
	if p.err != nil {
		return p.err
	}
	return json.Unmarshal([]byte(p.response), target)
}

func TestExpandCorpus(t *testing.T) {
	corpus := mustCorpus(
		Example{Text: "oui", Category: Affirmative},
		Example{Text: "non", Category: Negative},
		Example{Text: "peut-être", Category: Indeterminate},
	)
	provider := &stubProvider{response: `{"phrases":["Carrément !","oui","  ","carrément !","NON","avec plaisir"]}`}
	uc := NewExpandCorpusUseCase(corpus, provider)

	out, err := uc.Execute(context.Background(), ExpandCorpusInput{Category: Affirmative, Count: 4})
	require.NoError(t, err)

	assert.Equal(t, []string{"carrément !", "avec plaisir"}, out.Proposed)
	assert.Equal(t, []string{"oui", "  ", "carrément !", "NON"}, out.Rejected)
	assert.Equal(t, 5, out.Extended.Len())
	assert.Equal(t, 3, out.Extended.Count(Affirmative))
	assert.Equal(t, 3, corpus.Len(), "source corpus is untouched")
	assert.Equal(t, []Example{
		{Text: "oui", Category: Affirmative},
		{Text: "carrément !", Category: Affirmative},
		{Text: "avec plaisir", Category: Affirmative},
		{Text: "non", Category: Negative},
		{Text: "peut-être", Category: Indeterminate},
	}, out.Extended.Examples(), "proposals follow the last example of their category")

	assert.Contains(t, provider.prompt, "Propose 4 nouvelles formulations")
	assert.Contains(t, provider.prompt, "- oui\n")
	assert.NotContains(t, provider.prompt, "- non\n")
}

func TestExpandCorpusErrors(t *testing.T) {
	corpus := DefaultCorpus()

	_, err := NewExpandCorpusUseCase(corpus, nil).Execute(context.Background(), ExpandCorpusInput{Category: Negative})
	assert.Error(t, err)

	uc := NewExpandCorpusUseCase(corpus, &stubProvider{response: `{"phrases":[]}`})
	_, err = uc.Execute(context.Background(), ExpandCorpusInput{Category: Category(9)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	boom := errors.New("rate limited")
	uc = NewExpandCorpusUseCase(corpus, &stubProvider{err: boom})
	_, err = uc.Execute(context.Background(), ExpandCorpusInput{Category: Negative})
	assert.ErrorIs(t, err, boom)
}

func TestExpandCorpusDefaultCount(t *testing.T) {
	provider := &stubProvider{response: `{"phrases":[]}`}
	out, err := NewExpandCorpusUseCase(DefaultCorpus(), provider).Execute(context.Background(), ExpandCorpusInput{Category: Indeterminate})
	require.NoError(t, err)

	assert.Empty(t, out.Proposed)
	assert.Contains(t, provider.prompt, "Propose 10 nouvelles formulations")
	assert.Contains(t, provider.prompt, "indéterminée")
}
