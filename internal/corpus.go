package internal

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var defaultCorpusYAML []byte

type Example struct {
	Text     string
	Category Category
}

// Corpus is the ordered, immutable set of labelled examples the classifier
// is built from.
type Corpus struct {
	examples []Example
}

func NewCorpus(examples []Example) (*Corpus, error) {
	c := &Corpus{examples: append([]Example(nil), examples...)}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultCorpus returns the reference corpus compiled into the binary.
func DefaultCorpus() *Corpus {
	c, err := ParseCorpus(defaultCorpusYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded corpus: %v", err))
	}
	return c
}

func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	c, err := ParseCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}
	return c, nil
}

// ParseCorpus reads a YAML mapping of category label to phrase list. Document
// order is kept, since it decides nearest-neighbour ties.
func ParseCorpus(data []byte) (*Corpus, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse corpus: %v", ErrConfiguration, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", ErrConfiguration)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: corpus must be a mapping of category to phrases", ErrConfiguration)
	}

	var examples []Example
	for i := 0; i+1 < len(root.Content); i += 2 {
		label, list := root.Content[i], root.Content[i+1]

		cat, err := ParseCategory(label.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", label.Line, err)
		}

		var phrases []string
		if err := list.Decode(&phrases); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrConfiguration, list.Line, err)
		}

		for _, p := range phrases {
			examples = append(examples, Example{Text: p, Category: cat})
		}
	}

	return NewCorpus(examples)
}

func (c *Corpus) Validate() error {
	if len(c.examples) == 0 {
		return fmt.Errorf("%w: corpus has no examples", ErrConfiguration)
	}
	for i, ex := range c.examples {
		if !ex.Category.Valid() {
			return fmt.Errorf("%w: example %d has invalid category %d", ErrConfiguration, i, ex.Category)
		}
		if strings.TrimSpace(ex.Text) == "" {
			return fmt.Errorf("%w: example %d (%s) is blank", ErrConfiguration, i, ex.Category)
		}
	}
	for _, cat := range Categories {
		if c.Count(cat) == 0 {
			return fmt.Errorf("%w: category %s has no examples", ErrConfiguration, cat)
		}
	}
	return nil
}

// Examples returns the examples in iteration order.
func (c *Corpus) Examples() []Example {
	return append([]Example(nil), c.examples...)
}

func (c *Corpus) Len() int {
	return len(c.examples)
}

func (c *Corpus) Count(cat Category) int {
	n := 0
	for _, ex := range c.examples {
		if ex.Category == cat {
			n++
		}
	}
	return n
}

func (c *Corpus) Phrases(cat Category) []string {
	var out []string
	for _, ex := range c.examples {
		if ex.Category == cat {
			out = append(out, ex.Text)
		}
	}
	return out
}

// Contains reports whether text, once lower-cased and trimmed, is already in
// the corpus, whatever its category.
func (c *Corpus) Contains(text string) bool {
	needle := Normalize(text)
	for _, ex := range c.examples {
		if Normalize(ex.Text) == needle {
			return true
		}
	}
	return false
}

type Issue struct {
	Severity string
	Message  string
}

// Check reports problems that do not prevent building a classifier but make
// its answers unreliable. A phrase labelled with two categories is an error,
// a repeated phrase is a warning.
func (c *Corpus) Check() []Issue {
	var issues []Issue

	seen := make(map[string]Example)
	for _, ex := range c.examples {
		key := Normalize(ex.Text)
		prev, ok := seen[key]
		if !ok {
			seen[key] = ex
			continue
		}
		if prev.Category != ex.Category {
			issues = append(issues, Issue{
				Severity: "error",
				Message:  fmt.Sprintf("%q is labelled both %s and %s", ex.Text, prev.Category, ex.Category),
			})
			continue
		}
		issues = append(issues, Issue{
			Severity: "warning",
			Message:  fmt.Sprintf("%q is listed twice under %s", ex.Text, ex.Category),
		})
	}

	return issues
}

// MarshalYAML renders the corpus in the layout ParseCorpus reads. Each run of
// consecutive same-category examples becomes one mapping entry, so a label may
// repeat and the parsed positions match c.examples exactly.
func (c *Corpus) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	var list *yaml.Node
	for i, ex := range c.examples {
		if i == 0 || ex.Category != c.examples[i-1].Category {
			list = &yaml.Node{Kind: yaml.SequenceNode}
			root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: ex.Category.String()}, list)
		}
		list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: ex.Text, Style: yaml.DoubleQuotedStyle})
	}
	return root, nil
}

// SaveCorpus writes c to path in the layout ParseCorpus reads.
func SaveCorpus(path string, c *Corpus) error {
	data, err := renderCorpus(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	return nil
}

func renderCorpus(c *Corpus) (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal corpus: %w", err)
	}
	return string(data), nil
}
