package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// ExitStems are the word stems that signal a wish to end the conversation.
// The set is over-inclusive on purpose; narrow it only together with a test
// that pins the intended behaviour.
var ExitStems = []string{
	`quitt(?:e|er|é|ant)?`,
	`part(?:i|ir|ait|ie|is|ons)?`,
	`arrêt(?:er|e|ons)?`,
	`fini(?:r|e|s)?`,
	`stop`,
	`au revoir`,
	`termin(?:er|é|e)?`,
	`m'en vais`,
	`ferm(?:er|é|ée|ons)?`,
	`bientôt`,
	`clôtur(?:er|e|ons)?`,
	`fin(?:ir|ie)?`,
	`c'est tout`,
	`ça y est`,
	`je file`,
	`je m'en vais`,
	`je dois y aller`,
	`je me tire`,
	`je me casse`,
	`je bounce`,
	`j'y vais`,
	`bon, j'y vais`,
	`go`,
}

// RE2's \b only knows ASCII word characters, which would reject "terminé"
// followed by a space. Boundaries are spelled out over Unicode classes instead.
const (
	wordEdgeStart = `(?:^|[^\p{L}\p{N}_])`
	wordEdgeEnd   = `(?:$|[^\p{L}\p{N}_])`
)

var defaultExitMatcher = MustExitMatcher(ExitStems)

// ExitMatcher detects exit intent. It holds only a compiled pattern and is
// safe for concurrent use.
type ExitMatcher struct {
	pattern *regexp.Regexp
}

func NewExitMatcher(stems []string) (*ExitMatcher, error) {
	if len(stems) == 0 {
		return nil, fmt.Errorf("%w: exit matcher needs at least one stem", ErrConfiguration)
	}

	expr := wordEdgeStart + `(?:` + strings.Join(stems, `|`) + `)` + wordEdgeEnd
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: compile exit stems: %v", ErrConfiguration, err)
	}

	return &ExitMatcher{pattern: re}, nil
}

func MustExitMatcher(stems []string) *ExitMatcher {
	m, err := NewExitMatcher(stems)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *ExitMatcher) WantsToLeave(text string) bool {
	return m.pattern.MatchString(foldApostrophes(Lower(text)))
}

// WantsToLeave reports whether text expresses intent to end the conversation.
func WantsToLeave(text string) bool {
	return defaultExitMatcher.WantsToLeave(text)
}
