package internal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action is one of the operations the analyser exposes to callers.
type Action uint8

const (
	ActionRecueilConsentement Action = iota + 1
	ActionPositiveNegativeReponse
	ActionQuitterConversation
)

var Actions = []Action{
	ActionRecueilConsentement,
	ActionPositiveNegativeReponse,
	ActionQuitterConversation,
}

func (a Action) String() string {
	switch a {
	case ActionRecueilConsentement:
		return "recueil_consentement"
	case ActionPositiveNegativeReponse:
		return "positive_negative_reponse"
	case ActionQuitterConversation:
		return "quitter_conversation"
	default:
		return "action(" + strconv.Itoa(int(a)) + ")"
	}
}

func ParseAction(s string) (Action, error) {
	name := strings.TrimSpace(s)
	for _, a := range Actions {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Use case input/output DTOs

type DispatchInput struct {
	Action string
	Text   string
}

// DispatchOutput carries either a category (consent actions) or an exit flag.
type DispatchOutput struct {
	Action   Action
	Category Category
	Leave    bool
}

// Value is the JSON value returned to callers for this action: the numeric
// category code, or a boolean for quitter_conversation.
func (o DispatchOutput) Value() any {
	if o.Action == ActionQuitterConversation {
		return o.Leave
	}
	return o.Category.Code()
}

// Body is the response document, keyed by action name.
func (o DispatchOutput) Body() map[string]any {
	return map[string]any{o.Action.String(): o.Value()}
}

// Use cases

type DispatchUseCase struct {
	classifier *Classifier
	exit       *ExitMatcher
	metrics    *Metrics
}

func NewDispatchUseCase(classifier *Classifier, exit *ExitMatcher, metrics *Metrics) *DispatchUseCase {
	if exit == nil {
		exit = defaultExitMatcher
	}
	return &DispatchUseCase{
		classifier: classifier,
		exit:       exit,
		metrics:    metrics,
	}
}

func (uc *DispatchUseCase) Execute(ctx context.Context, input DispatchInput) (DispatchOutput, error) {
	action, err := ParseAction(input.Action)
	if err != nil {
		return DispatchOutput{}, err
	}

	out := DispatchOutput{Action: action}

	switch action {
	case ActionRecueilConsentement, ActionPositiveNegativeReponse:
		if uc.classifier == nil {
			return out, fmt.Errorf("%w: no classifier configured", ErrConfiguration)
		}
		cat, err := uc.classifier.Classify(ctx, input.Text)
		if err != nil {
			uc.metrics.ObserveFailure(action, errorKind(err))
			return out, err
		}
		out.Category = cat
		uc.metrics.ObserveDispatch(action, cat.String())

	case ActionQuitterConversation:
		out.Leave = uc.exit.WantsToLeave(input.Text)
		uc.metrics.ObserveDispatch(action, strconv.FormatBool(out.Leave))

	default:
		return out, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	return out, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrEmbeddingService):
		return "embedding_service"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
