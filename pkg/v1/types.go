package v1

import "github.com/4thel00z/consent/internal"

// Category is the outcome of classifying a reply. Code returns the numeric
// value used on the wire: 1 affirmative, 0 negative, 2 indeterminate.
type Category = internal.Category

const (
	Affirmative   = internal.Affirmative
	Negative      = internal.Negative
	Indeterminate = internal.Indeterminate
)

// Embedder turns text into a fixed-dimension vector.
type Embedder = internal.Embedder

// Action names accepted by Dispatch.
const (
	ActionRecueilConsentement     = "recueil_consentement"
	ActionPositiveNegativeReponse = "positive_negative_reponse"
	ActionQuitterConversation     = "quitter_conversation"
)

var (
	ErrInvalidInput      = internal.ErrInvalidInput
	ErrEmbeddingService  = internal.ErrEmbeddingService
	ErrDimensionMismatch = internal.ErrDimensionMismatch
	ErrConfiguration     = internal.ErrConfiguration
	ErrUnknownAction     = internal.ErrUnknownAction
)
