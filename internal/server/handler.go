package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/4thel00z/consent/internal"
	"github.com/4thel00z/consent/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidJSON    = "Invalid JSON"
	msgMissingParams  = "Paramètres 'action' et 'texte' requis"
	msgUnknownAction  = "Action inconnue"
	msgInvalidInput   = "Texte invalide : impossible d'analyser une réponse vide"
	msgExtractionFail = "Erreur lors de l'extraction : "

	// logPreview bounds how much of a reply reaches the logs.
	logPreview = 50
)

type analyseRequest struct {
	Action string `json:"action"`
	Texte  string `json:"texte"`
}

func (s *Server) handleAnalyse(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	var req analyseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("invalid request body", "error", err)
		c.String(http.StatusBadRequest, msgInvalidJSON)
		return
	}

	req.Action = strings.TrimSpace(req.Action)
	req.Texte = strings.TrimSpace(req.Texte)
	if req.Action == "" || req.Texte == "" {
		log.Warn("missing action or texte")
		c.String(http.StatusBadRequest, msgMissingParams)
		return
	}

	log.Info("request received", "action", req.Action, "texte", preview(req.Texte))

	ctx := c.Request.Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	out, err := s.dispatch.Execute(ctx, internal.DispatchInput{Action: req.Action, Text: req.Texte})
	if err != nil {
		status, msg := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("extraction failed", "action", req.Action, "error", err)
			_ = c.Error(err)
		} else {
			log.Warn("request rejected", "action", req.Action, "error", err)
		}
		c.String(status, msg)
		return
	}

	log.Info("action completed", "action", out.Action, "result", out.Value())
	c.JSON(http.StatusOK, out.Body())
}

// errorResponse maps a dispatch error onto the status and plain-text body
// callers of the analyser expect.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, internal.ErrUnknownAction):
		return http.StatusBadRequest, msgUnknownAction
	case errors.Is(err, internal.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	default:
		return http.StatusInternalServerError, msgExtractionFail + err.Error()
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Corpus    int    `json:"corpus"`
	Dimension int    `json:"dimension"`
	Index     string `json:"index"`
}

func (s *Server) handleHealth(c *gin.Context) {
	index := s.config.IndexBackend
	if index == "" {
		index = internal.IndexFlat
	}
	c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Corpus:    s.classifier.Len(),
		Dimension: s.classifier.Dimension(),
		Index:     index,
	})
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= logPreview {
		return text
	}
	return string(r[:logPreview]) + "..."
}
