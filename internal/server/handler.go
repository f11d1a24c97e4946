package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/howard-nolan/studyproxy/internal/provider"
	"github.com/howard-nolan/studyproxy/internal/study"
)

// Success bodies. Each endpoint returns exactly one of these or errorBody.
type (
	answerResponse struct {
		Answer string `json:"answer"`
	}
	outputResponse struct {
		Output string `json:"output"`
	}
	notesResponse struct {
		Notes string `json:"notes"`
	}
	flashcardsResponse struct {
		Flashcards []study.Flashcard `json:"flashcards"`
	}
	workflowResponse struct {
		OutputText         string `json:"output_text"`
		QuestionImageCount int    `json:"question_image_count"`
		AnswerImageCount   int    `json:"answer_image_count"`
	}
)

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// generate makes the single upstream call for a request and logs usage.
// r.Context() cancels the call if the client goes away or a deadline
// passes.
func (s *Server) generate(r *http.Request, p provider.Provider, req *provider.Request) (*provider.Response, error) {
	resp, err := p.Generate(r.Context(), req)
	if err != nil {
		return nil, err
	}

	slog.Info("generated answer",
		"request_id", middleware.GetReqID(r.Context()),
		"provider", p.Name(),
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"total_tokens", resp.Usage.TotalTokens)

	return resp, nil
}

// handleAsk answers a free-text question. When bypass is set, reserved
// questions get the configured answer without an upstream call.
func (s *Server) handleAsk(defaultTemp float64, bypass bool) generateEndpoint {
	return func(r *http.Request, p provider.Provider) (int, any, error) {
		var q study.Question
		if err := study.Decode(r.Body, &q); err != nil {
			return 0, nil, err
		}

		if bypass {
			if answer, ok := s.bypass.Match(q.Question); ok {
				slog.Info("answered reserved question",
					"request_id", middleware.GetReqID(r.Context()))
				return http.StatusOK, answerResponse{Answer: answer}, nil
			}
		}

		resp, err := s.generate(r, p, study.BuildAsk(&q, defaultTemp))
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, answerResponse{Answer: resp.Text}, nil
	}
}

// handleStudy generates notes or flashcards.
func (s *Server) handleStudy(r *http.Request, p provider.Provider) (int, any, error) {
	var a study.ArtifactRequest
	if err := study.Decode(r.Body, &a); err != nil {
		return 0, nil, err
	}

	req, err := study.BuildArtifact(&a)
	if err != nil {
		return 0, nil, err
	}

	resp, err := s.generate(r, p, req)
	if err != nil {
		return 0, nil, err
	}

	if a.Mode != study.ModeFlashcards {
		return http.StatusOK, notesResponse{Notes: resp.Text}, nil
	}

	cards, err := study.ParseFlashcards(resp.Text)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, flashcardsResponse{Flashcards: cards}, nil
}

// handleReview forwards a review prompt verbatim.
func (s *Server) handleReview(r *http.Request, p provider.Provider) (int, any, error) {
	var rp study.ReviewPrompt
	if err := study.Decode(r.Body, &rp); err != nil {
		return 0, nil, err
	}

	resp, err := s.generate(r, p, study.BuildReview(&rp))
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, outputResponse{Output: resp.Text}, nil
}

// handleReviewWorkflow reviews an answer with optional question and answer
// images.
func (s *Server) handleReviewWorkflow(r *http.Request, p provider.Provider) (int, any, error) {
	var rr study.ReviewRequest
	if err := study.Decode(r.Body, &rr); err != nil {
		return 0, nil, err
	}

	resp, err := s.generate(r, p, study.BuildReviewWorkflow(&rr))
	if err != nil {
		return 0, nil, err
	}

	return http.StatusOK, workflowResponse{
		OutputText:         resp.Text,
		QuestionImageCount: len(rr.QuestionImages),
		AnswerImageCount:   len(rr.AnswerImages),
	}, nil
}
