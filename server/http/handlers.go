package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/w-h-a/shebot/ingest"
	"github.com/w-h-a/shebot/knowledge"
	"github.com/w-h-a/shebot/pipeline"
	getsafe "github.com/w-h-a/shebot/util/get_safe"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *httpServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	req := pipeline.Request{
		Query:    getsafe.String(payload, "query"),
		UserLang: getsafe.String(payload, "user_lang"),
		TopK:     int(getsafe.Float64(payload, "top_k")),
		Client:   ClientIdentifier(r),
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	rsp, err := s.pipeline.Handle(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrRateLimited):
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited", Message: "Too many requests"})
		case errors.Is(err, pipeline.ErrEmptyQuery):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "query is required"})
		default:
			s.options.Logger.Error("query failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "generation_failure", Message: "failed to answer query"})
		}
		return
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (s *httpServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "expected multipart upload"})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "no files uploaded"})
		return
	}

	var records []knowledge.Record
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "failed to read upload"})
			return
		}

		chunks, err := ingest.ChunkDocument(header.Filename, f)
		f.Close()
		if err != nil {
			s.options.Logger.Error("failed to chunk document", zap.String("file", header.Filename), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "failed to parse upload"})
			return
		}

		records = append(records, chunks...)
	}

	ctx, cancel := context.WithTimeout(r.Context(), ingestTimeout)
	defer cancel()

	if err := s.kb.Add(ctx, records); err != nil {
		s.options.Logger.Error("failed to index documents", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "failed to index documents"})
		return
	}

	lang := r.FormValue("user_lang")
	if lang == "" {
		lang = "en"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  fmt.Sprintf("%d documents indexed successfully", len(files)),
		"language": lang,
	})
}

func (s *httpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
