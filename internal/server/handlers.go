package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/models"
	"github.com/hyperjump/clausegate/internal/pipeline"
)

// maxBodyBytes caps request bodies; questions and debug answers are short.
const maxBodyBytes = 1 << 20

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.pipeline.Run(r.Context(), req)
	switch {
	case errors.Is(err, pipeline.ErrBoundary) && resp != nil:
		s.respondJSON(w, http.StatusBadGateway, resp)
	case err != nil:
		if r.Context().Err() != nil {
			s.logger.Debug("query abandoned by client", zap.Error(err))
			return
		}
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "query could not be completed")
	default:
		s.respondJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleDebugRetrieval(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	dbg, err := s.pipeline.Retrieve(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("debug retrieval failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, dbg)
}

func (s *Server) handleDebugFaithfulness(w http.ResponseWriter, r *http.Request) {
	var req models.FaithfulnessRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	verdict, err := s.pipeline.Verify(r.Context(), req.Question, req.Answer)
	if err != nil {
		s.logger.Error("debug faithfulness failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	records, err := s.pipeline.AuditLogs(r.Context())
	if err != nil {
		s.logger.Error("reading audit log failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []models.AuditRecord{}
	}
	s.respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.respondError(w, http.StatusNotImplemented, "status not available")
		return
	}
	st, err := s.status(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
