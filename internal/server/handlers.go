package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/siteintel/internal/model"
	"github.com/sells-group/siteintel/internal/store"
)

// analysisResponse nests extracted children under their analysis. Children
// are populated only for completed analyses.
type analysisResponse struct {
	model.Analysis
	Products []model.Product     `json:"products,omitempty"`
	Insights []model.Insight     `json:"insights,omitempty"`
	Phases   []model.PhaseRecord `json:"phases,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !validTargetURL(body.URL) {
		writeError(w, http.StatusBadRequest, "url must be a valid http(s) URL")
		return
	}

	task, err := s.analyzer.Start(r.Context(), model.Analysis{
		MerchantID: merchantFrom(r),
		Kind:       model.KindMerchant,
		URL:        body.URL,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, task.Analysis)
}

func (s *Server) handleCreateCompetitor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validTargetURL(body.URL) {
		writeError(w, http.StatusBadRequest, "url must be a valid http(s) URL")
		return
	}

	task, err := s.analyzer.Start(r.Context(), model.Analysis{
		MerchantID:     merchantFrom(r),
		Kind:           model.KindCompetitor,
		URL:            body.URL,
		CompetitorName: body.Name,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, task.Analysis)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AnalysisFilter{
		Kind:   model.AnalysisKind(q.Get("kind")),
		Status: model.AnalysisStatus(q.Get("status")),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	analyses, err := s.store.ListAnalyses(r.Context(), merchantFrom(r), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if analyses == nil {
		analyses = []model.Analysis{}
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	merchantID := merchantFrom(r)
	id := chi.URLParam(r, "id")

	analysis, err := s.store.GetAnalysis(r.Context(), merchantID, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := analysisResponse{Analysis: *analysis}
	if analysis.Status == model.StatusCompleted {
		if resp.Products, err = s.store.ListProducts(r.Context(), merchantID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		if resp.Insights, err = s.store.ListInsights(r.Context(), merchantID, id); err != nil {
			writeStoreError(w, err)
			return
		}
		if resp.Phases, err = s.store.ListPhases(r.Context(), merchantID, id); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAnalysis(r.Context(), merchantFrom(r), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CompetitorIDs []string `json:"competitor_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.analyzer.Compare(r.Context(), merchantFrom(r), chi.URLParam(r, "id"), body.CompetitorIDs)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// helpers

func validTargetURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrAccessDenied) {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	zap.L().Error("server: internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
