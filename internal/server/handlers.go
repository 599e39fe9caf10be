package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/employer-resolve/internal/aggregate"
	"github.com/sells-group/employer-resolve/internal/monitoring"
	"github.com/sells-group/employer-resolve/internal/resolve"
	"github.com/sells-group/employer-resolve/internal/store"
)

const maxBodyBytes = 8 << 20

type normalizeRequest struct {
	Names []string `json:"names"`
}

type normalizedName struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

type similarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type similarityResponse struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	NormalizedA string  `json:"normalized_a"`
	NormalizedB string  `json:"normalized_b"`
	Score       float64 `json:"score"`
	Contains    bool    `json:"contains"`
}

type clusterRequest struct {
	Names     []string `json:"names"`
	Threshold float64  `json:"threshold,omitempty"`
	Canonical string   `json:"canonical,omitempty"`
	Top       int      `json:"top,omitempty"`
}

type clusterResponse struct {
	resolve.Clustering
	Threshold float64                  `json:"threshold"`
	Variants  []aggregate.VariantCount `json:"variants"`
}

type pairsResponse struct {
	Threshold float64        `json:"threshold"`
	Pairs     []resolve.Pair `json:"pairs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if !decode(w, r, &req) {
		return
	}
	n := s.scorer.Normalizer()
	out := make([]normalizedName, len(req.Names))
	for i, raw := range req.Names {
		out[i] = normalizedName{Raw: raw, Normalized: n.Normalize(raw)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.A) == "" || strings.TrimSpace(req.B) == "" {
		writeError(w, http.StatusBadRequest, "a and b are required")
		return
	}
	n := s.scorer.Normalizer()
	na, nb := n.Normalize(req.A), n.Normalize(req.B)
	writeJSON(w, http.StatusOK, similarityResponse{
		A:           req.A,
		B:           req.B,
		NormalizedA: na,
		NormalizedB: nb,
		Score:       s.scorer.ScoreNormalized(na, nb),
		Contains:    resolve.Contains(na, nb),
	})
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	if !decode(w, r, &req) || !s.checkNames(w, req.Names) {
		return
	}
	threshold, ok := s.threshold(w, req.Threshold)
	if !ok {
		return
	}
	canonical := req.Canonical
	if canonical == "" {
		canonical = s.cfg.Canonical
	}
	if canonical != resolve.CanonicalFirst && canonical != resolve.CanonicalLongest {
		writeError(w, http.StatusBadRequest, "canonical must be first or longest")
		return
	}

	c := resolve.NewClusterer(s.scorer, resolve.ClusterOptions{Canonical: canonical, Workers: s.cfg.Workers})
	res := c.Cluster(req.Names, threshold)
	writeJSON(w, http.StatusOK, clusterResponse{
		Clustering: res,
		Threshold:  threshold,
		Variants:   aggregate.Variants(res.Groups, req.Top),
	})
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	if !decode(w, r, &req) || !s.checkNames(w, req.Names) {
		return
	}
	threshold, ok := s.threshold(w, req.Threshold)
	if !ok {
		return
	}
	pairs := s.scorer.SimilarPairs(req.Names, threshold)
	if pairs == nil {
		pairs = []resolve.Pair{}
	}
	writeJSON(w, http.StatusOK, pairsResponse{Threshold: threshold, Pairs: pairs})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{Status: store.RunStatus(r.URL.Query().Get("status"))}
	var ok bool
	if filter.Limit, ok = intParam(w, r, "limit"); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, r, "offset"); !ok {
		return
	}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	hours, ok := intParam(w, r, "hours")
	if !ok {
		return
	}
	snap, err := monitoring.NewCollector(s.store).Collect(r.Context(), hours)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunEmployers(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	limit, ok := intParam(w, r, "limit")
	if !ok {
		return
	}
	if _, err := s.store.GetRun(r.Context(), runID); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		internalError(w, r, err)
		return
	}
	emps, err := s.store.Employers(r.Context(), runID, limit)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if emps == nil {
		emps = []aggregate.AggregateRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "employers": emps})
}

func (s *Server) checkNames(w http.ResponseWriter, names []string) bool {
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "names is required")
		return false
	}
	if s.cfg.MaxNames > 0 && len(names) > s.cfg.MaxNames {
		writeError(w, http.StatusRequestEntityTooLarge, "too many names (max "+strconv.Itoa(s.cfg.MaxNames)+")")
		return false
	}
	return true
}

// threshold applies the default and accepts percentages above 1.
func (s *Server) threshold(w http.ResponseWriter, t float64) (float64, bool) {
	if t == 0 {
		return s.cfg.Threshold, true
	}
	if t > 1 {
		t /= 100
	}
	if t <= 0 || t > 1 {
		writeError(w, http.StatusBadRequest, "threshold must be in (0, 1] or (1, 100]")
		return 0, false
	}
	return t, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("server: request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
