package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/twinproxy/internal/cache"
	"github.com/nerrad567/twinproxy/internal/journal"
)

// healthCheckTimeout bounds each component probe during a health request.
const healthCheckTimeout = 5 * time.Second

// healthResponse is the body for GET /api/v1/health.
type healthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// handleHealth reports overall and per-component health. The endpoint
// returns 503 when any component probe fails, so load balancers can
// act on it directly.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(s.checks))
	healthy := true

	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check.HealthCheck(ctx)
		cancel()

		if err != nil {
			components[name] = err.Error()
			healthy = false
		} else {
			components[name] = "ok"
		}
	}

	resp := healthResponse{
		Status:     "ok",
		Version:    s.version,
		Components: components,
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// cacheStatsResponse is the body for GET /api/v1/cache/stats.
type cacheStatsResponse struct {
	Stores []cache.Stats `json:"stores"`
}

// handleCacheStats returns counters for every resolver store.
func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	stores := append(s.devices.CacheStats(), s.spaces.CacheStats()...)
	writeJSON(w, http.StatusOK, cacheStatsResponse{Stores: stores})
}

// cacheEvictRequest is the body for POST /api/v1/cache/evict.
// Exactly one of name or id must be set.
type cacheEvictRequest struct {
	Kind string `json:"kind"` // "device" or "space"
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// cacheEvictResponse reports whether anything was cached.
type cacheEvictResponse struct {
	Evicted bool `json:"evicted"`
}

// handleCacheEvict evicts all cache entries for a single entity.
func (s *Server) handleCacheEvict(w http.ResponseWriter, r *http.Request) {
	var req cacheEvictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if (req.Name == "") == (req.ID == "") {
		writeBadRequest(w, "exactly one of name or id is required")
		return
	}

	var evicted bool
	switch req.Kind {
	case "device":
		if req.ID != "" {
			evicted = s.devices.Invalidate(req.ID)
		} else {
			evicted = s.devices.InvalidateByName(req.Name)
		}
	case "space":
		if req.ID != "" {
			evicted = s.spaces.Invalidate(req.ID)
		} else {
			evicted = s.spaces.InvalidateByName(req.Name)
		}
	default:
		writeBadRequest(w, `kind must be "device" or "space"`)
		return
	}

	s.logger.Info("manual cache eviction",
		"kind", req.Kind, "name", req.Name, "id", req.ID, "evicted", evicted)

	writeJSON(w, http.StatusOK, cacheEvictResponse{Evicted: evicted})
}

// handleJournal lists processed change events, most recent first.
//
// Query parameters: entity_type, access_type, entity_id, limit, offset.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeNotFound(w, "journal is disabled")
		return
	}

	query := r.URL.Query()
	filter := journal.Filter{
		EntityType: query.Get("entity_type"),
		AccessType: query.Get("access_type"),
		EntityID:   query.Get("entity_id"),
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing journal entries", "error", err)
		writeInternalError(w, "failed to list journal entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
