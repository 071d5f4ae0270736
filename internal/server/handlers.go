package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/buildmatrix/internal/app"
	"git.home.luguber.info/inful/buildmatrix/internal/compose"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
	"git.home.luguber.info/inful/buildmatrix/internal/render"
	"git.home.luguber.info/inful/buildmatrix/internal/version"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	CompositionID string    `json:"composition_id,omitempty"`
	ComposedAt    time.Time `json:"composed_at,omitzero"`
}

// CompositionResponse is the body of GET /composition.
type CompositionResponse struct {
	ID         string       `json:"id"`
	Project    string       `json:"project"`
	Version    string       `json:"version"`
	Source     string       `json:"source"`
	ComposedAt time.Time    `json:"composed_at"`
	Set        *compose.Set `json:"registries"`
}

// current returns the published composition or writes 503.
func (s *Server) current(w http.ResponseWriter, r *http.Request) (*app.Composition, bool) {
	comp := s.source.Current()
	if comp == nil {
		s.Error(w, r, errors.RuntimeError("no composition published yet").Build())
		return nil, false
	}
	return comp, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "starting", Version: version.Version}
	if comp := s.source.Current(); comp != nil {
		resp.Status = "healthy"
		resp.CompositionID = comp.ID
		resp.ComposedAt = comp.ComposedAt
	}
	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	s.Success(w, code, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	comp, ok := s.current(w, r)
	if !ok {
		return
	}
	page, err := render.HTML(comp.Set, comp.Summary())
	if err != nil {
		s.Error(w, r, errors.InternalError("failed to render summary").WithCause(err).Build())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleComposition(w http.ResponseWriter, r *http.Request) {
	comp, ok := s.current(w, r)
	if !ok {
		return
	}
	s.Success(w, http.StatusOK, CompositionResponse{
		ID:         comp.ID,
		Project:    comp.Config.Project.Name,
		Version:    comp.Version,
		Source:     comp.Source,
		ComposedAt: comp.ComposedAt,
		Set:        comp.Set,
	})
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		s.Success(w, http.StatusOK, comp.Set.Packages)
	}
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		writeEntry(s, w, r, "packages", comp.Set.Packages)
	}
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		s.Success(w, http.StatusOK, comp.Set.Apps)
	}
}

func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		writeEntry(s, w, r, "apps", comp.Set.Apps)
	}
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		s.Success(w, http.StatusOK, comp.Set.Checks)
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		writeEntry(s, w, r, "checks", comp.Set.Checks)
	}
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		s.Success(w, http.StatusOK, comp.Set.Default())
	}
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if comp, ok := s.current(w, r); ok {
		s.Success(w, http.StatusOK, comp.Set.Overlay)
	}
}

// writeEntry looks up the {key} URL parameter by exact match in reg.
func writeEntry[T any](s *Server, w http.ResponseWriter, r *http.Request, registry string, reg *compose.Registry[T]) {
	key := chi.URLParam(r, "key")
	entry, ok := reg.Get(key)
	if !ok {
		s.Error(w, r, errors.NotFoundError("no such entry").
			WithContext("registry", registry).
			WithContext("key", key).
			Build())
		return
	}
	s.Success(w, http.StatusOK, entry)
}
