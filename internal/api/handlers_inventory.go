package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidInput("id inválido")
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.InvalidInput("JSON inválido")
	}
	return nil
}

type createOltRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateOlt(w http.ResponseWriter, r *http.Request) {
	var req createOltRequest
	if err := decodeJSON(r, &req); err != nil {
		s.WriteError(w, r, err)
		return
	}
	olt, err := s.catalog.CreateOlt(r.Context(), req.Name)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, olt)
}

func (s *Server) handleListOlts(w http.ResponseWriter, r *http.Request) {
	olts, err := s.catalog.ListOlts(r.Context())
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, olts)
}

func (s *Server) handleListOltPorts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	list, err := s.catalog.ListOltPorts(r.Context(), id)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleOltSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	summary, err := s.catalog.Summary(r.Context(), id)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUpdatePort(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	var update inventory.PortUpdate
	if err := decodeJSON(r, &update); err != nil {
		s.WriteError(w, r, err)
		return
	}
	port, err := s.catalog.UpdatePort(r.Context(), id, update)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, port)
}

func (s *Server) handleListOdfs(w http.ResponseWriter, r *http.Request) {
	odfs, err := s.catalog.ListOdfs(r.Context())
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, odfs)
}

func (s *Server) handleGetOdf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	odf, err := s.catalog.GetOdf(r.Context(), id)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, odf)
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	tree, err := s.catalog.Topology(r.Context())
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tree)
}
