package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/msavelyev/stocklive/internal/api"
	"github.com/msavelyev/stocklive/internal/common"
)

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req api.InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	id, err := s.records.Insert(r.Context(), userIDFrom(r.Context()), req.Record)
	if err != nil {
		s.log.Error(r.Context(), "insert failed", "err", err)
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.InsertResponse{ID: id})
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	var patch api.RecordPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	err := s.records.Patch(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeRecordError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.records.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeRecordError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRecordError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrNotFound) {
		writeError(w, http.StatusNotFound, api.CodeNotFound, "record not found")
		return
	}
	writeError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
}
