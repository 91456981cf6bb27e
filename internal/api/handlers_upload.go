package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"oltmap/internal/errors"
	"oltmap/internal/ingestion"
)

// uploadField is the multipart field holding the spreadsheet
const uploadField = "file"

// readUpload parses the uploaded spreadsheet of a multipart request
func (s *Server) readUpload(r *http.Request) (*ingestion.Dataset, error) {
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return nil, errors.New(errors.CodeFileTooLarge,
				fmt.Sprintf("Archivo demasiado grande (máximo %d MB)", s.maxFileSize>>20))
		case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
			return nil, errors.New(errors.CodeMissingFile, "No se recibió archivo")
		default:
			return nil, errors.New(errors.CodeUnreadableFile, "No se pudo leer la solicitud")
		}
	}
	defer file.Close()

	return s.reader.Parse(r.Context(), header.Filename, file)
}

// queryBool reads a boolean query parameter, returning def when absent
func queryBool(q url.Values, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.InvalidInput(fmt.Sprintf("Parámetro %s inválido: %q", name, raw))
	}
	return v, nil
}

// portReplace reports whether a port upload replaces the OLT's ports. Replacement is the
// default; replace=false or append=true switch to append mode.
func portReplace(q url.Values) (bool, error) {
	replace, err := queryBool(q, "replace", true)
	if err != nil {
		return false, err
	}
	appendMode, err := queryBool(q, "append", false)
	if err != nil {
		return false, err
	}
	return replace && !appendMode, nil
}

// mappingPlan reads replace, scope, olt and oltId from the query string
func mappingPlan(q url.Values) (ingestion.ReplacePlan, error) {
	var plan ingestion.ReplacePlan
	replace, err := queryBool(q, "replace", false)
	if err != nil {
		return plan, err
	}
	plan.Enabled = replace

	scope, ok := ingestion.ParseMappingScope(q.Get("scope"))
	if !ok {
		return plan, errors.InvalidInput(fmt.Sprintf("Scope inválido %q (all u olt)", q.Get("scope")))
	}
	plan.Scope = scope

	for _, name := range q["olt"] {
		if name = strings.TrimSpace(name); name != "" {
			plan.OltNames = append(plan.OltNames, name)
		}
	}
	for _, raw := range q["oltId"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			return plan, errors.InvalidInput(fmt.Sprintf("oltId inválido: %q", raw))
		}
		plan.OltIDs = append(plan.OltIDs, id)
	}
	return plan, nil
}

func (s *Server) handleUploadPorts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	replace, err := portReplace(r.URL.Query())
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	ds, err := s.readUpload(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	report, err := s.ingestion.ImportPorts(r.Context(), id, ds, replace)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleUploadOltPorts(w http.ResponseWriter, r *http.Request) {
	replace, err := portReplace(r.URL.Query())
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	ds, err := s.readUpload(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	report, err := s.ingestion.ImportOltPorts(r.Context(), ds, replace)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleUploadMappings(w http.ResponseWriter, r *http.Request) {
	plan, err := mappingPlan(r.URL.Query())
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	ds, err := s.readUpload(r)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	report, err := s.ingestion.ImportMappings(r.Context(), ds, plan)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleManualMapping(w http.ResponseWriter, r *http.Request) {
	var input ingestion.ManualMapping
	if err := decodeJSON(r, &input); err != nil {
		s.WriteError(w, r, err)
		return
	}
	report, err := s.ingestion.CreateManualMapping(r.Context(), input)
	if err != nil {
		s.WriteError(w, r, err)
		return
	}
	status := http.StatusCreated
	if report.InsertedCount == 0 {
		status = http.StatusUnprocessableEntity
	}
	WriteJSON(w, status, report)
}
