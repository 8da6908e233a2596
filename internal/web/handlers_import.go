package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/document"
	"github.com/JonMunkholm/docket/internal/sealer"
)

// maxMemory is the part of a multipart form kept in memory; the rest spills
// to temporary files.
const maxMemory = 8 << 20

// handleImport runs one import. The document is the multipart "file" field;
// importDate (YYYY-MM-DD), format and dryRun are optional form fields. The
// registry key comes from the X-Docket-Key header.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, core.ErrFileTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	req := core.ImportRequest{
		FileName: header.Filename,
		Body:     file,
	}

	rawKey := strings.TrimSpace(r.Header.Get(KeyHeader))
	if rawKey == "" {
		s.respondError(w, r, core.ErrMissingKey)
		return
	}
	if req.Key, err = sealer.ParseKey(rawKey); err != nil {
		s.respondError(w, r, err)
		return
	}

	if v := r.FormValue("importDate"); v != "" {
		if req.ImportDate, err = civil.ParseDate(v); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrInvalidImportDate, v))
			return
		}
	}
	if v := r.FormValue("format"); v != "" {
		if req.Format, err = document.ParseFormat(v); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if v := r.FormValue("dryRun"); v != "" {
		if req.DryRun, err = strconv.ParseBool(v); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: dryRun=%q", core.ErrInvalidParameter, v))
			return
		}
	}

	run, err := s.service.Import(withClient(r.Context(), r), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if req.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, toResponse(run, true))
}
