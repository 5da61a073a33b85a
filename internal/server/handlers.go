package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"example.com/segygate/internal/report"
	"example.com/segygate/internal/rules"
	"example.com/segygate/internal/segy"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(512 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "parse multipart: %v", err)
		return
	}
	if r.MultipartForm == nil {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}
	var refs []ArtifactRef
	for _, files := range r.MultipartForm.File {
		for _, fh := range files {
			ref, err := s.saveUploadedFile(fh)
			if err != nil {
				writeError(w, http.StatusBadRequest, "save upload %s: %v", fh.Filename, err)
				return
			}
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}
	resp := struct {
		Files []ArtifactRef `json:"files"`
	}{Files: refs}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) saveUploadedFile(fh *multipart.FileHeader) (ArtifactRef, error) {
	if fh == nil {
		return ArtifactRef{}, fmt.Errorf("nil file header")
	}
	src, err := fh.Open()
	if err != nil {
		return ArtifactRef{}, err
	}
	defer src.Close()
	ext := filepath.Ext(fh.Filename)
	pattern := "upload-*"
	if ext != "" {
		pattern = fmt.Sprintf("upload-*%s", ext)
	}
	dest, err := os.CreateTemp(s.uploadsDir, pattern)
	if err != nil {
		return ArtifactRef{}, err
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		os.Remove(dest.Name())
		return ArtifactRef{}, err
	}
	dest.Close()
	art, err := s.addArtifact(dest.Name(), fh.Filename, guessContentType(fh.Filename), "upload")
	if err != nil {
		return ArtifactRef{}, err
	}
	return toRef(art), nil
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("file")
	path, err := s.resolvePath(token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "input resolve: %v", err)
		return
	}
	info, err := segy.ReadInfo(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "read file: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input            string        `json:"input"`
		CoordinateBounds *rules.Bounds `json:"coordinateBounds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: %v", err)
		return
	}
	if req.Input == "" {
		writeError(w, http.StatusBadRequest, "input required")
		return
	}
	path, err := s.resolvePath(req.Input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "input resolve: %v", err)
		return
	}
	info, err := segy.ReadInfo(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "read file: %v", err)
		return
	}
	v := &rules.Validator{CoordinateBounds: req.CoordinateBounds}
	if req.CoordinateBounds == nil {
		v.SkipCoordinateRange = true
	}
	res := v.Validate(info)

	outPath, err := s.tempPath("validation-*.json")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report temp: %v", err)
		return
	}
	if err := report.SaveValidationJSON(res, outPath); err != nil {
		writeError(w, http.StatusInternalServerError, "write report: %v", err)
		return
	}
	art, err := s.addArtifact(outPath, "validation_report.json", "application/json", "validation")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "register report: %v", err)
		return
	}
	resp := struct {
		Result   *rules.Result `json:"result"`
		Artifact ArtifactRef   `json:"artifact"`
	}{Result: res, Artifact: toRef(art)}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	art, ok := s.getArtifact(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "open artifact: %v", err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stat artifact: %v", err)
		return
	}
	if art.ContentType != "" {
		w.Header().Set("Content-Type", art.ContentType)
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
	io.Copy(w, f)
}
