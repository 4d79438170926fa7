package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/atlantislabs/atlantis/internal/api"
	"github.com/atlantislabs/atlantis/internal/extract"
	"github.com/atlantislabs/atlantis/internal/service"
)

// maxUploadMemory is the multipart in-memory parse threshold; larger
// bodies spill to temp files.
const maxUploadMemory = 10 << 20

type IngestionService interface {
	Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error)
}

type DocumentHandler struct {
	svc IngestionService
}

func NewDocumentHandler(svc IngestionService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type UploadResponse struct {
	Status   string `json:"status"`
	Segments int    `json:"segments"`
	Ready    int    `json:"chunks_ready"`
	Pending  int    `json:"chunks_pending"`
	Note     string `json:"note,omitempty"`
}

// Upload ingests one multipart document into an existing session.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		api.Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	kind, ok := contentKind(header.Filename, header.Header.Get("Content-Type"))
	if !ok {
		api.Error(w, http.StatusBadRequest, "only PDF or plain text documents are supported")
		return
	}

	result, err := h.svc.Ingest(r.Context(), service.IngestInput{
		SessionID: sessionID,
		Filename:  header.Filename,
		Content:   content,
		Kind:      kind,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, UploadResponse{
		Status:   result.Status,
		Segments: result.Segments,
		Ready:    result.Ready,
		Pending:  result.Pending,
		Note:     result.Note,
	})
}

// contentKind resolves the document kind from the declared content type,
// falling back to the file extension.
func contentKind(filename, contentType string) (extract.ContentKind, bool) {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch mediaType {
	case "application/pdf":
		return extract.KindPDF, true
	case "text/plain", "text/markdown":
		return extract.KindPlainText, true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extract.KindPDF, true
	case ".txt", ".md", ".text":
		return extract.KindPlainText, true
	}

	return "", false
}
