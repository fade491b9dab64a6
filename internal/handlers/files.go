package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/life-master/apiserver/internal/services"
	"github.com/life-master/apiserver/internal/store"
	"github.com/life-master/apiserver/types"
)

const maxMultipartMemory = 8 << 20

// FileHandler serves file-attachment endpoints: upload, download, listing
// by owning resource and deletion.
type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// FileRouter registers file routes on the given router.
func FileRouter(r chi.Router, handler *FileHandler) {
	r.Post("/upload", handler.Upload)
	r.Get("/download/{fileID}", handler.Download)
	r.Get("/entity/{entityType}/{entityID}", handler.ListByEntity)
	r.Delete("/{fileID}", handler.Delete)
}

// Upload binds a multipart payload to one of the caller's resources.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	entityType := strings.TrimSpace(r.FormValue("entityType"))
	if entityType == "" {
		writeError(w, http.StatusBadRequest, "entityType is required")
		return
	}

	entityID, err := formID(r, "entityId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upload, err := parseUploadFile(r.MultipartForm, h.fileService.MaxBytes())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.fileService.Upload(r.Context(), ownerID, entityType, entityID, upload)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownEntityType):
			writeError(w, http.StatusBadRequest, "unknown entity type")
		case errors.Is(err, services.ErrFileTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "resource not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to store file")
		}
		return
	}

	writeJSON(w, http.StatusCreated, file)
}

// Download streams the payload with its stored content type and an
// attachment disposition.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileID, err := pathID(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, reader, err := h.fileService.Download(r.Context(), ownerID, fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.SizeBytes))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

// ListByEntity lists the caller's attachments bound to one resource.
func (h *FileHandler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entityID, err := pathID(r, "entityID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	files, err := h.fileService.ListByEntity(r.Context(), ownerID, chi.URLParam(r, "entityType"), entityID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownEntityType):
			writeError(w, http.StatusBadRequest, "unknown entity type")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "resource not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to list files")
		}
		return
	}

	if files == nil {
		files = []types.FileAttachment{}
	}
	writeJSON(w, http.StatusOK, files)
}

// Delete removes an attachment and its payload.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileID, err := pathID(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.fileService.Delete(r.Context(), ownerID, fileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted successfully"})
}

func formID(r *http.Request, field string) (int64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", field)
	}
	return id, nil
}

func parseUploadFile(form *multipart.Form, limit int64) (services.Upload, error) {
	if form == nil {
		return services.Upload{}, errors.New("missing form data")
	}

	files := form.File["file"]
	if len(files) == 0 {
		return services.Upload{}, errors.New("file is required")
	}
	if len(files) > 1 {
		return services.Upload{}, errors.New("only one file is allowed")
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return services.Upload{}, errors.New("failed to read upload")
	}

	data, err := readFileLimited(file, limit)
	_ = file.Close()
	if err != nil {
		return services.Upload{}, errors.New("failed to read upload")
	}

	return services.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// readFileLimited caps how much of the payload is buffered without judging
// the size itself. An over-limit payload comes back one byte past the limit
// so the service can reject it in its own validation order.
func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(reader, limit+1))
}
