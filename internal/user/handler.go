package user

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"videotube/internal/apperr"
	"videotube/internal/respond"
)

const maxRegisterFormBytes = 10 << 20

type Handler struct {
	service  *Service
	uploader ImageUploader
}

// ImageUploader pushes an image source (data URI or URL) to external storage
// and returns the hosted URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

func NewHandler(service *Service, uploader ImageUploader) *Handler {
	return &Handler{service: service, uploader: uploader}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxRegisterFormBytes); err != nil {
		respond.Error(w, apperr.Validation("invalid multipart form"))
		return
	}

	input := RegisterInput{
		Username: r.FormValue("username"),
		FullName: r.FormValue("fullname"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	avatarRef, err := h.storedImageRef(r, "avatar")
	if err != nil {
		respond.Error(w, err)
		return
	}
	coverRef, err := h.storedImageRef(r, "coverImage")
	if err != nil {
		respond.Error(w, err)
		return
	}
	input.AvatarRef = avatarRef
	input.CoverImageRef = coverRef

	view, err := h.service.Register(r.Context(), input)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, "user registered successfully", view)
}

// storedImageRef resolves an uploaded form file to its stored reference.
// With an uploader configured the file content is pushed to media storage;
// otherwise the submitted filename is kept as-is. A missing file yields an
// empty reference, validated by the service.
func (h *Handler) storedImageRef(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", apperr.Validation(fmt.Sprintf("invalid %s file", field))
	}
	defer file.Close()

	if h.uploader == nil {
		return header.Filename, nil
	}

	source, err := dataURI(file, header)
	if err != nil {
		return "", apperr.Validation(fmt.Sprintf("failed to read %s file", field))
	}

	url, err := h.uploader.UploadImage(r.Context(), source)
	if err != nil {
		return "", apperr.Internal(fmt.Sprintf("failed to upload %s", field), err)
	}

	return url, nil
}

func dataURI(file multipart.File, header *multipart.FileHeader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxRegisterFormBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 || len(data) > maxRegisterFormBytes {
		return "", fmt.Errorf("file size out of range")
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", fmt.Errorf("file must be an image")
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), nil
}
