package handlers

import (
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/storage"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// UploadsHandler implements the staging phase of the reply protocol and
// serves stored blobs back out.
type UploadsHandler struct {
	uploads *service.UploadService
	store   *storage.LocalStore
	maxSize int64
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(uploads *service.UploadService, store *storage.LocalStore, maxSize int64) *UploadsHandler {
	return &UploadsHandler{uploads: uploads, store: store, maxSize: maxSize}
}

// Upload POST /uploads. Accepts a multipart batch under the "files" field and
// returns one reference per file in input order. The batch is atomic: any
// failing file fails the whole request.
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	subject, ownerID, err := uploadOwner(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return apperrors.NewValidationError("no files provided", nil)
	}

	for _, header := range headers {
		if h.maxSize > 0 && header.Size > h.maxSize {
			return apperrors.NewValidationError("file too large", map[string]any{
				"file_name": header.Filename,
				"max_bytes": h.maxSize,
			})
		}
	}

	inputs := make([]service.FileInput, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return apperrors.NewUploadFailed(err)
		}
		opened = append(opened, f)
		inputs = append(inputs, service.FileInput{
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Content:  f,
		})
	}

	objects, err := h.uploads.UploadFiles(c.Context(), subject, ownerID, inputs)
	if err != nil {
		return err
	}

	items := make([]dto.UploadedFileResponse, 0, len(objects))
	for _, obj := range objects {
		items = append(items, dto.UploadedFileResponse{
			ID:           obj.ID,
			FileName:     obj.FileName,
			MimeType:     obj.MimeType,
			SizeBytes:    obj.SizeBytes,
			URL:          obj.URL,
			ThumbnailURL: obj.ThumbnailURL,
			ExpiresAt:    obj.ExpiresAt,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": items})
}

// ServeFile GET /files/:key.
func (h *UploadsHandler) ServeFile(c *fiber.Ctx) error {
	key, err := blobKey(c.Params("key"))
	if err != nil {
		return err
	}
	return c.SendFile(h.store.FilePath(key))
}

// ServeThumbnail GET /files/thumb/:key. Thumbnail rendering is not wired;
// the original blob stands in so thumbnail URLs always resolve.
func (h *UploadsHandler) ServeThumbnail(c *fiber.Ctx) error {
	key, err := blobKey(c.Params("key"))
	if err != nil {
		return err
	}
	return c.SendFile(h.store.FilePath(key))
}

// blobKey validates a key from the URL before it reaches the filesystem.
// Legitimate keys are uuid plus extension; path separators and dot-dot
// never appear in them.
func blobKey(raw string) (string, error) {
	if raw == "" || strings.ContainsAny(raw, `/\`) || strings.Contains(raw, "..") {
		return "", apperrors.NewNotFound("file", nil)
	}
	return raw, nil
}

func uploadOwner(c *fiber.Ctx) (domain.SubjectType, string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", "", apperrors.NewUnauthorized("authentication required")
	}
	switch {
	case principal.Account != nil:
		return domain.SubjectTypeCustomer, principal.Account.ID, nil
	case principal.Staff != nil:
		return domain.SubjectTypeStaff, principal.Staff.ID, nil
	}
	return "", "", apperrors.NewUnauthorized("unknown subject")
}
