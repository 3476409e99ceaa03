package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/storage"
	"github.com/spec-kit/support-desk/internal/uploads"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// UploadService implements phase one of the two-phase reply protocol: stage
// all selected files as stored objects before any reply references them.
// A batch either fully uploads or fails as a whole; there is no
// partial-success reporting.
type UploadService struct {
	objects  repository.StoredObjectRepository
	store    storage.Store
	sessions uploads.SessionStore
	ttl      time.Duration
}

// UploadDependencies bundles requirements for the service.
type UploadDependencies struct {
	StoredObjectRepo repository.StoredObjectRepository
	Store            storage.Store
	Sessions         uploads.SessionStore
	SessionTTL       time.Duration
}

// FileInput is one raw file blob in an upload batch.
type FileInput struct {
	FileName string
	MimeType string
	Content  io.Reader
}

// NewUploadService constructs the service.
func NewUploadService(deps UploadDependencies) *UploadService {
	return &UploadService{
		objects:  deps.StoredObjectRepo,
		store:    deps.Store,
		sessions: deps.Sessions,
		ttl:      deps.SessionTTL,
	}
}

// UploadFiles stores each file and returns one reference per input,
// preserving input order. On any failure the blobs already written in this
// batch are removed best-effort and a single aggregate error is returned;
// the caller retries the whole selection.
func (s *UploadService) UploadFiles(ctx context.Context, subject domain.SubjectType, ownerID string, files []FileInput) ([]domain.StoredObject, error) {
	if len(files) == 0 {
		return []domain.StoredObject{}, nil
	}

	result := make([]domain.StoredObject, 0, len(files))
	savedKeys := make([]string, 0, len(files))
	stagedIDs := make([]string, 0, len(files))

	// On failure the blobs written so far are removed and their staging
	// entries released, so nothing from the half-finished batch can be
	// attached. Leftover repo rows expire with the session TTL.
	cleanup := func() {
		for _, key := range savedKeys {
			_ = s.store.Remove(ctx, key)
		}
		if s.sessions != nil {
			for _, id := range stagedIDs {
				_ = s.sessions.Release(ctx, subject, ownerID, id)
			}
		}
	}

	for _, file := range files {
		id := uuid.NewString()
		key := id + sanitizeExt(file.FileName)
		blob, err := s.store.Save(ctx, key, file.FileName, file.MimeType, file.Content)
		if err != nil {
			cleanup()
			return nil, apperrors.NewUploadFailed(err)
		}
		savedKeys = append(savedKeys, key)

		expires := time.Now().Add(s.ttl)
		obj := domain.StoredObject{
			ID:           id,
			OwnerType:    subject,
			OwnerID:      ownerID,
			FileName:     file.FileName,
			MimeType:     file.MimeType,
			SizeBytes:    blob.SizeBytes,
			URL:          blob.URL,
			ThumbnailURL: blob.ThumbnailURL,
			ExpiresAt:    &expires,
		}
		if err := s.objects.Create(ctx, &obj); err != nil {
			cleanup()
			return nil, apperrors.NewUploadFailed(err)
		}
		if s.sessions != nil {
			if err := s.sessions.Add(ctx, subject, ownerID, obj.ID); err != nil {
				cleanup()
				return nil, apperrors.NewUploadFailed(err)
			}
			stagedIDs = append(stagedIDs, obj.ID)
		}
		result = append(result, obj)
	}

	return result, nil
}

func sanitizeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
