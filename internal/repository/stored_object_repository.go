package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StoredObjectRepository persists uploaded blob references. A row with a nil
// ticket_message_id is an uploaded-but-unclaimed object.
type StoredObjectRepository interface {
	Create(ctx context.Context, obj *domain.StoredObject) error
	GetByID(ctx context.Context, id string) (*domain.StoredObject, error)
	Claim(ctx context.Context, id, messageID string, position int) error
	ListByMessage(ctx context.Context, messageID string) ([]domain.StoredObject, error)
}

type storedObjectRepository struct {
	pool *pgxpool.Pool
}

// NewStoredObjectRepository constructs repository.
func NewStoredObjectRepository(pool *pgxpool.Pool) StoredObjectRepository {
	return &storedObjectRepository{pool: pool}
}

func (r *storedObjectRepository) Create(ctx context.Context, obj *domain.StoredObject) error {
	const query = `
        INSERT INTO stored_objects (id, owner_type, owner_id, file_name, mime_type, size_bytes, url, thumbnail_url, expires_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		obj.ID,
		obj.OwnerType,
		obj.OwnerID,
		obj.FileName,
		obj.MimeType,
		obj.SizeBytes,
		obj.URL,
		obj.ThumbnailURL,
		obj.ExpiresAt,
	).Scan(&obj.CreatedAt)
}

func (r *storedObjectRepository) GetByID(ctx context.Context, id string) (*domain.StoredObject, error) {
	const query = `
        SELECT id, owner_type, owner_id, ticket_message_id, position, file_name, mime_type, size_bytes, url, thumbnail_url, created_at, expires_at
        FROM stored_objects WHERE id=$1`
	var obj domain.StoredObject
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&obj.ID,
		&obj.OwnerType,
		&obj.OwnerID,
		&obj.MessageID,
		&obj.Position,
		&obj.FileName,
		&obj.MimeType,
		&obj.SizeBytes,
		&obj.URL,
		&obj.ThumbnailURL,
		&obj.CreatedAt,
		&obj.ExpiresAt,
	); err != nil {
		return nil, err
	}
	return &obj, nil
}

// Claim binds an unclaimed object to a message at the given thread position.
// The WHERE guard keeps claims single-shot.
func (r *storedObjectRepository) Claim(ctx context.Context, id, messageID string, position int) error {
	const query = `
        UPDATE stored_objects SET ticket_message_id=$1, position=$2, expires_at=NULL
        WHERE id=$3 AND ticket_message_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, messageID, position, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *storedObjectRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.StoredObject, error) {
	const query = `
        SELECT id, owner_type, owner_id, ticket_message_id, position, file_name, mime_type, size_bytes, url, thumbnail_url, created_at, expires_at
        FROM stored_objects WHERE ticket_message_id=$1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StoredObject
	for rows.Next() {
		var obj domain.StoredObject
		if err := rows.Scan(
			&obj.ID,
			&obj.OwnerType,
			&obj.OwnerID,
			&obj.MessageID,
			&obj.Position,
			&obj.FileName,
			&obj.MimeType,
			&obj.SizeBytes,
			&obj.URL,
			&obj.ThumbnailURL,
			&obj.CreatedAt,
			&obj.ExpiresAt,
		); err != nil {
			return nil, err
		}
		result = append(result, obj)
	}
	return result, rows.Err()
}
