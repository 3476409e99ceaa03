package domain

import "time"

// StoredObject is an uploaded file blob reference. Between upload and reply
// submission it is owned by the uploader (MessageID nil); submitting a reply
// claims it onto the created message. Unclaimed objects past ExpiresAt are
// the accepted orphan leak of the two-phase upload protocol.
type StoredObject struct {
	ID           string
	OwnerType    SubjectType
	OwnerID      string
	MessageID    *string
	Position     int
	FileName     string
	MimeType     string
	SizeBytes    int64
	URL          string
	ThumbnailURL *string
	CreatedAt    time.Time
	ExpiresAt    *time.Time
}

// Claimed reports whether the object already belongs to a message.
func (o *StoredObject) Claimed() bool {
	return o.MessageID != nil
}

// IsImageMime reports whether uploads of this MIME type carry a thumbnail.
func IsImageMime(mimeType string) bool {
	switch mimeType {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return true
	}
	return false
}
