package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/view"
)

// CreateTicketRequest payload. Body seeds the thread's first message.
type CreateTicketRequest struct {
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	Priority      string   `json:"priority"`
	AttachmentIDs []string `json:"attachment_ids"`
}

// StaffCreateTicketRequest payload for opening a ticket on a customer's
// behalf.
type StaffCreateTicketRequest struct {
	AccountID     string   `json:"account_id"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	Priority      string   `json:"priority"`
	AttachmentIDs []string `json:"attachment_ids"`
}

// ReplyRequest payload for appending to a conversation.
type ReplyRequest struct {
	Body          string   `json:"body"`
	AttachmentIDs []string `json:"attachment_ids"`
	Internal      bool     `json:"internal"`
}

// ReplyResponse carries the appended message and, when the reply moved the
// ticket, its new status so the caller can patch without a reload.
type ReplyResponse struct {
	Message   MessageResponse      `json:"message"`
	NewStatus *domain.TicketStatus `json:"new_status,omitempty"`
}

// ChangeStatusRequest payload for the staff override.
type ChangeStatusRequest struct {
	Status  domain.TicketStatus `json:"status"`
	Comment string              `json:"comment"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority string `json:"priority"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeStaffID string `json:"assignee_staff_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string                `json:"id"`
	ExternalKey     string                `json:"external_key"`
	CustomerID      string                `json:"customer_id"`
	AssigneeStaffID *string               `json:"assignee_staff_id"`
	Subject         string                `json:"subject"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides the full conversation view for one role.
type TicketDetailResponse struct {
	ID                string                `json:"id"`
	ExternalKey       string                `json:"external_key"`
	CustomerID        string                `json:"customer_id"`
	AssigneeStaffID   *string               `json:"assignee_staff_id,omitempty"`
	Subject           string                `json:"subject"`
	Status            domain.TicketStatus   `json:"status"`
	StatusLabel       string                `json:"status_label"`
	StatusColor       string                `json:"status_color"`
	Priority          domain.TicketPriority `json:"priority"`
	PriorityLabel     string                `json:"priority_label"`
	CanReply          bool                  `json:"can_reply"`
	ShowAdminControls bool                  `json:"show_admin_controls"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	ClosedAt          *time.Time            `json:"closed_at,omitempty"`
	Messages          []MessageResponse     `json:"messages"`
}

// MessageResponse represents one thread entry with its presentation hints.
type MessageResponse struct {
	ID          string                   `json:"id"`
	SenderType  domain.MessageSenderType `json:"sender_type"`
	SenderLabel string                   `json:"sender_label,omitempty"`
	Side        view.Side                `json:"side,omitempty"`
	Internal    bool                     `json:"internal"`
	Body        string                   `json:"body"`
	Attachments []AttachmentResponse     `json:"attachments"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID           string  `json:"id"`
	FileName     string  `json:"file_name"`
	MimeType     string  `json:"mime_type"`
	SizeBytes    int64   `json:"size_bytes"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
}

// UploadedFileResponse is one staged upload reference, returned in input order.
type UploadedFileResponse struct {
	ID           string     `json:"id"`
	FileName     string     `json:"file_name"`
	MimeType     string     `json:"mime_type"`
	SizeBytes    int64      `json:"size_bytes"`
	URL          string     `json:"url"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID            string                   `json:"id"`
	ChangeType    domain.TicketChangeType  `json:"change_type"`
	ChangedByType domain.MessageSenderType `json:"changed_by_type"`
	ChangedByID   *string                  `json:"changed_by_id,omitempty"`
	OldValue      map[string]any           `json:"old_value"`
	NewValue      map[string]any           `json:"new_value"`
	CreatedAt     time.Time                `json:"created_at"`
}

// StaffSummary response for the assignment picker.
type StaffSummary struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Email string           `json:"email"`
	Role  domain.StaffRole `json:"role"`
}
