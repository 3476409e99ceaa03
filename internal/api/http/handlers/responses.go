package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/view"
)

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              ticket.ID,
		ExternalKey:     ticket.ExternalKey,
		CustomerID:      ticket.CustomerID,
		AssigneeStaffID: ticket.AssigneeStaffID,
		Subject:         ticket.Subject,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, projection view.Projection) dto.TicketDetailResponse {
	msgs := make([]dto.MessageResponse, 0, len(projection.Messages))
	for i := range projection.Messages {
		msgs = append(msgs, messageResponse(&projection.Messages[i]))
	}
	detail := dto.TicketDetailResponse{
		ID:                ticket.ID,
		ExternalKey:       ticket.ExternalKey,
		CustomerID:        ticket.CustomerID,
		Subject:           ticket.Subject,
		Status:            projection.Status.Code,
		StatusLabel:       projection.Status.Label,
		StatusColor:       projection.Status.Color,
		Priority:          ticket.Priority,
		PriorityLabel:     projection.PriorityLabel,
		CanReply:          projection.CanReply,
		ShowAdminControls: projection.ShowAdminControls,
		CreatedAt:         ticket.CreatedAt,
		UpdatedAt:         ticket.UpdatedAt,
		ClosedAt:          ticket.ClosedAt,
		Messages:          msgs,
	}
	if projection.ShowAdminControls {
		detail.AssigneeStaffID = ticket.AssigneeStaffID
	}
	return detail
}

func messageResponse(mv *view.MessageView) dto.MessageResponse {
	msg := mv.Message
	attachments := make([]dto.AttachmentResponse, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:           att.ID,
			FileName:     att.FileName,
			MimeType:     att.MimeType,
			SizeBytes:    att.SizeBytes,
			URL:          att.URL,
			ThumbnailURL: att.ThumbnailURL,
		})
	}
	return dto.MessageResponse{
		ID:          msg.ID,
		SenderType:  msg.SenderType,
		SenderLabel: mv.SenderLabel,
		Side:        mv.Side,
		Internal:    msg.Internal,
		Body:        msg.Body,
		Attachments: attachments,
		CreatedAt:   msg.CreatedAt,
	}
}

func plainMessageResponse(msg *domain.Message) dto.MessageResponse {
	mv := view.MessageView{Message: *msg}
	return messageResponse(&mv)
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}

// parsePriority accepts canonical priority codes plus the portal's "NORMAL"
// alias for MEDIUM. Empty input maps to the default.
func parsePriority(val string) domain.TicketPriority {
	normalized := strings.ToUpper(strings.TrimSpace(val))
	if normalized == "" {
		return domain.TicketPriorityMedium
	}
	if normalized == "NORMAL" {
		return domain.TicketPriorityMedium
	}
	return domain.TicketPriority(normalized)
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseStatuses(val string) []domain.TicketStatus {
	if val == "" {
		return nil
	}
	var statuses []domain.TicketStatus
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			statuses = append(statuses, domain.TicketStatus(strings.ToUpper(trimmed)))
		}
	}
	return statuses
}
