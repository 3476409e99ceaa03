// Package view derives the role-specific conversation read model. Given a
// ticket, its thread, and the viewer, the projection is a pure function:
// same inputs, same output, no state of its own.
package view

import "github.com/spec-kit/support-desk/internal/domain"

// Side is the visual side a message renders on. Each role sees its own
// messages on the right and the counterpart mirrored on the left.
type Side string

const (
	SideOwn         Side = "own"
	SideCounterpart Side = "counterpart"
)

// StatusBadge is the status presentation for one role.
type StatusBadge struct {
	Code  domain.TicketStatus `json:"code"`
	Label string              `json:"label"`
	Color string              `json:"color"`
}

// MessageView wraps a message with its presentation decisions.
type MessageView struct {
	Message     domain.Message `json:"message"`
	Side        Side           `json:"side"`
	SenderLabel string         `json:"sender_label"`
}

// Projection is the full role-gated read model for a conversation.
type Projection struct {
	Status            StatusBadge   `json:"status"`
	PriorityLabel     string        `json:"priority_label"`
	CanReply          bool          `json:"can_reply"`
	ShowAdminControls bool          `json:"show_admin_controls"`
	Messages          []MessageView `json:"messages"`
}

// Project renders the conversation through the viewer's lens.
func Project(ticket *domain.Ticket, messages []domain.Message, viewer domain.SubjectType) Projection {
	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		if viewer == domain.SubjectTypeCustomer && msg.Internal {
			continue
		}
		views = append(views, MessageView{
			Message:     msg,
			Side:        sideFor(msg.SenderType, viewer),
			SenderLabel: senderLabel(msg.SenderType, viewer),
		})
	}
	return Projection{
		Status:            StatusBadgeFor(ticket.Status, viewer),
		PriorityLabel:     PriorityLabel(ticket.Priority, viewer),
		CanReply:          domain.CanReply(viewer, ticket.Status),
		ShowAdminControls: viewer == domain.SubjectTypeStaff,
		Messages:          views,
	}
}

// StatusBadgeFor maps a lifecycle state to the viewer's vocabulary. Staff
// see administrative framing; customers see the same states worded from
// their own vantage point.
func StatusBadgeFor(status domain.TicketStatus, viewer domain.SubjectType) StatusBadge {
	badge := StatusBadge{Code: status}
	switch status {
	case domain.TicketStatusOpen:
		badge.Label, badge.Color = "Open", "blue"
	case domain.TicketStatusWaitingCustomer:
		if viewer == domain.SubjectTypeCustomer {
			badge.Label = "Waiting for you"
		} else {
			badge.Label = "Waiting for customer"
		}
		badge.Color = "orange"
	case domain.TicketStatusWaitingSupport:
		badge.Label, badge.Color = "Waiting for support", "cyan"
	case domain.TicketStatusResolved:
		badge.Label, badge.Color = "Resolved", "green"
	case domain.TicketStatusClosed:
		badge.Label, badge.Color = "Closed", "gray"
	case domain.TicketStatusReopened:
		badge.Label, badge.Color = "Reopened", "red"
	default:
		badge.Label, badge.Color = string(status), "gray"
	}
	return badge
}

// PriorityLabel maps the canonical priority to the viewer's vocabulary:
// MEDIUM reads as "Normal" on the portal.
func PriorityLabel(priority domain.TicketPriority, viewer domain.SubjectType) string {
	switch priority {
	case domain.TicketPriorityLow:
		return "Low"
	case domain.TicketPriorityMedium:
		if viewer == domain.SubjectTypeCustomer {
			return "Normal"
		}
		return "Medium"
	case domain.TicketPriorityHigh:
		return "High"
	case domain.TicketPriorityUrgent:
		return "Urgent"
	}
	return string(priority)
}

func sideFor(sender domain.MessageSenderType, viewer domain.SubjectType) Side {
	ownSender := domain.SenderTypeCustomer
	if viewer == domain.SubjectTypeStaff {
		ownSender = domain.SenderTypeStaff
	}
	if sender == ownSender {
		return SideOwn
	}
	return SideCounterpart
}

func senderLabel(sender domain.MessageSenderType, viewer domain.SubjectType) string {
	if sideFor(sender, viewer) == SideOwn {
		return "You"
	}
	if sender == domain.SenderTypeStaff {
		return "Support"
	}
	return "Customer"
}
