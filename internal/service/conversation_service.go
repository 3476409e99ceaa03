package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/uploads"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// ConversationService owns reply submission: gating, attachment claiming,
// and the implicit status transitions a reply can trigger.
type ConversationService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	objects    repository.StoredObjectRepository
	history    repository.TicketHistoryRepository
	sessions   uploads.SessionStore
	dispatcher events.Dispatcher
}

// ConversationDependencies bundles requirements for the service.
type ConversationDependencies struct {
	TicketRepo       repository.TicketRepository
	MessageRepo      repository.MessageRepository
	StoredObjectRepo repository.StoredObjectRepository
	HistoryRepo      repository.TicketHistoryRepository
	Sessions         uploads.SessionStore
	Dispatcher       events.Dispatcher
}

// ReplyInput describes a reply submission payload.
type ReplyInput struct {
	Body          string
	AttachmentIDs []string
	Internal      bool
}

// ReplyResult carries the created message and, when a reply triggered an
// implicit transition, the ticket's new status. The caller appends the
// message to its local thread and patches the status without a full reload.
type ReplyResult struct {
	Message      *domain.Message
	TicketStatus *domain.TicketStatus
}

// NewConversationService constructs the service.
func NewConversationService(deps ConversationDependencies) *ConversationService {
	return &ConversationService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		objects:    deps.StoredObjectRepo,
		history:    deps.HistoryRepo,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
	}
}

// SubmitCustomerReply appends a customer reply to the ticket's thread.
func (s *ConversationService) SubmitCustomerReply(ctx context.Context, account *domain.CustomerAccount, ticketID string, input ReplyInput) (*ReplyResult, error) {
	if account == nil {
		return nil, apperrors.NewUnauthorized("customer account required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != account.CustomerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	input.Internal = false
	return s.submit(ctx, domain.SubjectTypeCustomer, account.ID, ticket, input)
}

// SubmitStaffReply appends a staff reply or internal note to the thread.
func (s *ConversationService) SubmitStaffReply(ctx context.Context, staff *domain.StaffMember, ticketID string, input ReplyInput) (*ReplyResult, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, domain.SubjectTypeStaff, staff.ID, ticket, input)
}

// ListMessagesForStaff returns the full thread, oldest first.
func (s *ConversationService) ListMessagesForStaff(ctx context.Context, ticketID string) ([]domain.Message, error) {
	return s.messagesWithAttachments(ctx, ticketID)
}

// ListMessagesForCustomer returns the thread without internal notes.
func (s *ConversationService) ListMessagesForCustomer(ctx context.Context, ticketID string) ([]domain.Message, error) {
	msgs, err := s.messagesWithAttachments(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Internal {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered, nil
}

func (s *ConversationService) submit(ctx context.Context, subject domain.SubjectType, actorID string, ticket *domain.Ticket, input ReplyInput) (*ReplyResult, error) {
	if !domain.CanReply(subject, ticket.Status) {
		return nil, apperrors.NewTicketClosed(string(ticket.Status))
	}

	body := strings.TrimSpace(input.Body)
	if body == "" && len(input.AttachmentIDs) == 0 {
		return nil, apperrors.NewEmptyReply()
	}

	claimed, err := s.checkAttachments(ctx, subject, actorID, input.AttachmentIDs)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		TicketID: ticket.ID,
		Internal: input.Internal,
		Body:     body,
	}
	if subject == domain.SubjectTypeCustomer {
		msg.SenderType = domain.SenderTypeCustomer
		msg.SenderAccountID = &actorID
	} else {
		msg.SenderType = domain.SenderTypeStaff
		msg.SenderStaffID = &actorID
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	for i, obj := range claimed {
		if err := s.objects.Claim(ctx, obj.ID, msg.ID, i); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewAttachmentNotFound(obj.ID)
			}
			return nil, apperrors.MapError(err)
		}
		obj.MessageID = &msg.ID
		obj.Position = i
		msg.Attachments = append(msg.Attachments, *obj)
		if s.sessions != nil {
			_ = s.sessions.Release(ctx, subject, actorID, obj.ID)
		}
	}

	result := &ReplyResult{Message: msg}

	if next := domain.ReplyTransition(subject, ticket.Status); next != nil {
		oldStatus := ticket.Status
		ticket.Status = *next
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
		if err := s.recordStatusChange(ctx, subject, actorID, ticket.ID, oldStatus, ticket.Status); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    actorFor(subject, actorID),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
				Implicit:  true,
			},
		})
		result.TicketStatus = &ticket.Status
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Actor:    actorFor(subject, actorID),
		Payload: events.TicketMessageAddedPayload{
			MessageID:       msg.ID,
			SenderType:      msg.SenderType,
			Internal:        msg.Internal,
			AttachmentCount: len(msg.Attachments),
			BodyPreview:     stringPreview(msg.Body, 120),
		},
	})
	return result, nil
}

// checkAttachments validates every referenced upload before the message is
// created: it must exist, be unclaimed, belong to the caller, and sit in
// the caller's upload session.
func (s *ConversationService) checkAttachments(ctx context.Context, subject domain.SubjectType, actorID string, ids []string) ([]*domain.StoredObject, error) {
	claimed := make([]*domain.StoredObject, 0, len(ids))
	for _, id := range ids {
		obj, err := s.objects.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewAttachmentNotFound(id)
			}
			return nil, apperrors.MapError(err)
		}
		if obj.Claimed() || obj.OwnerType != subject || obj.OwnerID != actorID {
			return nil, apperrors.NewAttachmentNotFound(id)
		}
		if s.sessions != nil {
			ok, err := s.sessions.Contains(ctx, subject, actorID, id)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			if !ok {
				return nil, apperrors.NewAttachmentNotFound(id)
			}
		}
		claimed = append(claimed, obj)
	}
	return claimed, nil
}

func (s *ConversationService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *ConversationService) messagesWithAttachments(ctx context.Context, ticketID string) ([]domain.Message, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range msgs {
		attachments, err := s.objects.ListByMessage(ctx, msgs[i].ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		msgs[i].Attachments = attachments
	}
	return msgs, nil
}

func (s *ConversationService) recordStatusChange(ctx context.Context, subject domain.SubjectType, actorID, ticketID string, oldStatus, newStatus domain.TicketStatus) error {
	if s.history == nil {
		return nil
	}
	senderType := domain.SenderTypeCustomer
	if subject == domain.SubjectTypeStaff {
		senderType = domain.SenderTypeStaff
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: senderType,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      map[string]any{"status": newStatus, "comment": "reply_received"},
	}
	return s.history.Create(ctx, entry)
}

func (s *ConversationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(subject domain.SubjectType, id string) events.Actor {
	if subject == domain.SubjectTypeStaff {
		return events.Actor{Type: subject, StaffID: &id}
	}
	return events.Actor{Type: subject, AccountID: &id}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
