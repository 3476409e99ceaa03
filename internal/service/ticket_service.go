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
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// TicketService coordinates ticket creation, fetching, and the staff status
// override.
type TicketService struct {
	tickets      repository.TicketRepository
	customers    repository.CustomerRepository
	accounts     repository.AccountRepository
	conversation *ConversationService
	history      repository.TicketHistoryRepository
	dispatcher   events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CustomerRepo repository.CustomerRepository
	AccountRepo  repository.AccountRepository
	Conversation *ConversationService
	HistoryRepo  repository.TicketHistoryRepository
	Dispatcher   events.Dispatcher
}

// TicketCreateInput describes ticket creation payload. Body becomes the
// thread's first message.
type TicketCreateInput struct {
	Subject       string
	Body          string
	Priority      domain.TicketPriority
	AttachmentIDs []string
}

// TicketListFilter describes listing filters for the staff surface.
type TicketListFilter struct {
	CustomerID      *string
	AssigneeStaffID *string
	Statuses        []domain.TicketStatus
	Priorities      []domain.TicketPriority
	SearchTerm      *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	UpdatedFrom     *time.Time
	UpdatedTo       *time.Time
	Limit           int
	Offset          int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:      deps.TicketRepo,
		customers:    deps.CustomerRepo,
		accounts:     deps.AccountRepo,
		conversation: deps.Conversation,
		history:      deps.HistoryRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// CreateTicket opens a ticket on behalf of a portal account and seeds the
// thread with the opening message.
func (s *TicketService) CreateTicket(ctx context.Context, account *domain.CustomerAccount, input TicketCreateInput) (*domain.Ticket, *domain.Message, error) {
	if account == nil {
		return nil, nil, apperrors.NewUnauthorized("customer account required")
	}
	subject, priority, err := validateCreateInput(input)
	if err != nil {
		return nil, nil, err
	}
	// Attachment references are checked before the ticket row exists; a
	// rejected seed message must not strand an empty ticket.
	if _, err := s.conversation.checkAttachments(ctx, domain.SubjectTypeCustomer, account.ID, input.AttachmentIDs); err != nil {
		return nil, nil, err
	}

	ticket := &domain.Ticket{
		ExternalKey:      generateTicketKey(),
		CustomerID:       account.CustomerID,
		CreatorAccountID: account.ID,
		Subject:          subject,
		Status:           domain.TicketStatusOpen,
		Priority:         priority,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	result, err := s.conversation.SubmitCustomerReply(ctx, account, ticket.ID, ReplyInput{
		Body:          input.Body,
		AttachmentIDs: input.AttachmentIDs,
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorFor(domain.SubjectTypeCustomer, account.ID),
		Payload: events.TicketCreatedPayload{
			CustomerID: ticket.CustomerID,
			Priority:   ticket.Priority,
			Subject:    ticket.Subject,
		},
	})
	return ticket, result.Message, nil
}

// CreateTicketForAccount opens a ticket on a customer's behalf, typically
// from a phone call. The thread starts with a staff message.
func (s *TicketService) CreateTicketForAccount(ctx context.Context, staff *domain.StaffMember, accountID string, input TicketCreateInput) (*domain.Ticket, *domain.Message, error) {
	if staff == nil {
		return nil, nil, apperrors.NewUnauthorized("staff required")
	}
	subject, priority, err := validateCreateInput(input)
	if err != nil {
		return nil, nil, err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("account", map[string]any{"account_id": accountID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if _, err := s.conversation.checkAttachments(ctx, domain.SubjectTypeStaff, staff.ID, input.AttachmentIDs); err != nil {
		return nil, nil, err
	}

	ticket := &domain.Ticket{
		ExternalKey:      generateTicketKey(),
		CustomerID:       account.CustomerID,
		CreatorAccountID: account.ID,
		Subject:          subject,
		Status:           domain.TicketStatusOpen,
		Priority:         priority,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	result, err := s.conversation.SubmitStaffReply(ctx, staff, ticket.ID, ReplyInput{
		Body:          input.Body,
		AttachmentIDs: input.AttachmentIDs,
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorFor(domain.SubjectTypeStaff, staff.ID),
		Payload: events.TicketCreatedPayload{
			CustomerID: ticket.CustomerID,
			Priority:   ticket.Priority,
			Subject:    ticket.Subject,
		},
	})
	return ticket, result.Message, nil
}

func validateCreateInput(input TicketCreateInput) (string, domain.TicketPriority, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return "", "", apperrors.NewValidationError("subject required", nil)
	}
	if strings.TrimSpace(input.Body) == "" {
		return "", "", apperrors.NewValidationError("body required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return "", "", apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	return subject, priority, nil
}

// GetTicketForStaff fetches the ticket with its full thread.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, []domain.Message, error) {
	if staff == nil {
		return nil, nil, apperrors.NewUnauthorized("staff required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.conversation.ListMessagesForStaff(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// GetTicketForCustomer fetches a ticket the account's customer owns, with
// internal notes filtered out.
func (s *TicketService) GetTicketForCustomer(ctx context.Context, account *domain.CustomerAccount, ticketID string) (*domain.Ticket, []domain.Message, error) {
	if account == nil {
		return nil, nil, apperrors.NewUnauthorized("customer account required")
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.CustomerID != account.CustomerID {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	msgs, err := s.conversation.ListMessagesForCustomer(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

// ListStaffTickets returns tickets matching the staff filter.
func (s *TicketService) ListStaffTickets(ctx context.Context, staff *domain.StaffMember, filter TicketListFilter) ([]domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	repoFilter := repository.TicketFilter{
		CustomerID:      filter.CustomerID,
		AssigneeStaffID: filter.AssigneeStaffID,
		Statuses:        filter.Statuses,
		Priorities:      filter.Priorities,
		SearchTerm:      filter.SearchTerm,
		CreatedFrom:     filter.CreatedFrom,
		CreatedTo:       filter.CreatedTo,
		UpdatedFrom:     filter.UpdatedFrom,
		UpdatedTo:       filter.UpdatedTo,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListCustomerTickets returns the customer's own tickets.
func (s *TicketService) ListCustomerTickets(ctx context.Context, account *domain.CustomerAccount, statuses []domain.TicketStatus, limit, offset int) ([]domain.Ticket, error) {
	if account == nil {
		return nil, apperrors.NewUnauthorized("customer account required")
	}
	filter := repository.TicketFilter{
		CustomerID: &account.CustomerID,
		Statuses:   statuses,
		Limit:      limit,
		Offset:     offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ChangeStatus is the staff administrative override: any of the six states,
// any time, independent of the message flow. The caller re-fetches through
// the returned ticket; there is no optimistic status update.
func (s *TicketService) ChangeStatus(ctx context.Context, staff *domain.StaffMember, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	if newStatus == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ClosedAt = &now
	} else if ticket.ClosedAt != nil {
		ticket.ClosedAt = nil
	}
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, staff.ID, ticket.ID, oldStatus, newStatus, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actorFor(domain.SubjectTypeStaff, staff.ID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// ChangePriority updates ticket priority by staff.
func (s *TicketService) ChangePriority(ctx context.Context, staff *domain.StaffMember, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if !domain.ValidPriority(newPriority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": newPriority})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.history != nil {
		entry := &domain.TicketHistory{
			TicketID:      ticket.ID,
			ChangedByType: domain.SenderTypeStaff,
			ChangedByID:   &staff.ID,
			ChangeType:    domain.ChangeTypePriority,
			OldValue:      map[string]any{"priority": oldPriority},
			NewValue:      map[string]any{"priority": newPriority},
		}
		if err := s.history.Create(ctx, entry); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return ticket, nil
}

// ListHistoryForStaff returns history entries for staff.
func (s *TicketService) ListHistoryForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// ListHistoryForCustomer returns customer-safe history entries.
func (s *TicketService) ListHistoryForCustomer(ctx context.Context, account *domain.CustomerAccount, ticketID string) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
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
	entries, err := s.history.ListByTicket(ctx, ticketID, 100, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	allowed := []domain.TicketHistory{}
	for _, entry := range entries {
		if entry.ChangeType == domain.ChangeTypeStatus || entry.ChangeType == domain.ChangeTypeAssignee {
			allowed = append(allowed, entry)
		}
	}
	return allowed, nil
}

// GetCustomer resolves the customer reference shown on ticket detail.
func (s *TicketService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) recordStatusChange(ctx context.Context, staffID, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.SenderTypeStaff,
		ChangedByID:   &staffID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      map[string]any{"status": newStatus, "comment": comment},
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
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

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
