package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AssignmentService binds tickets to staff handlers. Assignment is an
// administrative bookkeeping action: it works in any lifecycle state,
// including CLOSED, and reassignment is last-writer-wins with no unassign.
type AssignmentService struct {
	tickets    repository.TicketRepository
	staff      repository.StaffRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	StaffRepo   repository.StaffRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		staff:      deps.StaffRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Assign sets the ticket's handler, overwriting any previous assignment.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.StaffMember, ticketID, assigneeStaffID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	assignee, err := s.staff.GetByID(ctx, assigneeStaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": assigneeStaffID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"staff_id": assigneeStaffID})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	oldAssignee := ticket.AssigneeStaffID
	ticket.AssigneeStaffID = &assignee.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, actor.ID, ticket.ID, oldAssignee, ticket.AssigneeStaffID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, actor.ID, ticket.ID, assignee.ID, oldAssignee)
	return ticket, nil
}

// ListStaff returns active staff for the assignment picker.
func (s *AssignmentService) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	active := true
	staff, err := s.staff.List(ctx, repository.StaffFilter{Active: &active, Limit: 500})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *AssignmentService) recordAssigneeChange(ctx context.Context, actorID, ticketID string, oldAssignee, newAssignee *string) error {
	if s.history == nil {
		return nil
	}
	return s.history.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: domain.SenderTypeStaff,
		ChangedByID:   &actorID,
		ChangeType:    domain.ChangeTypeAssignee,
		OldValue:      map[string]any{"assignee_staff_id": oldAssignee},
		NewValue:      map[string]any{"assignee_staff_id": newAssignee},
	})
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, actorID, ticketID, assigneeID string, previous *string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticketID,
		Actor:     events.Actor{Type: domain.SubjectTypeStaff, StaffID: &actorID},
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AssigneeStaffID:  assigneeID,
			PreviousAssignee: previous,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
