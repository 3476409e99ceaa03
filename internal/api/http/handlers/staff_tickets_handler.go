package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/view"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// StaffTicketsHandler serves the internal console surface.
type StaffTicketsHandler struct {
	tickets      *service.TicketService
	conversation *service.ConversationService
	assignment   *service.AssignmentService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(tickets *service.TicketService, conversation *service.ConversationService, assignment *service.AssignmentService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets, conversation: conversation, assignment: assignment}
}

// CreateTicket POST /staff/tickets. Opens a ticket on a customer's behalf.
func (h *StaffTicketsHandler) CreateTicket(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.AccountID) == "" {
		return apperrors.NewValidationError("account_id required", nil)
	}

	input := service.TicketCreateInput{
		Subject:       req.Subject,
		Body:          req.Body,
		Priority:      parsePriority(req.Priority),
		AttachmentIDs: req.AttachmentIDs,
	}
	ticket, msg, err := h.tickets.CreateTicketForAccount(c.Context(), staff, req.AccountID, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"ticket":  ticketSummary(ticket),
		"message": plainMessageResponse(msg),
	}})
}

// ListTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListTickets(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	filter := parseStaffTicketQuery(c)
	tickets, err := h.tickets.ListStaffTickets(c.Context(), staff, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetTicket(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	ticket, msgs, err := h.tickets.GetTicketForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	projection := view.Project(ticket, msgs, domain.SubjectTypeStaff)
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, projection)})
}

// Reply POST /staff/tickets/:id/messages.
func (h *StaffTicketsHandler) Reply(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.conversation.SubmitStaffReply(c.Context(), staff, c.Params("id"), service.ReplyInput{
		Body:          req.Body,
		AttachmentIDs: req.AttachmentIDs,
		Internal:      req.Internal,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ReplyResponse{
		Message:   plainMessageResponse(result.Message),
		NewStatus: result.TicketStatus,
	}})
}

// ChangeStatus POST /staff/tickets/:id/status.
func (h *StaffTicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.ChangeStatus(c.Context(), staff, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ChangePriority POST /staff/tickets/:id/priority.
func (h *StaffTicketsHandler) ChangePriority(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.ChangePriority(c.Context(), staff, c.Params("id"), parsePriority(req.Priority))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Assign POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.AssigneeStaffID) == "" {
		return apperrors.NewValidationError("assignee_staff_id required", nil)
	}
	ticket, err := h.assignment.Assign(c.Context(), staff, c.Params("id"), req.AssigneeStaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// History GET /staff/tickets/:id/history.
func (h *StaffTicketsHandler) History(c *fiber.Ctx) error {
	staff, err := staffMember(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	entries, err := h.tickets.ListHistoryForStaff(c.Context(), staff, c.Params("id"), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// ListStaff GET /staff/members. Feeds the assignment picker.
func (h *StaffTicketsHandler) ListStaff(c *fiber.Ctx) error {
	if _, err := staffMember(c); err != nil {
		return err
	}
	members, err := h.assignment.ListStaff(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.StaffSummary, 0, len(members))
	for _, member := range members {
		items = append(items, dto.StaffSummary{
			ID:    member.ID,
			Name:  member.Name,
			Email: member.Email,
			Role:  member.Role,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseStaffTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	filter.Statuses = parseStatuses(c.Query("status"))
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				filter.Priorities = append(filter.Priorities, parsePriority(trimmed))
			}
		}
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}
	if assigneeID := c.Query("assignee_staff_id"); assigneeID != "" {
		filter.AssigneeStaffID = &assigneeID
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.UpdatedFrom = parseTime(c.Query("updated_from"))
	filter.UpdatedTo = parseTime(c.Query("updated_to"))

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func staffMember(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	return principal.Staff, nil
}
