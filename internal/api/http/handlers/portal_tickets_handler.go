package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/view"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// PortalTicketsHandler serves the customer-facing ticket surface.
type PortalTicketsHandler struct {
	tickets      *service.TicketService
	conversation *service.ConversationService
}

// NewPortalTicketsHandler constructs handler.
func NewPortalTicketsHandler(tickets *service.TicketService, conversation *service.ConversationService) *PortalTicketsHandler {
	return &PortalTicketsHandler{tickets: tickets, conversation: conversation}
}

// CreateTicket POST /portal/tickets.
func (h *PortalTicketsHandler) CreateTicket(c *fiber.Ctx) error {
	account, err := portalAccount(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Subject:       req.Subject,
		Body:          req.Body,
		Priority:      parsePriority(req.Priority),
		AttachmentIDs: req.AttachmentIDs,
	}
	ticket, msg, err := h.tickets.CreateTicket(c.Context(), account, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"ticket":  ticketSummary(ticket),
		"message": plainMessageResponse(msg),
	}})
}

// ListTickets GET /portal/tickets.
func (h *PortalTicketsHandler) ListTickets(c *fiber.Ctx) error {
	account, err := portalAccount(c)
	if err != nil {
		return err
	}
	statuses := parseStatuses(c.Query("status"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	tickets, err := h.tickets.ListCustomerTickets(c.Context(), account, statuses, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /portal/tickets/:id.
func (h *PortalTicketsHandler) GetTicket(c *fiber.Ctx) error {
	account, err := portalAccount(c)
	if err != nil {
		return err
	}
	ticket, msgs, err := h.tickets.GetTicketForCustomer(c.Context(), account, c.Params("id"))
	if err != nil {
		return err
	}
	projection := view.Project(ticket, msgs, domain.SubjectTypeCustomer)
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, projection)})
}

// Reply POST /portal/tickets/:id/messages.
func (h *PortalTicketsHandler) Reply(c *fiber.Ctx) error {
	account, err := portalAccount(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.conversation.SubmitCustomerReply(c.Context(), account, c.Params("id"), service.ReplyInput{
		Body:          req.Body,
		AttachmentIDs: req.AttachmentIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ReplyResponse{
		Message:   plainMessageResponse(result.Message),
		NewStatus: result.TicketStatus,
	}})
}

// History GET /portal/tickets/:id/history.
func (h *PortalTicketsHandler) History(c *fiber.Ctx) error {
	account, err := portalAccount(c)
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListHistoryForCustomer(c.Context(), account, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

func portalAccount(c *fiber.Ctx) (*domain.CustomerAccount, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return nil, apperrors.NewUnauthorized("customer account required")
	}
	return principal.Account, nil
}
