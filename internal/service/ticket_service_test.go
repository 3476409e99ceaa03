package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type ticketFixture struct {
	*conversationFixture
	customers *fakeCustomerRepo
	accounts  *fakeAccountRepo
	service   *TicketService
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	conv := newConversationFixture(t)
	customers := newFakeCustomerRepo()
	customers.add(domain.Customer{ID: "cust-1", Title: "Acme GmbH", Code: "ACME"})
	accounts := newFakeAccountRepo()
	account := *conv.account
	if err := accounts.Create(context.Background(), &account); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	f := &ticketFixture{conversationFixture: conv, customers: customers, accounts: accounts}
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:   conv.tickets,
		CustomerRepo: customers,
		AccountRepo:  accounts,
		Conversation: conv.service,
		HistoryRepo:  conv.history,
		Dispatcher:   conv.dispatcher,
	})
	return f
}

func TestCreateTicketSeedsThread(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, msg, err := f.service.CreateTicket(ctx, f.account, TicketCreateInput{
		Subject: "cannot log in",
		Body:    "password rejected since this morning",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %s, want MEDIUM default", ticket.Priority)
	}
	if !strings.HasPrefix(ticket.ExternalKey, "TCK-") {
		t.Errorf("external key = %s, want TCK- prefix", ticket.ExternalKey)
	}
	if msg == nil || msg.Body != "password rejected since this morning" {
		t.Fatalf("first message not seeded: %+v", msg)
	}
	if msg.SenderType != domain.SenderTypeCustomer {
		t.Errorf("first message sender = %s, want CUSTOMER", msg.SenderType)
	}

	thread, err := f.conversationFixture.service.ListMessagesForCustomer(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(thread) != 1 {
		t.Errorf("thread length = %d, want 1", len(thread))
	}

	if got := f.dispatcher.byType(events.EventTicketCreated); len(got) != 1 {
		t.Errorf("created events = %d, want 1", len(got))
	}
}

func TestCreateTicketForAccount(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, msg, err := f.service.CreateTicketForAccount(ctx, f.staff, f.account.ID, TicketCreateInput{
		Subject:  "phoned in: invoice mismatch",
		Body:     "customer reports invoice 4711 differs from the quote",
		Priority: domain.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.CustomerID != f.account.CustomerID {
		t.Errorf("customer = %s, want %s", ticket.CustomerID, f.account.CustomerID)
	}
	if ticket.CreatorAccountID != f.account.ID {
		t.Errorf("creator account = %s, want %s", ticket.CreatorAccountID, f.account.ID)
	}
	if msg.SenderType != domain.SenderTypeStaff {
		t.Errorf("first message sender = %s, want STAFF", msg.SenderType)
	}

	if _, _, err := f.service.CreateTicketForAccount(ctx, f.staff, "acct-unknown", TicketCreateInput{
		Subject: "x", Body: "y",
	}); !apperrors.HasCode(err, "NOT_FOUND") {
		t.Errorf("unknown account: got %v, want NOT_FOUND", err)
	}
}

func TestCreateTicketRejectedAttachmentLeavesNoTicket(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()

	// A stale reference, as after the staging session TTL expired.
	_, _, err := f.service.CreateTicket(ctx, f.account, TicketCreateInput{
		Subject:       "screenshots attached",
		Body:          "see attached",
		AttachmentIDs: []string{"ghost"},
	})
	if !apperrors.HasCode(err, "ATTACHMENT_NOT_FOUND") {
		t.Fatalf("got %v, want ATTACHMENT_NOT_FOUND", err)
	}

	if _, _, err := f.service.CreateTicketForAccount(ctx, f.staff, f.account.ID, TicketCreateInput{
		Subject:       "phoned in",
		Body:          "see attached",
		AttachmentIDs: []string{"ghost"},
	}); !apperrors.HasCode(err, "ATTACHMENT_NOT_FOUND") {
		t.Fatalf("staff path: got %v, want ATTACHMENT_NOT_FOUND", err)
	}

	// Neither failed create may leave an empty ticket behind for a retrying
	// caller to duplicate.
	tickets, err := f.tickets.ListWithFilter(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tickets) != 0 {
		t.Errorf("tickets after failed creates = %d, want 0", len(tickets))
	}
	if len(f.dispatcher.byType(events.EventTicketCreated)) != 0 {
		t.Error("failed create must not publish a created event")
	}
}

func TestCreateTicketValidation(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()

	if _, _, err := f.service.CreateTicket(ctx, f.account, TicketCreateInput{Body: "no subject"}); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("missing subject: got %v", err)
	}
	if _, _, err := f.service.CreateTicket(ctx, f.account, TicketCreateInput{Subject: "no body"}); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("missing body: got %v", err)
	}
	if _, _, err := f.service.CreateTicket(ctx, f.account, TicketCreateInput{
		Subject: "x", Body: "y", Priority: "WHENEVER",
	}); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("bad priority: got %v", err)
	}
}

func TestChangeStatusOverride(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, domain.TicketStatusWaitingSupport)

	// The override reaches any state from any state, including backwards.
	closed, err := f.service.ChangeStatus(ctx, f.staff, ticket.ID, domain.TicketStatusClosed, "done")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Error("closing must stamp closed_at")
	}

	reopened, err := f.service.ChangeStatus(ctx, f.staff, ticket.ID, domain.TicketStatusReopened, "customer called back")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.ClosedAt != nil {
		t.Error("reopening must clear closed_at")
	}
	if reopened.Status != domain.TicketStatusReopened {
		t.Errorf("status = %s, want REOPENED", reopened.Status)
	}

	statusEvents := f.dispatcher.byType(events.EventTicketStatusChanged)
	if len(statusEvents) != 2 {
		t.Fatalf("status events = %d, want 2", len(statusEvents))
	}
	payload := statusEvents[0].Payload.(events.TicketStatusChangedPayload)
	if payload.Implicit {
		t.Error("explicit override must not be flagged implicit")
	}
	if payload.Comment != "done" {
		t.Errorf("comment = %q, want done", payload.Comment)
	}
}

func TestChangeStatusRejectsUnknownState(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ticket := f.seedTicket(t, domain.TicketStatusOpen)

	_, err := f.service.ChangeStatus(context.Background(), f.staff, ticket.ID, "ARCHIVED", "")
	if !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("got %v, want VALIDATION_FAILED", err)
	}
}

func TestHistoryFilteredForCustomer(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()
	ticket := f.seedTicket(t, domain.TicketStatusOpen)

	if _, err := f.service.ChangeStatus(ctx, f.staff, ticket.ID, domain.TicketStatusWaitingCustomer, ""); err != nil {
		t.Fatalf("status change: %v", err)
	}
	if _, err := f.service.ChangePriority(ctx, f.staff, ticket.ID, domain.TicketPriorityUrgent); err != nil {
		t.Fatalf("priority change: %v", err)
	}

	staffEntries, err := f.service.ListHistoryForStaff(ctx, f.staff, ticket.ID, 50, 0)
	if err != nil {
		t.Fatalf("staff history: %v", err)
	}
	if len(staffEntries) != 2 {
		t.Errorf("staff entries = %d, want 2", len(staffEntries))
	}

	customerEntries, err := f.service.ListHistoryForCustomer(ctx, f.account, ticket.ID)
	if err != nil {
		t.Fatalf("customer history: %v", err)
	}
	if len(customerEntries) != 1 {
		t.Fatalf("customer entries = %d, want 1", len(customerEntries))
	}
	if customerEntries[0].ChangeType != domain.ChangeTypeStatus {
		t.Errorf("customer sees %s, want STATUS_CHANGE only", customerEntries[0].ChangeType)
	}
}

func TestGetTicketForCustomerGuardsOwnership(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()

	foreign := &domain.Ticket{
		CustomerID:       "cust-other",
		CreatorAccountID: "acct-other",
		Subject:          "not yours",
		Status:           domain.TicketStatusOpen,
		Priority:         domain.TicketPriorityMedium,
	}
	if err := f.tickets.Create(ctx, foreign); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := f.service.GetTicketForCustomer(ctx, f.account, foreign.ID); !apperrors.HasCode(err, "FORBIDDEN") {
		t.Errorf("got %v, want FORBIDDEN", err)
	}
	if _, _, err := f.service.GetTicketForCustomer(ctx, f.account, "ticket-missing"); !apperrors.HasCode(err, "NOT_FOUND") {
		t.Errorf("got %v, want NOT_FOUND", err)
	}
}

func TestListCustomerTicketsScopedToCustomer(t *testing.T) {
	t.Parallel()
	f := newTicketFixture(t)
	ctx := context.Background()

	f.seedTicket(t, domain.TicketStatusOpen)
	f.seedTicket(t, domain.TicketStatusClosed)
	foreign := &domain.Ticket{
		CustomerID: "cust-other", CreatorAccountID: "acct-other",
		Subject: "other", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow,
	}
	if err := f.tickets.Create(ctx, foreign); err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := f.service.ListCustomerTickets(ctx, f.account, nil, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("customer sees %d tickets, want 2", len(all))
	}

	open, err := f.service.ListCustomerTickets(ctx, f.account, []domain.TicketStatus{domain.TicketStatusOpen}, 50, 0)
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(open) != 1 || open[0].Status != domain.TicketStatusOpen {
		t.Errorf("filtered list wrong: %+v", open)
	}
}
