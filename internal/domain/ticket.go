package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusWaitingCustomer TicketStatus = "WAITING_CUSTOMER"
	TicketStatusWaitingSupport  TicketStatus = "WAITING_SUPPORT"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
	TicketStatusReopened        TicketStatus = "REOPENED"
)

// TicketPriority enumerates SLA urgency. MEDIUM is canonical; the portal
// surface renders and accepts it as "NORMAL".
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support conversations.
type Ticket struct {
	ID               string
	ExternalKey      string
	CustomerID       string
	CreatorAccountID string
	AssigneeStaffID  *string
	Subject          string
	Status           TicketStatus
	Priority         TicketPriority
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ClosedAt         *time.Time
}
