package domain

// ValidStatus reports whether s is one of the six lifecycle states.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusWaitingCustomer, TicketStatusWaitingSupport,
		TicketStatusResolved, TicketStatusClosed, TicketStatusReopened:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// CanReply applies the reply-gating rule. Staff may reply unless the ticket
// is CLOSED; customers are additionally locked out of RESOLVED tickets.
func CanReply(subject SubjectType, status TicketStatus) bool {
	if status == TicketStatusClosed {
		return false
	}
	if subject == SubjectTypeCustomer && status == TicketStatusResolved {
		return false
	}
	return true
}

// ReplyTransition returns the implicit status transition triggered by a
// reply, or nil when the status stays put. Only customer replies move the
// ticket: a reply while WAITING_CUSTOMER hands the ball back to support.
// Staff signal state exclusively through the explicit status override.
func ReplyTransition(subject SubjectType, status TicketStatus) *TicketStatus {
	if subject != SubjectTypeCustomer {
		return nil
	}
	if status == TicketStatusWaitingCustomer {
		next := TicketStatusWaitingSupport
		return &next
	}
	return nil
}
