package domain

import "testing"

func TestCanReply(t *testing.T) {
	t.Parallel()

	cases := []struct {
		subject SubjectType
		status  TicketStatus
		want    bool
	}{
		{SubjectTypeCustomer, TicketStatusOpen, true},
		{SubjectTypeCustomer, TicketStatusWaitingCustomer, true},
		{SubjectTypeCustomer, TicketStatusWaitingSupport, true},
		{SubjectTypeCustomer, TicketStatusReopened, true},
		{SubjectTypeCustomer, TicketStatusResolved, false},
		{SubjectTypeCustomer, TicketStatusClosed, false},
		{SubjectTypeStaff, TicketStatusOpen, true},
		{SubjectTypeStaff, TicketStatusWaitingCustomer, true},
		{SubjectTypeStaff, TicketStatusWaitingSupport, true},
		{SubjectTypeStaff, TicketStatusReopened, true},
		{SubjectTypeStaff, TicketStatusResolved, true},
		{SubjectTypeStaff, TicketStatusClosed, false},
	}

	for _, tc := range cases {
		if got := CanReply(tc.subject, tc.status); got != tc.want {
			t.Errorf("CanReply(%s, %s) = %v, want %v", tc.subject, tc.status, got, tc.want)
		}
	}
}

func TestReplyTransition(t *testing.T) {
	t.Parallel()

	// Customer reply while waiting on the customer hands the ball back.
	next := ReplyTransition(SubjectTypeCustomer, TicketStatusWaitingCustomer)
	if next == nil || *next != TicketStatusWaitingSupport {
		t.Fatalf("expected WAITING_SUPPORT transition, got %v", next)
	}

	// No other customer state moves.
	for _, status := range []TicketStatus{
		TicketStatusOpen, TicketStatusWaitingSupport, TicketStatusResolved,
		TicketStatusClosed, TicketStatusReopened,
	} {
		if got := ReplyTransition(SubjectTypeCustomer, status); got != nil {
			t.Errorf("ReplyTransition(CUSTOMER, %s) = %v, want nil", status, *got)
		}
	}

	// Staff replies never move the ticket; state changes are explicit only.
	for _, status := range []TicketStatus{
		TicketStatusOpen, TicketStatusWaitingCustomer, TicketStatusWaitingSupport,
		TicketStatusResolved, TicketStatusReopened,
	} {
		if got := ReplyTransition(SubjectTypeStaff, status); got != nil {
			t.Errorf("ReplyTransition(STAFF, %s) = %v, want nil", status, *got)
		}
	}
}

func TestValidStatusAndPriority(t *testing.T) {
	t.Parallel()

	for _, status := range []TicketStatus{
		TicketStatusOpen, TicketStatusWaitingCustomer, TicketStatusWaitingSupport,
		TicketStatusResolved, TicketStatusClosed, TicketStatusReopened,
	} {
		if !ValidStatus(status) {
			t.Errorf("expected %s to be valid", status)
		}
	}
	if ValidStatus("ARCHIVED") {
		t.Error("ARCHIVED should not be a valid status")
	}

	if !ValidPriority(TicketPriorityMedium) {
		t.Error("MEDIUM should be valid")
	}
	if ValidPriority("NORMAL") {
		t.Error("NORMAL is a portal alias, not a canonical priority")
	}
}

func TestStoredObjectClaimed(t *testing.T) {
	t.Parallel()

	obj := StoredObject{}
	if obj.Claimed() {
		t.Error("object without message should be unclaimed")
	}
	msgID := "m1"
	obj.MessageID = &msgID
	if !obj.Claimed() {
		t.Error("object with message should be claimed")
	}
}

func TestIsImageMime(t *testing.T) {
	t.Parallel()

	for _, mime := range []string{"image/png", "image/jpeg", "image/gif", "image/webp"} {
		if !IsImageMime(mime) {
			t.Errorf("expected %s to be an image mime", mime)
		}
	}
	for _, mime := range []string{"application/pdf", "text/plain", "image/tiff"} {
		if IsImageMime(mime) {
			t.Errorf("did not expect %s to be an image mime", mime)
		}
	}
}
