package handlers

import (
	"testing"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestParsePriority(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want domain.TicketPriority
	}{
		{"", domain.TicketPriorityMedium},
		{"NORMAL", domain.TicketPriorityMedium},
		{"normal", domain.TicketPriorityMedium},
		{" medium ", domain.TicketPriorityMedium},
		{"LOW", domain.TicketPriorityLow},
		{"urgent", domain.TicketPriorityUrgent},
		{"WHENEVER", domain.TicketPriority("WHENEVER")},
	}
	for _, tc := range cases {
		if got := parsePriority(tc.in); got != tc.want {
			t.Errorf("parsePriority(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseStatuses(t *testing.T) {
	t.Parallel()

	statuses := parseStatuses("open, waiting_customer ,CLOSED,")
	if len(statuses) != 3 {
		t.Fatalf("statuses = %v", statuses)
	}
	want := []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusWaitingCustomer,
		domain.TicketStatusClosed,
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("status %d = %s, want %s", i, statuses[i], want[i])
		}
	}

	if parseStatuses("") != nil {
		t.Error("empty query should yield nil")
	}
}

func TestParseInt(t *testing.T) {
	t.Parallel()

	if got := parseInt("", 20); got != 20 {
		t.Errorf("default = %d", got)
	}
	if got := parseInt("7", 20); got != 7 {
		t.Errorf("parsed = %d", got)
	}
	if got := parseInt("-3", 20); got != 20 {
		t.Errorf("negative should fall back, got %d", got)
	}
	if got := parseInt("abc", 20); got != 20 {
		t.Errorf("garbage should fall back, got %d", got)
	}
}
