package domain

import "time"

// MessageSenderType indicates which side of the conversation authored a message.
type MessageSenderType string

const (
	SenderTypeCustomer MessageSenderType = "CUSTOMER"
	SenderTypeStaff    MessageSenderType = "STAFF"
)

// Message is one immutable entry in a ticket's conversation log.
// SenderAccountID and SenderStaffID are mutually exclusive, matching SenderType.
type Message struct {
	ID              string
	TicketID        string
	SenderType      MessageSenderType
	SenderAccountID *string
	SenderStaffID   *string
	Internal        bool
	Body            string
	Attachments     []StoredObject
	CreatedAt       time.Time
}
