package domain

import "time"

// Customer is the business entity a ticket belongs to.
type Customer struct {
	ID             string
	Title          string
	Code           string
	Classification string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccountStatus represents lifecycle states for a portal login.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// CustomerAccount is a person who signs into the portal on behalf of a customer.
type CustomerAccount struct {
	ID           string
	CustomerID   string
	Name         string
	Email        string
	PasswordHash string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
