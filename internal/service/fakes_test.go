package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/storage"
)

// In-memory repository fakes. Create methods hand out IDs and timestamps the
// way the database defaults would.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	seq     int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if ticket.ID == "" {
		ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			copied := ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
	seq      int
	base     time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{base: time.Now()}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = fmt.Sprintf("msg-%d", r.seq)
	// Strictly increasing timestamps, like the DB clock would produce.
	msg.CreatedAt = r.base.Add(time.Duration(r.seq) * time.Millisecond)
	stored := *msg
	stored.Attachments = nil
	r.messages = append(r.messages, stored)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, msg := range r.messages {
		if msg.TicketID == ticketID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeObjectRepo struct {
	mu      sync.Mutex
	objects map[string]domain.StoredObject
	created int
}

func newFakeObjectRepo() *fakeObjectRepo {
	return &fakeObjectRepo{objects: make(map[string]domain.StoredObject)}
}

func (r *fakeObjectRepo) Create(_ context.Context, obj *domain.StoredObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj.CreatedAt = time.Now()
	r.objects[obj.ID] = *obj
	r.created++
	return nil
}

func (r *fakeObjectRepo) GetByID(_ context.Context, id string) (*domain.StoredObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := obj
	return &copied, nil
}

func (r *fakeObjectRepo) Claim(_ context.Context, id, messageID string, position int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[id]
	if !ok || obj.MessageID != nil {
		return pgx.ErrNoRows
	}
	obj.MessageID = &messageID
	obj.Position = position
	obj.ExpiresAt = nil
	r.objects[id] = obj
	return nil
}

func (r *fakeObjectRepo) ListByMessage(_ context.Context, messageID string) ([]domain.StoredObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StoredObject
	for _, obj := range r.objects {
		if obj.MessageID != nil && *obj.MessageID == messageID {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.CustomerAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]domain.CustomerAccount)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account.ID == "" {
		account.ID = fmt.Sprintf("acct-%d", len(r.accounts)+1)
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *domain.CustomerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.CustomerAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := account
	return &copied, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.CustomerAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			copied := account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]domain.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[string]domain.Customer)}
}

func (r *fakeCustomerRepo) add(customer domain.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := customer
	return &copied, nil
}

func (r *fakeCustomerRepo) GetByCode(_ context.Context, code string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, customer := range r.customers {
		if customer.Code == code {
			copied := customer
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("hist-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeStaffRepo struct {
	mu    sync.Mutex
	staff map[string]domain.StaffMember
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staff: make(map[string]domain.StaffMember)}
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff, ok := r.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := staff
	return &copied, nil
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, staff := range r.staff {
		if staff.Email == email {
			copied := staff
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StaffMember
	for _, staff := range r.staff {
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		out = append(out, staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeSessions tracks upload staging membership and releases.
type fakeSessions struct {
	mu       sync.Mutex
	members  map[string]bool
	released []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{members: make(map[string]bool)}
}

func sessionKey(subject domain.SubjectType, ownerID, objectID string) string {
	return string(subject) + "|" + ownerID + "|" + objectID
}

func (s *fakeSessions) Add(_ context.Context, subject domain.SubjectType, ownerID, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[sessionKey(subject, ownerID, objectID)] = true
	return nil
}

func (s *fakeSessions) Contains(_ context.Context, subject domain.SubjectType, ownerID, objectID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[sessionKey(subject, ownerID, objectID)], nil
}

func (s *fakeSessions) Release(_ context.Context, subject domain.SubjectType, ownerID, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, sessionKey(subject, ownerID, objectID))
	s.released = append(s.released, objectID)
	return nil
}

// captureDispatcher records every published event.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// fakeBlobStore implements storage.Store with optional failure injection.
type fakeBlobStore struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	failOn  int // 1-based save call that fails; 0 disables
	calls   int
}

func (s *fakeBlobStore) Save(_ context.Context, key, fileName, mimeType string, r io.Reader) (*storage.StoredBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn > 0 && s.calls == s.failOn {
		return nil, errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.saved = append(s.saved, key)
	blob := &storage.StoredBlob{
		Key:       key,
		URL:       "http://files.test/" + key,
		SizeBytes: int64(len(data)),
	}
	if domain.IsImageMime(mimeType) {
		thumb := "http://files.test/thumb/" + key
		blob.ThumbnailURL = &thumb
	}
	return blob, nil
}

func (s *fakeBlobStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, key)
	return nil
}
