package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"scholarline/internal/domain"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/google/uuid"
)

type fakeConversationRepo struct {
	mu             sync.Mutex
	convs          map[uuid.UUID]domain.Conversation
	createErr      error
	pairMissesOnce bool
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[uuid.UUID]domain.Conversation)}
}

func (r *fakeConversationRepo) add(c domain.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convs[c.ID] = c
}

func (r *fakeConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.convs {
		if existing.StaffID == c.StaffID && existing.ApplicantID == c.ApplicantID {
			return scholarline_errors.ErrAlreadyExists
		}
	}
	r.convs[c.ID] = *c
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return domain.Conversation{}, scholarline_errors.ErrNotFound
	}
	return c, nil
}

func (r *fakeConversationRepo) FindByPair(ctx context.Context, staffID, applicantID uuid.UUID) (domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pairMissesOnce {
		r.pairMissesOnce = false
		return domain.Conversation{}, scholarline_errors.ErrNotFound
	}
	var found *domain.Conversation
	for _, c := range r.convs {
		c := c
		if c.StaffID != staffID || c.ApplicantID != applicantID {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = &c
		}
	}
	if found == nil {
		return domain.Conversation{}, scholarline_errors.ErrNotFound
	}
	return *found, nil
}

func (r *fakeConversationRepo) FindByApplicant(ctx context.Context, applicantID uuid.UUID) (domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *domain.Conversation
	for _, c := range r.convs {
		c := c
		if c.ApplicantID != applicantID {
			continue
		}
		if found == nil || c.LastMessageAt.After(found.LastMessageAt) {
			found = &c
		}
	}
	if found == nil {
		return domain.Conversation{}, scholarline_errors.ErrNotFound
	}
	return *found, nil
}

func (r *fakeConversationRepo) ListForStaff(ctx context.Context, staffID uuid.UUID, role domain.Role) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Conversation
	for _, c := range r.convs {
		if role == domain.RoleAdmin || c.StaffID == staffID {
			out = append(out, c)
		}
	}
	sortByActivity(out)
	return out, nil
}

func (r *fakeConversationRepo) ListForApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Conversation
	for _, c := range r.convs {
		if c.ApplicantID == applicantID {
			out = append(out, c)
		}
	}
	sortByActivity(out)
	return out, nil
}

func (r *fakeConversationRepo) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return scholarline_errors.ErrNotFound
	}
	c.LastMessageAt = at
	r.convs[id] = c
	return nil
}

func sortByActivity(convs []domain.Conversation) {
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
}

type fakeUserRepo struct {
	users []domain.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, scholarline_errors.ErrNotFound
}

func (r *fakeUserRepo) FirstByRole(ctx context.Context, role domain.Role) (domain.User, error) {
	var found *domain.User
	for i := range r.users {
		u := r.users[i]
		if u.Role != role {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) {
			found = &u
		}
	}
	if found == nil {
		return domain.User{}, scholarline_errors.ErrNotFound
	}
	return *found, nil
}

type fakeMessageRepo struct {
	mu          sync.Mutex
	msgs        map[uuid.UUID]domain.Message
	order       []uuid.UUID
	attachments map[uuid.UUID][]domain.Attachment
	createErr   error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		msgs:        make(map[uuid.UUID]domain.Message),
		attachments: make(map[uuid.UUID][]domain.Attachment),
	}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.msgs[m.ID] = *m
	r.order = append(r.order, m.ID)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return domain.Message{}, scholarline_errors.ErrNotFound
	}
	m.Attachments = r.attachments[id]
	return m, nil
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, id := range r.order {
		m := r.msgs[id]
		if m.ConversationID == conversationID {
			m.Attachments = r.attachments[id]
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) UpdateBody(ctx context.Context, id uuid.UUID, body string, editedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok || m.IsDeleted {
		return scholarline_errors.ErrNotFound
	}
	m.Body = body
	m.EditedAt = &editedAt
	r.msgs[id] = m
	return nil
}

func (r *fakeMessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok || m.IsDeleted {
		return scholarline_errors.ErrNotFound
	}
	m.Body = domain.DeletedMessageBody
	m.IsDeleted = true
	r.msgs[id] = m
	return nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return scholarline_errors.ErrNotFound
	}
	if m.ReadAt == nil {
		m.ReadAt = &at
		r.msgs[id] = m
	}
	return nil
}

func (r *fakeMessageRepo) MarkReadMany(ctx context.Context, ids []uuid.UUID, recipientID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		m, ok := r.msgs[id]
		if ok && m.RecipientID == recipientID && m.ReadAt == nil {
			m.ReadAt = &at
			r.msgs[id] = m
		}
	}
	return nil
}

func (r *fakeMessageRepo) MarkConversationRead(ctx context.Context, conversationID, recipientID uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.msgs {
		if m.ConversationID == conversationID && m.RecipientID == recipientID && m.ReadAt == nil {
			m.ReadAt = &at
			r.msgs[id] = m
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) UnreadMessages(ctx context.Context, recipientID uuid.UUID) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, id := range r.order {
		m := r.msgs[id]
		if m.RecipientID == recipientID && m.ReadAt == nil && !m.IsDeleted {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) UnreadByCounterparty(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, m := range r.msgs {
		if m.RecipientID == recipientID && m.ReadAt == nil && !m.IsDeleted {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

func (r *fakeMessageRepo) UnreadForConversation(ctx context.Context, conversationID, recipientID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.msgs {
		if m.ConversationID == conversationID && m.RecipientID == recipientID && m.ReadAt == nil && !m.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) CreateAttachments(ctx context.Context, attachments []domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range attachments {
		r.attachments[a.MessageID] = append(r.attachments[a.MessageID], a)
	}
	return nil
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{rows: make(map[uuid.UUID]domain.Notification)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[n.ID] = *n
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok {
		return domain.Notification{}, scholarline_errors.ErrNotFound
	}
	return n, nil
}

func (r *fakeNotificationRepo) ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.rows {
		if n.UserID == userID && n.CreatedAt.After(since) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok {
		return scholarline_errors.ErrNotFound
	}
	if !n.IsRead {
		n.IsRead = true
		n.ReadAt = &at
		r.rows[id] = n
	}
	return nil
}

func (r *fakeNotificationRepo) MarkReadMany(ctx context.Context, ids []uuid.UUID, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		n, ok := r.rows[id]
		if ok && n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			r.rows[id] = n
		}
	}
	return nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeOutboxRepo struct {
	mu   sync.Mutex
	rows []domain.OutboxEvent
}

func (r *fakeOutboxRepo) Create(ctx context.Context, e *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *e)
	return nil
}

func (r *fakeOutboxRepo) GetPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.OutboxEvent
	for _, e := range r.rows {
		if e.Status == domain.OutboxStatusPending {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeOutboxRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error  { return nil }
func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return nil
}
func (r *fakeOutboxRepo) IncrementRetry(ctx context.Context, id uuid.UUID) error { return nil }

func (r *fakeOutboxRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.rows {
		out = append(out, e.EventType)
	}
	return out
}
