package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	"scholarline/internal/services"
	scholarline_errors "scholarline/pkg/errors"
	"scholarline/pkg/logger"

	"github.com/google/uuid"
)

// Store is the server-side message surface a session talks to.
// *services.MessageService satisfies it.
type Store interface {
	Fetch(ctx context.Context, conversationID uuid.UUID, viewer domain.Identity) ([]domain.Message, error)
	Send(ctx context.Context, in services.SendInput) (domain.Message, error)
	Edit(ctx context.Context, messageID, editorID uuid.UUID, body string) (domain.Message, error)
	Delete(ctx context.Context, messageID, requesterID uuid.UUID) (domain.Message, error)
	MarkRead(ctx context.Context, messageID, readerID uuid.UUID) error
	MarkAllRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
}

// Binder uploads an attachment before its message is sent.
// *services.UploadService satisfies it.
type Binder interface {
	Upload(ctx context.Context, conversationID uuid.UUID, fileName, contentType string, body io.Reader) (services.UploadResult, error)
}

// FileInput is an attachment handed to Send.
type FileInput struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Session holds the per-conversation message state for one viewer:
// the ordered entry list, optimistic pending/failed rows, and the
// reconciliation of realtime events against them.
type Session struct {
	mu           sync.Mutex
	viewer       domain.Identity
	conversation domain.Conversation
	store        Store
	binder       Binder
	log          *logger.Logger

	entries []Entry
	lastErr string

	readHooks []func(ctx context.Context, conversationID, counterpartyID uuid.UUID)
}

func NewSession(conversation domain.Conversation, viewer domain.Identity, store Store, binder Binder, log *logger.Logger) *Session {
	return &Session{
		viewer:       viewer,
		conversation: conversation,
		store:        store,
		binder:       binder,
		log:          log,
	}
}

// OnConversationRead registers a hook fired after MarkAllRead succeeds,
// so unread counters can clear without a full refetch.
func (s *Session) OnConversationRead(fn func(ctx context.Context, conversationID, counterpartyID uuid.UUID)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readHooks = append(s.readHooks, fn)
}

// Fetch reloads the confirmed set from the server. Pending and failed
// local entries survive the reload; on error the prior state is kept
// untouched so the viewer still sees what they had.
func (s *Session) Fetch(ctx context.Context) error {
	msgs, err := s.store.Fetch(ctx, s.conversation.ID, s.viewer)
	if err != nil {
		s.setError("could not load messages")
		return fmt.Errorf("%w: %v", scholarline_errors.ErrFetchFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var locals []Entry
	for _, e := range s.entries {
		if e.State != StateConfirmed {
			locals = append(locals, e)
		}
	}
	next := make([]Entry, 0, len(msgs)+len(locals))
	for _, m := range msgs {
		next = append(next, Entry{LocalID: m.ID, State: StateConfirmed, Message: m})
	}
	next = append(next, locals...)
	sortEntries(next)
	s.entries = next
	return nil
}

// Send appends a pending entry immediately, then uploads the attachment
// (if any) and inserts the message. The returned id is the local
// correlation id; the entry it names ends up Confirmed or Failed.
func (s *Session) Send(ctx context.Context, body string, file *FileInput) (uuid.UUID, error) {
	localID := uuid.New()
	pending := Entry{
		LocalID: localID,
		State:   StatePending,
		Message: domain.Message{
			ID:             localID,
			ConversationID: s.conversation.ID,
			SenderID:       s.viewer.UserID,
			RecipientID:    s.conversation.Counterparty(s.viewer.UserID),
			Body:           body,
			CreatedAt:      time.Now(),
		},
	}

	s.mu.Lock()
	s.entries = append(s.entries, pending)
	s.mu.Unlock()

	in := services.SendInput{
		ConversationID: s.conversation.ID,
		SenderID:       s.viewer.UserID,
		Body:           body,
	}
	if file != nil {
		res, err := s.binder.Upload(ctx, s.conversation.ID, file.Name, file.ContentType, file.Body)
		if err != nil {
			s.fail(localID, err)
			return localID, fmt.Errorf("%w: %v", scholarline_errors.ErrSendFailed, err)
		}
		in.Attachments = append(in.Attachments, services.AttachmentInput{
			StorageKey: res.StorageKey,
			FileURL:    res.FileURL,
			FileName:   res.FileName,
		})
	}

	confirmed, err := s.store.Send(ctx, in)
	if err != nil {
		s.fail(localID, err)
		return localID, fmt.Errorf("%w: %v", scholarline_errors.ErrSendFailed, err)
	}
	s.confirm(localID, confirmed)
	return localID, nil
}

// Edit changes the body of one of the viewer's own messages.
func (s *Session) Edit(ctx context.Context, messageID uuid.UUID, body string) error {
	if err := s.checkOwn(messageID); err != nil {
		return err
	}
	updated, err := s.store.Edit(ctx, messageID, s.viewer.UserID, body)
	if err != nil {
		s.setError("could not edit message")
		return err
	}
	s.replaceByID(updated)
	return nil
}

// Delete tombstones one of the viewer's own messages. Deleting an
// already-deleted message is rejected the same as editing it.
func (s *Session) Delete(ctx context.Context, messageID uuid.UUID) error {
	if err := s.checkOwn(messageID); err != nil {
		return err
	}
	deleted, err := s.store.Delete(ctx, messageID, s.viewer.UserID)
	if err != nil {
		s.setError("could not delete message")
		return err
	}
	s.replaceByID(deleted)
	return nil
}

// MarkRead marks a single received message read. Already-read messages
// are a no-op.
func (s *Session) MarkRead(ctx context.Context, messageID uuid.UUID) error {
	s.mu.Lock()
	e := s.findConfirmed(messageID)
	if e == nil {
		s.mu.Unlock()
		return scholarline_errors.ErrNotFound
	}
	if e.Message.RecipientID != s.viewer.UserID {
		s.mu.Unlock()
		return scholarline_errors.ErrPermissionDenied
	}
	if e.Message.ReadAt != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.store.MarkRead(ctx, messageID, s.viewer.UserID); err != nil {
		return err
	}
	s.mu.Lock()
	if e := s.findConfirmed(messageID); e != nil && e.Message.ReadAt == nil {
		e.Message.ReadAt = scholarline_errors.NowPtr()
	}
	s.mu.Unlock()
	return nil
}

// MarkAllRead marks every received message in the conversation read and
// fires the registered read hooks.
func (s *Session) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, s.conversation.ID, s.viewer.UserID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	now := scholarline_errors.NowPtr()
	for i := range s.entries {
		e := &s.entries[i]
		if e.Message.RecipientID == s.viewer.UserID && e.Message.ReadAt == nil {
			e.Message.ReadAt = now
		}
	}
	hooks := make([]func(context.Context, uuid.UUID, uuid.UUID), len(s.readHooks))
	copy(hooks, s.readHooks)
	counterparty := s.conversation.Counterparty(s.viewer.UserID)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx, s.conversation.ID, counterparty)
	}
	return n, nil
}

// ApplyEvent folds a realtime envelope into the local entry list.
// Inserts for the viewer's own sends are ignored: the optimistic entry
// already covers them and Send's reconciliation settles it. Updates
// are applied regardless of sender so edits and tombstones propagate.
func (s *Session) ApplyEvent(env events.Envelope) {
	var m domain.Message
	if err := json.Unmarshal(env.Payload, &m); err != nil {
		if s.log != nil {
			s.log.Warnf("chat: dropping malformed %s event: %v", env.EventType, err)
		}
		return
	}
	if m.ConversationID != s.conversation.ID {
		return
	}

	switch env.EventType {
	case events.EventMessageCreated:
		if m.SenderID == s.viewer.UserID {
			return
		}
		s.insertIfUnknown(m)
	case events.EventMessageUpdated:
		s.replaceByID(m)
	}
}

// Entries returns a snapshot of the session's entry list.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// LastError returns the viewer-facing error banner, if any.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

func (s *Session) checkOwn(messageID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.findConfirmed(messageID)
	if e == nil {
		return scholarline_errors.ErrNotFound
	}
	if e.Message.SenderID != s.viewer.UserID {
		return scholarline_errors.ErrPermissionDenied
	}
	if e.Message.IsDeleted {
		return scholarline_errors.ErrPermissionDenied
	}
	return nil
}

func (s *Session) findConfirmed(messageID uuid.UUID) *Entry {
	for i := range s.entries {
		if s.entries[i].State == StateConfirmed && s.entries[i].Message.ID == messageID {
			return &s.entries[i]
		}
	}
	return nil
}

func (s *Session) confirm(localID uuid.UUID, msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An event for this message may have raced in before the send
	// returned; keep only the optimistic entry.
	for i := range s.entries {
		if s.entries[i].State == StateConfirmed && s.entries[i].Message.ID == msg.ID && s.entries[i].LocalID != localID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	for i := range s.entries {
		if s.entries[i].LocalID == localID {
			s.entries[i].State = StateConfirmed
			s.entries[i].Message = msg
			s.entries[i].Err = ""
			break
		}
	}
	sortEntries(s.entries)
}

func (s *Session) fail(localID uuid.UUID, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].LocalID == localID {
			s.entries[i].State = StateFailed
			s.entries[i].Err = cause.Error()
			break
		}
	}
	s.lastErr = "message could not be sent"
}

func (s *Session) replaceByID(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.findConfirmed(msg.ID); e != nil {
		e.Message = msg
	}
}

func (s *Session) insertIfUnknown(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Message.ID == msg.ID {
			return
		}
	}
	s.entries = append(s.entries, Entry{LocalID: msg.ID, State: StateConfirmed, Message: msg})
	sortEntries(s.entries)
}

func (s *Session) setError(banner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = banner
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Message.CreatedAt.Before(entries[j].Message.CreatedAt)
	})
}
