package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	"scholarline/internal/services"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu          sync.Mutex
	msgs        []domain.Message
	sendErr     error
	fetchErr    error
	sendCalls   int
	readAll     int64
	markAllHook func()
}

func (s *fakeStore) Fetch(ctx context.Context, conversationID uuid.UUID, viewer domain.Identity) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	out := make([]domain.Message, len(s.msgs))
	copy(out, s.msgs)
	return out, nil
}

func (s *fakeStore) Send(ctx context.Context, in services.SendInput) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendCalls++
	if s.sendErr != nil {
		return domain.Message{}, s.sendErr
	}
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Body:           in.Body,
		CreatedAt:      time.Now(),
	}
	s.msgs = append(s.msgs, msg)
	return msg, nil
}

func (s *fakeStore) Edit(ctx context.Context, messageID, editorID uuid.UUID, body string) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].ID == messageID {
			now := time.Now()
			s.msgs[i].Body = body
			s.msgs[i].EditedAt = &now
			return s.msgs[i], nil
		}
	}
	return domain.Message{}, scholarline_errors.ErrNotFound
}

func (s *fakeStore) Delete(ctx context.Context, messageID, requesterID uuid.UUID) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.msgs {
		if s.msgs[i].ID == messageID {
			s.msgs[i].Body = domain.DeletedMessageBody
			s.msgs[i].IsDeleted = true
			return s.msgs[i], nil
		}
	}
	return domain.Message{}, scholarline_errors.ErrNotFound
}

func (s *fakeStore) MarkRead(ctx context.Context, messageID, readerID uuid.UUID) error {
	return nil
}

func (s *fakeStore) MarkAllRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	if s.markAllHook != nil {
		s.markAllHook()
	}
	return s.readAll, nil
}

type fakeBinder struct {
	uploadErr error
	uploads   int
}

func (b *fakeBinder) Upload(ctx context.Context, conversationID uuid.UUID, fileName, contentType string, body io.Reader) (services.UploadResult, error) {
	b.uploads++
	if b.uploadErr != nil {
		return services.UploadResult{}, b.uploadErr
	}
	return services.UploadResult{
		StorageKey: "conversations/" + conversationID.String() + "/key",
		FileURL:    "https://blobs/key",
		FileName:   fileName,
	}, nil
}

type sessionFixture struct {
	session *Session
	store   *fakeStore
	binder  *fakeBinder
	viewer  domain.Identity
	other   uuid.UUID
	conv    domain.Conversation
}

func newSessionFixture() *sessionFixture {
	viewer := domain.Identity{UserID: uuid.New(), Role: domain.RoleApplicant}
	conv := domain.Conversation{ID: uuid.New(), StaffID: uuid.New(), ApplicantID: viewer.UserID}
	store := &fakeStore{}
	binder := &fakeBinder{}
	return &sessionFixture{
		session: NewSession(conv, viewer, store, binder, nil),
		store:   store,
		binder:  binder,
		viewer:  viewer,
		other:   conv.StaffID,
		conv:    conv,
	}
}

func (f *sessionFixture) incomingMessage(body string, at time.Time) domain.Message {
	return domain.Message{
		ID:             uuid.New(),
		ConversationID: f.conv.ID,
		SenderID:       f.other,
		RecipientID:    f.viewer.UserID,
		Body:           body,
		CreatedAt:      at,
	}
}

func envelope(t *testing.T, eventType string, msg domain.Message) events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(eventType, msg.ID, msg)
	require.NoError(t, err)
	return env
}

func TestSendConfirmsOptimisticEntry(t *testing.T) {
	f := newSessionFixture()

	localID, err := f.session.Send(context.Background(), "hello", nil)
	require.NoError(t, err)

	entries := f.session.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, localID, entries[0].LocalID)
	assert.Equal(t, StateConfirmed, entries[0].State)
	assert.NotEqual(t, localID, entries[0].Message.ID)
	assert.Equal(t, "hello", entries[0].Message.Body)
}

func TestSendFailureKeepsEntryInPlace(t *testing.T) {
	f := newSessionFixture()

	_, err := f.session.Send(context.Background(), "a", nil)
	require.NoError(t, err)

	f.store.sendErr = errors.New("backend down")
	failedID, err := f.session.Send(context.Background(), "b", nil)
	assert.ErrorIs(t, err, scholarline_errors.ErrSendFailed)

	entries := f.session.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Message.Body)
	assert.Equal(t, StateConfirmed, entries[0].State)
	assert.Equal(t, failedID, entries[1].LocalID)
	assert.Equal(t, StateFailed, entries[1].State)
	assert.NotEmpty(t, entries[1].Err)
	assert.NotEmpty(t, f.session.LastError())
}

func TestUploadFailureAbortsSend(t *testing.T) {
	f := newSessionFixture()
	f.binder.uploadErr = errors.New("bucket unavailable")

	_, err := f.session.Send(context.Background(), "with file", &FileInput{Name: "a.pdf"})
	assert.ErrorIs(t, err, scholarline_errors.ErrSendFailed)
	assert.Zero(t, f.store.sendCalls)

	entries := f.session.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, StateFailed, entries[0].State)
}

func TestSendWithAttachmentUploadsFirst(t *testing.T) {
	f := newSessionFixture()

	_, err := f.session.Send(context.Background(), "with file", &FileInput{Name: "Grant Letter.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.binder.uploads)
	assert.Equal(t, 1, f.store.sendCalls)
}

func TestFetchFailSoftKeepsPriorEntries(t *testing.T) {
	f := newSessionFixture()
	_, err := f.session.Send(context.Background(), "kept", nil)
	require.NoError(t, err)

	f.store.fetchErr = errors.New("timeout")
	err = f.session.Fetch(context.Background())
	assert.ErrorIs(t, err, scholarline_errors.ErrFetchFailed)

	entries := f.session.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message.Body)
	assert.NotEmpty(t, f.session.LastError())

	f.store.fetchErr = nil
	require.NoError(t, f.session.Fetch(context.Background()))
	assert.Len(t, f.session.Entries(), 1)
}

func TestFetchRetainsFailedEntries(t *testing.T) {
	f := newSessionFixture()
	f.store.sendErr = errors.New("down")
	_, err := f.session.Send(context.Background(), "stuck", nil)
	require.Error(t, err)
	f.store.sendErr = nil

	f.store.msgs = []domain.Message{f.incomingMessage("from server", time.Now().Add(-time.Minute))}
	require.NoError(t, f.session.Fetch(context.Background()))

	entries := f.session.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, StateConfirmed, entries[0].State)
	assert.Equal(t, "from server", entries[0].Message.Body)
	assert.Equal(t, StateFailed, entries[1].State)
	assert.Equal(t, "stuck", entries[1].Message.Body)
}

func TestApplyEventIgnoresOwnInsert(t *testing.T) {
	f := newSessionFixture()

	own := domain.Message{
		ID:             uuid.New(),
		ConversationID: f.conv.ID,
		SenderID:       f.viewer.UserID,
		Body:           "echo",
		CreatedAt:      time.Now(),
	}
	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, own))
	assert.Empty(t, f.session.Entries())
}

func TestApplyEventInsertsOnceInOrder(t *testing.T) {
	f := newSessionFixture()

	older := f.incomingMessage("older", time.Now().Add(-time.Hour))
	newer := f.incomingMessage("newer", time.Now())

	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, newer))
	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, older))
	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, older))

	entries := f.session.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "older", entries[0].Message.Body)
	assert.Equal(t, "newer", entries[1].Message.Body)
}

func TestApplyEventUpdateReplacesRegardlessOfSender(t *testing.T) {
	f := newSessionFixture()

	msg := f.incomingMessage("original", time.Now())
	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, msg))

	msg.Body = domain.DeletedMessageBody
	msg.IsDeleted = true
	f.session.ApplyEvent(envelope(t, events.EventMessageUpdated, msg))

	entries := f.session.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Message.IsDeleted)
	assert.Equal(t, domain.DeletedMessageBody, entries[0].Message.Body)
}

func TestApplyEventOtherConversationIgnored(t *testing.T) {
	f := newSessionFixture()

	foreign := f.incomingMessage("elsewhere", time.Now())
	foreign.ConversationID = uuid.New()
	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, foreign))
	assert.Empty(t, f.session.Entries())
}

func TestEditOnlyOwnLiveMessages(t *testing.T) {
	f := newSessionFixture()

	theirs := f.incomingMessage("theirs", time.Now())
	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, theirs))
	err := f.session.Edit(context.Background(), theirs.ID, "mine now")
	assert.ErrorIs(t, err, scholarline_errors.ErrPermissionDenied)

	_, err = f.session.Send(context.Background(), "mine", nil)
	require.NoError(t, err)
	mine := f.session.Entries()[1].Message

	require.NoError(t, f.session.Edit(context.Background(), mine.ID, "mine, edited"))
	assert.Equal(t, "mine, edited", f.session.Entries()[1].Message.Body)

	require.NoError(t, f.session.Delete(context.Background(), mine.ID))
	err = f.session.Edit(context.Background(), mine.ID, "too late")
	assert.ErrorIs(t, err, scholarline_errors.ErrPermissionDenied)
}

func TestMarkAllReadFiresHooks(t *testing.T) {
	f := newSessionFixture()
	f.store.readAll = 3

	var gotConv, gotCounterparty uuid.UUID
	f.session.OnConversationRead(func(ctx context.Context, conversationID, counterpartyID uuid.UUID) {
		gotConv = conversationID
		gotCounterparty = counterpartyID
	})

	incoming := f.incomingMessage("unread", time.Now())
	f.session.ApplyEvent(envelope(t, events.EventMessageCreated, incoming))

	n, err := f.session.MarkAllRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, f.conv.ID, gotConv)
	assert.Equal(t, f.other, gotCounterparty)
	assert.NotNil(t, f.session.Entries()[0].Message.ReadAt)
}
