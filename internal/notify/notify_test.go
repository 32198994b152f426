package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"yardcraft/internal/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (r *recorder) Progress(ctx context.Context, ev domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Completed(context.Context, domain.Account, *domain.RedesignRecord) {}

func (r *recorder) LimitReached(context.Context, domain.Account, domain.LimitStatus) {}

func (r *recorder) Events() []domain.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ProgressEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}
	m.Progress(context.Background(), domain.ProgressEvent{State: "generating"})
	m.Progress(context.Background(), domain.ProgressEvent{State: "retrying"})

	require.Len(t, a.Events(), 2)
	require.Len(t, b.Events(), 2)
	assert.Equal(t, "retrying", b.Events()[1].State)
}

func TestLogNotifierWritesState(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))
	n.Progress(context.Background(), domain.ProgressEvent{RequestID: "r1", State: "retrying", Attempt: 2, MaxAttempts: 2, Message: "Retry 1 of 1"})
	assert.Contains(t, buf.String(), `"state":"retrying"`)
	assert.Contains(t, buf.String(), `"message":"Retry 1 of 1"`)
}

type capture struct {
	mu   sync.Mutex
	msgs []*gomail.Message
	err  error
}

func (c *capture) send(m *gomail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	return c.err
}

func TestMailerCompleted(t *testing.T) {
	c := &capture{}
	m := NewMailer(MailConfig{FromEmail: "no-reply@yardcraft.app", AppURL: "https://yardcraft.app/"}, zerolog.Nop())
	m.send = c.send

	m.Completed(context.Background(), domain.Account{ID: "a", Email: "owner@example.com"}, &domain.RedesignRecord{
		ID:            "r1",
		RedesignedURL: "https://cdn.test/r1.png",
		Styles:        []domain.Style{"japanese-zen", "woodland"},
	})
	m.Wait()

	require.Len(t, c.msgs, 1)
	msg := c.msgs[0]
	assert.Equal(t, []string{"owner@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Your yard redesign is ready"}, msg.GetHeader("Subject"))

	var body bytes.Buffer
	_, err := msg.WriteTo(&body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(body.String(), "Japanese Zen + Woodland"))
	assert.True(t, strings.Contains(body.String(), "https://yardcraft.app/history"))
}

func TestMailerSkipsAccountsWithoutEmail(t *testing.T) {
	c := &capture{}
	m := NewMailer(MailConfig{}, zerolog.Nop())
	m.send = c.send

	m.LimitReached(context.Background(), domain.Account{ID: "a"}, domain.LimitStatus{Limit: 3, ResetsAt: time.Now()})
	m.Wait()
	assert.Empty(t, c.msgs)
}

func TestMailerLogsDeliveryFailure(t *testing.T) {
	var buf bytes.Buffer
	c := &capture{err: errors.New("smtp: 535 auth failed")}
	m := NewMailer(MailConfig{}, zerolog.New(&buf))
	m.send = c.send

	m.LimitReached(context.Background(), domain.Account{ID: "a", Email: "owner@example.com"}, domain.LimitStatus{Limit: 3, ResetsAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)})
	m.Wait()
	require.Len(t, c.msgs, 1)
	assert.Contains(t, buf.String(), "email delivery failed")
}
