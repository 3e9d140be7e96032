package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/logger"
	"github.com/relabs-tech/folio/core/store"
)

type fakeSender struct {
	messages []*mail.Msg
	err      error
}

func (f *fakeSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	f.messages = append(f.messages, messages...)
	return f.err
}

func contactPayload(t *testing.T) []byte {
	payload, err := json.Marshal(store.Contact{
		ID:        1,
		Name:      "Ada <script>",
		Email:     "ada@example.com",
		Message:   "first line\nsecond line",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	return payload
}

func TestMailSendsContactNotification(t *testing.T) {
	sender := &fakeSender{}
	m := &Mail{client: sender, from: "noreply@example.com", to: "admin@example.com"}

	require.NoError(t, m.Notify(context.Background(), "contact", core.OperationCreate, contactPayload(t)))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, []string{ContactSubject}, msg.GetGenHeader(mail.HeaderSubject))
	to := msg.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "admin@example.com")

	var raw bytes.Buffer
	_, err := msg.WriteTo(&raw)
	require.NoError(t, err)
	body := raw.String()
	assert.Contains(t, body, "New Contact Form Submission")
	assert.NotContains(t, body, "<script>")
}

func TestMailIgnoresOtherEvents(t *testing.T) {
	sender := &fakeSender{}
	m := &Mail{client: sender, from: "noreply@example.com", to: "admin@example.com"}

	require.NoError(t, m.Notify(context.Background(), "project", core.OperationCreate, []byte(`{}`)))
	require.NoError(t, m.Notify(context.Background(), "contact", core.OperationUpdate, []byte(`{}`)))
	assert.Empty(t, sender.messages)
}

func TestMailReportsDeliveryErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	m := &Mail{client: sender, from: "noreply@example.com", to: "admin@example.com"}
	assert.Error(t, m.Notify(context.Background(), "contact", core.OperationCreate, contactPayload(t)))
}

func TestNewMail(t *testing.T) {
	m, err := NewMail(MailConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "u@example.com", To: "admin@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, m.client)
}

type fakeWriter struct {
	messages []kafka.Message
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublishes(t *testing.T) {
	writer := &fakeWriter{}
	k := &Kafka{writer: writer}
	ctx, _ := logger.ContextWithLogger(context.Background())

	require.NoError(t, k.Notify(ctx, "contact", core.OperationCreate, []byte(`{"id":1}`)))
	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "contact", string(msg.Key))
	assert.Equal(t, `{"id":1}`, string(msg.Value))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "create", headers[HeaderOperation])
	assert.True(t, strings.Contains(headers[HeaderContext], logger.RequestIDFromContext(ctx)))

	require.NoError(t, k.Close())
	assert.True(t, writer.closed)
}

type failing struct{ calls int }

func (f *failing) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	f.calls++
	return errors.New("failed")
}

func TestMultiCallsAll(t *testing.T) {
	a, b := &failing{}, &failing{}
	err := Multi{a, Nop{}, b}.Notify(context.Background(), "contact", core.OperationCreate, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	assert.NoError(t, Multi{}.Notify(context.Background(), "contact", core.OperationCreate, nil))
}
