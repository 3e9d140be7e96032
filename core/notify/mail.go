// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/wneessen/go-mail"

	"github.com/relabs-tech/folio/core"
	"github.com/relabs-tech/folio/core/store"
)

// ContactSubject is the subject of contact notification emails
const ContactSubject = "New Contact Form Submission"

var contactTemplate = template.Must(template.New("contact").Funcs(template.FuncMap{
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`
<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{range $i, $line := lines .Message}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
<hr>
<p>This message was sent from your portfolio contact form.</p>
`))

// sender is the part of mail.Client used to deliver messages
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// MailConfig configures the SMTP delivery of notification emails
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// Mail sends an email to the administrator for every new contact
type Mail struct {
	client sender
	from   string
	to     string
}

var _ core.Notifier = (*Mail)(nil)

// NewMail returns a mail notifier delivering through the SMTP server in config.
// Authentication is plain, TLS is used when the server offers it.
func NewMail(config MailConfig) (*Mail, error) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client, err := mail.NewClient(config.Host,
		mail.WithPort(config.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(config.Username),
		mail.WithPassword(config.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create mail client: %w", err)
	}
	return &Mail{client: client, from: config.From, to: config.To}, nil
}

// Notify sends the contact notification for created contacts and ignores
// everything else
func (m *Mail) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	if resource != "contact" || operation != core.OperationCreate {
		return nil
	}
	var contact store.Contact
	if err := json.Unmarshal(payload, &contact); err != nil {
		return fmt.Errorf("cannot decode contact: %w", err)
	}
	msg, err := m.contactMessage(contact)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("cannot send contact notification: %w", err)
	}
	return nil
}

func (m *Mail) contactMessage(contact store.Contact) (*mail.Msg, error) {
	var body bytes.Buffer
	if err := contactTemplate.Execute(&body, contact); err != nil {
		return nil, fmt.Errorf("cannot render contact notification: %w", err)
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(m.to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.to, err)
	}
	if err := msg.ReplyTo(contact.Email); err != nil {
		return nil, fmt.Errorf("invalid reply address %q: %w", contact.Email, err)
	}
	msg.Subject(ContactSubject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	return msg, nil
}
