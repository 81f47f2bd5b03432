package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/warp/clientdesk/config"
	"github.com/warp/clientdesk/desk"
	"github.com/wneessen/go-mail"
)

// Email outcomes.
const (
	EmailPreview = "preview"
	EmailSent    = "sent"
)

const defaultMimeType = "application/octet-stream"

// Attachment is a file supplied with an email request.
type Attachment struct {
	Filename   string
	ContentB64 string
	MimeType   string
}

// EmailRequest is what to send.
type EmailRequest struct {
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// AttachmentInfo describes a decoded attachment.
type AttachmentInfo struct {
	Filename string
	MimeType string
	Size     int
}

// EmailResult reports what happened. MessageID is set only when sent.
type EmailResult struct {
	Status      string
	From        string
	To          []string
	Subject     string
	Body        string
	Attachments []AttachmentInfo
	MessageID   string
}

// =============================================================================
// TRANSPORT
// =============================================================================

// Transport delivers a composed message.
type Transport interface {
	Send(ctx context.Context, msg *mail.Msg) error
}

// SMTPTransport dials the configured relay for every message.
type SMTPTransport struct {
	cfg config.SMTPConfig
}

// NewSMTPTransport returns a transport for cfg.
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

// Send dials, authenticates when a user is configured, and delivers msg.
// The dial is bounded by the configured timeout and by ctx.
func (t *SMTPTransport) Send(ctx context.Context, msg *mail.Msg) error {
	var opts []mail.Option
	if t.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(t.cfg.Port))
	}
	if t.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(t.cfg.Timeout))
	}
	if t.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if t.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.User),
			mail.WithPassword(t.cfg.Pass),
		)
	}

	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// =============================================================================
// MAILER
// =============================================================================

// SendObserver is told how long each transport call took.
type SendObserver func(duration time.Duration, err error)

// Mailer validates requests and either previews or sends them.
type Mailer struct {
	from      string
	transport Transport
	observe   SendObserver
	validate  *validator.Validate
}

// NewMailer builds a Mailer from SMTP settings. Without a host it only
// previews.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	var transport Transport
	if cfg.Configured() {
		transport = NewSMTPTransport(cfg)
	}
	return NewMailerWithTransport(cfg.From, transport)
}

// NewMailerWithTransport builds a Mailer around an explicit transport. A nil
// transport means preview mode.
func NewMailerWithTransport(from string, transport Transport) *Mailer {
	return &Mailer{
		from:      from,
		transport: transport,
		validate:  validator.New(),
	}
}

// OnSend registers an observer for transport calls.
func (m *Mailer) OnSend(fn SendObserver) {
	m.observe = fn
}

// Previewing reports whether the mailer has no transport.
func (m *Mailer) Previewing() bool {
	return m.transport == nil
}

// Send validates req and delivers it, or describes it when previewing.
// Transport failures come back as *desk.ServiceError carrying the transport
// message.
func (m *Mailer) Send(ctx context.Context, req EmailRequest) (*EmailResult, error) {
	to, err := m.recipients(req.To)
	if err != nil {
		return nil, err
	}

	type decoded struct {
		info AttachmentInfo
		data []byte
	}
	files := make([]decoded, 0, len(req.Attachments))
	for i, a := range req.Attachments {
		field := fmt.Sprintf("attachments[%d]", i)
		name := strings.TrimSpace(a.Filename)
		if name == "" {
			return nil, desk.Invalid(field+".filename", "Filename is required")
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(a.ContentB64))
		if err != nil {
			return nil, desk.Invalid(field+".content_b64", "must be valid base64")
		}
		mimeType := strings.TrimSpace(a.MimeType)
		if mimeType == "" {
			mimeType = defaultMimeType
		}
		files = append(files, decoded{
			info: AttachmentInfo{Filename: name, MimeType: mimeType, Size: len(data)},
			data: data,
		})
	}

	if m.transport == nil {
		infos := make([]AttachmentInfo, len(files))
		for i, f := range files {
			infos[i] = f.info
		}
		return &EmailResult{
			Status:      EmailPreview,
			From:        m.from,
			To:          to,
			Subject:     req.Subject,
			Body:        req.Body,
			Attachments: infos,
		}, nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, &desk.ServiceError{Service: "smtp", Err: fmt.Errorf("invalid sender %q: %w", m.from, err)}
	}
	if err := msg.To(to...); err != nil {
		return nil, desk.Invalid("to", err.Error())
	}
	msg.Subject(req.Subject)
	msg.SetBodyString(mail.TypeTextPlain, req.Body)
	for _, f := range files {
		if err := msg.AttachReader(f.info.Filename, bytes.NewReader(f.data),
			mail.WithFileContentType(mail.ContentType(f.info.MimeType))); err != nil {
			return nil, desk.Invalid("attachments", err.Error())
		}
	}
	messageID := uuid.NewString() + "@" + senderDomain(m.from)
	msg.SetMessageIDWithValue(messageID)
	msg.SetDate()

	start := time.Now()
	err = m.transport.Send(ctx, msg)
	if m.observe != nil {
		m.observe(time.Since(start), err)
	}
	if err != nil {
		return nil, &desk.ServiceError{Service: "smtp", Err: err}
	}

	return &EmailResult{
		Status:    EmailSent,
		To:        to,
		MessageID: messageID,
	}, nil
}

func (m *Mailer) recipients(raw []string) ([]string, error) {
	to := make([]string, 0, len(raw))
	for _, addr := range raw {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, desk.Invalid("to", "At least one recipient is required")
	}
	for i, addr := range to {
		if err := m.validate.Var(addr, "email"); err != nil {
			return nil, desk.Invalid(fmt.Sprintf("to[%d]", i), fmt.Sprintf("%q is not a valid email address", addr))
		}
	}
	return to, nil
}

func senderDomain(from string) string {
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		return strings.TrimSuffix(from[at+1:], ">")
	}
	return "localhost"
}
