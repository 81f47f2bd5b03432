package tools_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clientdesk/config"
	"github.com/warp/clientdesk/desk"
	"github.com/warp/clientdesk/tools"
	"github.com/wneessen/go-mail"
)

// =============================================================================
// COVER LETTER
// =============================================================================

func TestCoverLetter(t *testing.T) {
	req := tools.CoverLetterRequest{
		CandidateName: " Jane Doe ",
		Role:          "Senior Analyst",
		Company:       "Contoso",
		Highlights:    []string{"Led the audit migration", "  ", "Cut close time by 30%"},
	}

	letter, err := tools.CoverLetter(req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(letter, "Dear Hiring Manager at Contoso,\n"))
	assert.Contains(t, letter, "the Senior Analyst position at Contoso")
	assert.Contains(t, letter, "- Led the audit migration\n- Cut close time by 30%\n")
	assert.True(t, strings.HasSuffix(letter, "Sincerely,\nJane Doe\n"))
	assert.Equal(t, 2, strings.Count(letter, "\n- "), "blank highlight skipped")

	again, err := tools.CoverLetter(req)
	require.NoError(t, err)
	assert.Equal(t, letter, again, "deterministic")
}

func TestCoverLetter_NoHighlights(t *testing.T) {
	letter, err := tools.CoverLetter(tools.CoverLetterRequest{CandidateName: "A", Role: "B", Company: "C"})
	require.NoError(t, err)
	assert.NotContains(t, letter, "highlights")
}

func TestCoverLetter_RequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		req   tools.CoverLetterRequest
		field string
	}{
		{"name", tools.CoverLetterRequest{Role: "r", Company: "c"}, "candidate_name"},
		{"role", tools.CoverLetterRequest{CandidateName: "n", Company: "c"}, "role"},
		{"company", tools.CoverLetterRequest{CandidateName: "n", Role: "r", Company: " "}, "company"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tools.CoverLetter(tt.req)
			var ve *desk.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

// =============================================================================
// PDF
// =============================================================================

func TestFPDFRenderer_Render(t *testing.T) {
	fixed := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	r := &tools.FPDFRenderer{Now: func() time.Time { return fixed }}

	fields := tools.SortedFields(map[string]any{"Name": "Jane Doe", "ID": "12345", "Café": "Crème"})
	out, err := r.Render("Tax Form", fields)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "%%EOF")
	assert.Contains(t, string(out), "D:20250310", "creation date comes from the injected clock")
}

func TestSortedFields(t *testing.T) {
	fields := tools.SortedFields(map[string]any{
		"b": 2.5,
		"a": "x",
		"c": nil,
		"d": true,
		"e": []any{1.0, "two"},
		"f": float64(12345678),
	})

	assert.Equal(t, []tools.Field{
		{Label: "a", Value: "x"},
		{Label: "b", Value: "2.5"},
		{Label: "c", Value: ""},
		{Label: "d", Value: "true"},
		{Label: "e", Value: `[1,"two"]`},
		{Label: "f", Value: "12345678"},
	}, fields)

	assert.Empty(t, tools.SortedFields(nil))
}

func TestPDFFilename(t *testing.T) {
	assert.Equal(t, "tax-form-2024.pdf", tools.PDFFilename("Tax Form 2024"))
	assert.Equal(t, "generated-form.pdf", tools.PDFFilename(tools.DefaultPDFTitle))
	assert.Equal(t, "form.pdf", tools.PDFFilename("  ***  "))
}

// =============================================================================
// EMAIL
// =============================================================================

type fakeTransport struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeTransport) Send(_ context.Context, msg *mail.Msg) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestMailer_PreviewWhenUnconfigured(t *testing.T) {
	m := tools.NewMailer(config.SMTPConfig{From: "noreply@example.com"})
	require.True(t, m.Previewing())

	res, err := m.Send(context.Background(), tools.EmailRequest{
		To:      []string{" user1@example.com ", "", "user2@example.com"},
		Subject: "Hello",
		Body:    "Body text",
		Attachments: []tools.Attachment{
			{Filename: "a.txt", ContentB64: b64("hello"), MimeType: "text/plain"},
			{Filename: "b.bin", ContentB64: b64("")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, tools.EmailPreview, res.Status)
	assert.Equal(t, "noreply@example.com", res.From)
	assert.Equal(t, []string{"user1@example.com", "user2@example.com"}, res.To)
	assert.Equal(t, "Hello", res.Subject)
	assert.Equal(t, "Body text", res.Body)
	assert.Equal(t, []tools.AttachmentInfo{
		{Filename: "a.txt", MimeType: "text/plain", Size: 5},
		{Filename: "b.bin", MimeType: "application/octet-stream", Size: 0},
	}, res.Attachments)
	assert.Empty(t, res.MessageID)
}

func TestMailer_Validation(t *testing.T) {
	m := tools.NewMailerWithTransport("noreply@example.com", nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   tools.EmailRequest
		field string
	}{
		{"no recipients", tools.EmailRequest{To: []string{" "}}, "to"},
		{"bad address", tools.EmailRequest{To: []string{"ok@example.com", "not-an-email"}}, "to[1]"},
		{"bad base64", tools.EmailRequest{
			To:          []string{"ok@example.com"},
			Attachments: []tools.Attachment{{Filename: "x", ContentB64: "!!!"}},
		}, "attachments[0].content_b64"},
		{"missing filename", tools.EmailRequest{
			To:          []string{"ok@example.com"},
			Attachments: []tools.Attachment{{ContentB64: b64("x")}},
		}, "attachments[0].filename"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Send(ctx, tt.req)
			var ve *desk.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestMailer_Sends(t *testing.T) {
	transport := &fakeTransport{}
	m := tools.NewMailerWithTransport("noreply@example.com", transport)

	var observed int
	m.OnSend(func(time.Duration, error) { observed++ })

	res, err := m.Send(context.Background(), tools.EmailRequest{
		To:          []string{"user@example.com"},
		Subject:     "Quarterly pack",
		Body:        "See attached.",
		Attachments: []tools.Attachment{{Filename: "pack.pdf", ContentB64: b64("%PDF-"), MimeType: "application/pdf"}},
	})
	require.NoError(t, err)

	assert.Equal(t, tools.EmailSent, res.Status)
	assert.Equal(t, []string{"user@example.com"}, res.To)
	assert.True(t, strings.HasSuffix(res.MessageID, "@example.com"), res.MessageID)
	assert.Equal(t, 1, observed)

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, []string{"Quarterly pack"}, msg.GetGenHeader(mail.HeaderSubject))
	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"user@example.com"}, recipients)
	assert.Len(t, msg.GetAttachments(), 1)
}

func TestMailer_TransportFailure(t *testing.T) {
	// GIVEN: A relay that rejects the message
	// WHEN: Sending
	// THEN: A ServiceError carrying the transport message

	transport := &fakeTransport{err: errors.New("535 authentication failed")}
	m := tools.NewMailerWithTransport("noreply@example.com", transport)

	_, err := m.Send(context.Background(), tools.EmailRequest{To: []string{"user@example.com"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, desk.ErrServiceError)
	assert.Equal(t, "535 authentication failed", err.Error())

	var se *desk.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "smtp", se.Service)
}

func TestSMTPTransport_DialFailure(t *testing.T) {
	m := tools.NewMailer(config.SMTPConfig{
		Host:    "127.0.0.1",
		Port:    1,
		From:    "noreply@example.com",
		TLS:     false,
		Timeout: time.Second,
	})
	require.False(t, m.Previewing())

	_, err := m.Send(context.Background(), tools.EmailRequest{To: []string{"user@example.com"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, desk.ErrServiceError)
	assert.NotEmpty(t, err.Error())
}
