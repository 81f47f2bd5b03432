package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// DefaultPDFTitle is used when the request has no title.
const DefaultPDFTitle = "Generated Form"

// Field is one label/value line of a rendered form.
type Field struct {
	Label string
	Value string
}

// PDFRenderer turns a title and fields into a PDF document.
type PDFRenderer interface {
	Render(title string, fields []Field) ([]byte, error)
}

// FPDFRenderer renders A4 portrait forms with go-pdf/fpdf.
type FPDFRenderer struct {
	// Now stamps the document creation date. Defaults to time.Now.
	Now func() time.Time
}

// NewFPDFRenderer returns a renderer using the wall clock.
func NewFPDFRenderer() *FPDFRenderer {
	return &FPDFRenderer{Now: time.Now}
}

var _ PDFRenderer = (*FPDFRenderer)(nil)

// Render lays out the title followed by one "label: value" row per field.
func (r *FPDFRenderer) Render(title string, fields []Field) ([]byte, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(now())
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(6)

	for _, f := range fields {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 7, tr(f.Label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, tr(f.Value), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// SortedFields converts a decoded JSON object into fields ordered by label.
// Strings are used verbatim, null is empty, numbers and booleans use their
// JSON spelling and anything else is re-encoded as JSON.
func SortedFields(values map[string]any) []Field {
	labels := make([]string, 0, len(values))
	for k := range values {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	fields := make([]Field, len(labels))
	for i, label := range labels {
		fields[i] = Field{Label: label, Value: fieldString(values[label])}
	}
	return fields
}

func fieldString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// PDFFilename derives a download name from the title: "Tax Form 2024"
// becomes "tax-form-2024.pdf", and titles with no usable characters become
// "form.pdf".
func PDFFilename(title string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "form"
	}
	return slug + ".pdf"
}
