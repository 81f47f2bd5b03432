/*
Package tools holds the stateless utilities behind /api/tools.

TOOLS:
  coverletter.go: Plain-text cover letter from a fixed template
  pdf.go:         Single-page PDF form rendered with go-pdf/fpdf
  email.go:       Email dispatch over SMTP with go-mail, or a preview when
                  no relay is configured

None of these touch the store.
*/
package tools

import (
	"fmt"
	"strings"

	"github.com/warp/clientdesk/desk"
)

// CoverLetterRequest holds the template inputs.
type CoverLetterRequest struct {
	CandidateName string
	Role          string
	Company       string
	Highlights    []string
}

// CoverLetter renders the letter. Output depends only on the request; blank
// highlights are skipped and the section is omitted when none remain.
func CoverLetter(req CoverLetterRequest) (string, error) {
	name := strings.TrimSpace(req.CandidateName)
	role := strings.TrimSpace(req.Role)
	company := strings.TrimSpace(req.Company)

	switch {
	case name == "":
		return "", desk.Invalid("candidate_name", "Candidate name is required")
	case role == "":
		return "", desk.Invalid("role", "Role is required")
	case company == "":
		return "", desk.Invalid("company", "Company is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear Hiring Manager at %s,\n\n", company)
	fmt.Fprintf(&b, "I am writing to express my interest in the %s position at %s. ", role, company)
	b.WriteString("I believe my background and experience make me a strong fit for your team.\n")

	var highlights []string
	for _, h := range req.Highlights {
		if h = strings.TrimSpace(h); h != "" {
			highlights = append(highlights, h)
		}
	}
	if len(highlights) > 0 {
		b.WriteString("\nSome highlights of my experience:\n")
		for _, h := range highlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}

	fmt.Fprintf(&b, "\nI would welcome the opportunity to discuss how I can contribute to %s.\n", company)
	b.WriteString("Thank you for your time and consideration.\n\n")
	fmt.Fprintf(&b, "Sincerely,\n%s\n", name)
	return b.String(), nil
}
