/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the desk domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Small fixed-shape responses

VALIDATION:
  Request types carry go-playground/validator tags. Field names in
  validation errors are the JSON names (see validate.go). The desk services
  still own trimming and domain rules, so a title of "   " passes the
  `required` tag and is rejected by the service.

TIMESTAMPS:
  RFC 3339 strings, UTC. Task due dates are YYYY-MM-DD.

SEE ALSO:
  - handlers.go: Uses these types
  - desk/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/warp/clientdesk/desk"
	"github.com/warp/clientdesk/tools"
)

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusResponse acknowledges a mutation with no body of its own.
type StatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse is the liveness body.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports process and database health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// =============================================================================
// IDEAS
// =============================================================================

// IdeaDTO represents a scored idea.
type IdeaDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Score       int    `json:"score"`
	CreatedAt   string `json:"created_at"`
}

// CreateIdeaRequest is the body for POST /api/ideas. Any score sent by the
// client is ignored.
type CreateIdeaRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func toIdeaDTO(i desk.Idea) IdeaDTO {
	return IdeaDTO{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Score:       i.Score,
		CreatedAt:   formatTime(i.CreatedAt),
	}
}

// =============================================================================
// CLIENTS & TASKS
// =============================================================================

// ClientDTO represents a client.
type ClientDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_at"`
}

// AssignClientRequest is the body for POST /api/clients/{id}/assign. The
// owner key is required; an empty owner unassigns the client.
type AssignClientRequest struct {
	Owner *string `json:"owner" validate:"required"`
}

// HomeStatsDTO holds the home page counters.
type HomeStatsDTO struct {
	MyClientsCount     int `json:"my_clients_count"`
	AwaitingTasksCount int `json:"awaiting_tasks_count"`
}

// HomeOverviewDTO is the home page summary.
type HomeOverviewDTO struct {
	MyClients       []ClientDTO  `json:"my_clients"`
	AwaitingClients []ClientDTO  `json:"awaiting_clients"`
	Stats           HomeStatsDTO `json:"stats"`
}

// TaskDTO represents a client task.
type TaskDTO struct {
	ID       int64   `json:"id"`
	ClientID int64   `json:"client_id"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	DueDate  *string `json:"due_date"`
}

// CreateTaskRequest is the body for POST /api/clients/{id}/tasks.
type CreateTaskRequest struct {
	Title   string `json:"title" validate:"required"`
	Status  string `json:"status" validate:"omitempty,oneof=awaiting in_progress done"`
	DueDate string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func toClientDTO(c desk.Client) ClientDTO {
	return ClientDTO{
		ID:        c.ID,
		Name:      c.Name,
		Owner:     c.Owner,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func toClientDTOs(clients []desk.Client) []ClientDTO {
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	return dtos
}

func toTaskDTO(t desk.Task) TaskDTO {
	dto := TaskDTO{
		ID:       t.ID,
		ClientID: t.ClientID,
		Title:    t.Title,
		Status:   string(t.Status),
	}
	if t.DueDate != nil {
		due := t.DueDate.Format(desk.DateLayout)
		dto.DueDate = &due
	}
	return dto
}

// =============================================================================
// ASSIGNEES & WORKPAPERS
// =============================================================================

// AssigneeDTO represents an assignee.
type AssigneeDTO struct {
	ID        int64  `json:"id"`
	ClientID  int64  `json:"client_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// MyAssigneeDTO is an assignee listed with its client's name.
type MyAssigneeDTO struct {
	AssigneeDTO
	ClientName string `json:"client_name"`
}

// AssigneeDetailDTO is an assignee with its parent client.
type AssigneeDetailDTO struct {
	AssigneeDTO
	Client ClientDTO `json:"client"`
}

// CreateAssigneeRequest is the body for POST /api/clients/{id}/assignees.
type CreateAssigneeRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// WorkpaperDTO represents a workpaper.
type WorkpaperDTO struct {
	ID         int64  `json:"id"`
	AssigneeID int64  `json:"assignee_id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
	CreatedAt  string `json:"created_at"`
}

// CreateWorkpaperRequest is the body for POST /api/assignees/{id}/workpapers.
type CreateWorkpaperRequest struct {
	Title string `json:"title" validate:"required"`
	Notes string `json:"notes"`
}

// UpdateWorkpaperStatusRequest is the body for POST /api/workpapers/{id}/status.
type UpdateWorkpaperStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft review final"`
}

func toAssigneeDTO(a desk.Assignee) AssigneeDTO {
	return AssigneeDTO{
		ID:        a.ID,
		ClientID:  a.ClientID,
		Name:      a.Name,
		Email:     a.Email,
		CreatedAt: formatTime(a.CreatedAt),
	}
}

func toWorkpaperDTO(wp desk.Workpaper) WorkpaperDTO {
	return WorkpaperDTO{
		ID:         wp.ID,
		AssigneeID: wp.AssigneeID,
		Title:      wp.Title,
		Status:     string(wp.Status),
		Notes:      wp.Notes,
		CreatedAt:  formatTime(wp.CreatedAt),
	}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// CalcPayload is both the GET response and the PUT body of a calculator.
type CalcPayload struct {
	Data desk.CalcData `json:"data"`
}

// CalcRecordDTO is the PUT response.
type CalcRecordDTO struct {
	AssigneeID int64         `json:"assignee_id"`
	CalcKey    string        `json:"calc_key"`
	Data       desk.CalcData `json:"data"`
	UpdatedAt  string        `json:"updated_at"`
}

// OverviewInputsDTO echoes the calculator payloads an overview was built from.
type OverviewInputsDTO struct {
	Income     desk.CalcData `json:"income"`
	Deductions desk.CalcData `json:"deductions"`
}

// OverviewDTO is the financial overview of an assignee.
type OverviewDTO struct {
	AssigneeID      int64             `json:"assignee_id"`
	Inputs          OverviewInputsDTO `json:"inputs"`
	IncomeTotal     float64           `json:"income_total"`
	DeductionsTotal float64           `json:"deductions_total"`
	TaxableIncome   float64           `json:"taxable_income"`
	EstimatedTax    float64           `json:"estimated_tax"`
}

func toOverviewDTO(ov *desk.FinancialOverview) OverviewDTO {
	return OverviewDTO{
		AssigneeID: ov.AssigneeID,
		Inputs: OverviewInputsDTO{
			Income:     ov.Income,
			Deductions: ov.Deductions,
		},
		IncomeTotal:     ov.IncomeTotal.InexactFloat64(),
		DeductionsTotal: ov.DeductionsTotal.InexactFloat64(),
		TaxableIncome:   ov.TaxableIncome.InexactFloat64(),
		EstimatedTax:    ov.EstimatedTax.InexactFloat64(),
	}
}

// =============================================================================
// TOOLS
// =============================================================================

// CoverLetterRequest is the body for POST /api/tools/cover-letter.
type CoverLetterRequest struct {
	CandidateName string   `json:"candidate_name" validate:"required"`
	Role          string   `json:"role" validate:"required"`
	Company       string   `json:"company" validate:"required"`
	Highlights    []string `json:"highlights"`
}

// CoverLetterResponse carries the generated letter.
type CoverLetterResponse struct {
	Content string `json:"content"`
}

// PDFFillRequest is the body for POST /api/tools/pdf-fill.
type PDFFillRequest struct {
	Title  string         `json:"title"`
	Fields map[string]any `json:"fields"`
}

// PDFFillResponse carries the rendered document.
type PDFFillResponse struct {
	Filename   string `json:"filename"`
	ContentB64 string `json:"content_b64"`
}

// AttachmentRequest is one attachment of a send-email request.
type AttachmentRequest struct {
	Filename   string `json:"filename" validate:"required"`
	ContentB64 string `json:"content_b64"`
	MimeType   string `json:"mimetype"`
}

// SendEmailRequest is the body for POST /api/tools/send-email.
type SendEmailRequest struct {
	To          []string            `json:"to" validate:"required,min=1,dive,required"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	Attachments []AttachmentRequest `json:"attachments" validate:"dive"`
}

// AttachmentInfoDTO describes a previewed attachment.
type AttachmentInfoDTO struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
	Size     int    `json:"size"`
}

// EmailPreviewDTO describes an email that would have been sent.
type EmailPreviewDTO struct {
	Status      string              `json:"status"`
	From        string              `json:"from"`
	To          []string            `json:"to"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	Attachments []AttachmentInfoDTO `json:"attachments"`
}

// EmailSentDTO confirms delivery to the relay.
type EmailSentDTO struct {
	Status    string   `json:"status"`
	MessageID string   `json:"message_id"`
	To        []string `json:"to"`
}

func (req SendEmailRequest) toTool() tools.EmailRequest {
	out := tools.EmailRequest{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
	}
	for _, a := range req.Attachments {
		out.Attachments = append(out.Attachments, tools.Attachment{
			Filename:   a.Filename,
			ContentB64: a.ContentB64,
			MimeType:   a.MimeType,
		})
	}
	return out
}

func toEmailResultDTO(res *tools.EmailResult) any {
	if res.Status == tools.EmailSent {
		return EmailSentDTO{
			Status:    res.Status,
			MessageID: res.MessageID,
			To:        res.To,
		}
	}

	infos := make([]AttachmentInfoDTO, len(res.Attachments))
	for i, a := range res.Attachments {
		infos[i] = AttachmentInfoDTO{Filename: a.Filename, MimeType: a.MimeType, Size: a.Size}
	}
	return EmailPreviewDTO{
		Status:      res.Status,
		From:        res.From,
		To:          res.To,
		Subject:     res.Subject,
		Body:        res.Body,
		Attachments: infos,
	}
}
