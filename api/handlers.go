/*
handlers.go - HTTP API handlers for clientdesk

PURPOSE:
  Exposes the desk services and tools via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Ideas:
    GET    /api/ideas                          List ideas, newest first
    POST   /api/ideas                          Create and score an idea
    DELETE /api/ideas/{id}                     Delete an idea

  Home & clients:
    GET    /api/home/overview?owner=           My clients + awaiting work
    GET    /api/home/my-assignees?owner=       Assignees of my clients
    GET    /api/clients                        List clients
    GET    /api/clients/search?q=              Substring search on name
    POST   /api/clients/{id}/assign            Set owner
    GET    /api/clients/{id}/tasks             List tasks
    POST   /api/clients/{id}/tasks             Create task

  Assignees:
    GET    /api/clients/{id}/assignees         List a client's assignees
    POST   /api/clients/{id}/assignees         Create assignee
    GET    /api/assignees/{id}                 Assignee with client
    GET    /api/assignees/{id}/workpapers      List workpapers
    POST   /api/assignees/{id}/workpapers      Create draft workpaper
    POST   /api/workpapers/{id}/status         Move workpaper status

  Calculators:
    GET    /api/assignees/{id}/calc/{calcKey}  Stored payload or {}
    PUT    /api/assignees/{id}/calc/{calcKey}  Replace payload
    GET    /api/assignees/{id}/overview        Income/deductions/tax

  Tools:
    POST   /api/tools/cover-letter
    POST   /api/tools/pdf-fill
    POST   /api/tools/send-email

ARCHITECTURE:
  Handler holds the desk services, the optional PDF renderer, the mailer,
  metrics and the logger. All domain rules live in desk and tools; handlers
  only decode, delegate and encode.

REQUEST FLOW:
  1. Parse path params and body (validate.go)
  2. Call the desk service or tool
  3. Map the result to a DTO (dto.go)
  4. On error, writeErr picks the status (errors.go)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error to status mapping
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/clientdesk/desk"
	"github.com/warp/clientdesk/metrics"
	"github.com/warp/clientdesk/store/sqlite"
	"github.com/warp/clientdesk/tools"
	"go.uber.org/zap"
)

// DefaultOwner is used when ?owner= is absent.
const DefaultOwner = "demo"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options carries the optional collaborators of a Handler.
type Options struct {
	// PDF renders pdf-fill requests. Nil disables the tool (501).
	PDF tools.PDFRenderer
	// Mailer sends or previews email. Nil means preview-only with the
	// default sender.
	Mailer  *tools.Mailer
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	ideas     *desk.IdeaService
	clients   *desk.ClientService
	assignees *desk.AssigneeService
	calc      *desk.CalcService

	pdf     tools.PDFRenderer
	mailer  *tools.Mailer
	metrics *metrics.Metrics
	logger  *zap.Logger

	validate *validator.Validate
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewWithRegistry(nil, logger)
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = tools.NewMailerWithTransport("noreply@example.com", nil)
	}
	mailer.OnSend(m.RecordSMTPSend)

	return &Handler{
		Store:     store,
		ideas:     desk.NewIdeaService(store),
		clients:   desk.NewClientService(store),
		assignees: desk.NewAssigneeService(store),
		calc:      desk.NewCalcService(store),
		pdf:       opts.PDF,
		mailer:    mailer,
		metrics:   m,
		logger:    logger,
		validate:  newValidator(),
	}
}

// =============================================================================
// LIVENESS
// =============================================================================

// Hello is the liveness probe used by the frontend.
// GET /api/hello
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Hello from clientdesk!"})
}

// Health checks the database connection.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}

// =============================================================================
// IDEA HANDLERS
// =============================================================================

// ListIdeas returns all ideas, newest first.
// GET /api/ideas
func (h *Handler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.ideas.List(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	dtos := make([]IdeaDTO, len(ideas))
	for i, idea := range ideas {
		dtos[i] = toIdeaDTO(idea)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateIdea scores and stores an idea.
// POST /api/ideas
func (h *Handler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req CreateIdeaRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	idea, err := h.ideas.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.metrics.IncrementIdeaCreated()

	writeJSON(w, http.StatusCreated, toIdeaDTO(*idea))
}

// DeleteIdea removes an idea.
// DELETE /api/ideas/{id}
func (h *Handler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	if err := h.ideas.Delete(r.Context(), id); err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// =============================================================================
// HOME & CLIENT HANDLERS
// =============================================================================

func ownerParam(r *http.Request) string {
	if owner := strings.TrimSpace(r.URL.Query().Get("owner")); owner != "" {
		return owner
	}
	return DefaultOwner
}

// HomeOverview summarizes the owner's clients and the awaiting work.
// GET /api/home/overview?owner=
func (h *Handler) HomeOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.clients.HomeOverview(r.Context(), ownerParam(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, HomeOverviewDTO{
		MyClients:       toClientDTOs(ov.MyClients),
		AwaitingClients: toClientDTOs(ov.AwaitingClients),
		Stats: HomeStatsDTO{
			MyClientsCount:     ov.MyClientsCount,
			AwaitingTasksCount: ov.AwaitingTasksCount,
		},
	})
}

// MyAssignees lists the assignees of the owner's clients.
// GET /api/home/my-assignees?owner=
func (h *Handler) MyAssignees(w http.ResponseWriter, r *http.Request) {
	assignees, err := h.assignees.MyAssignees(r.Context(), ownerParam(r))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	dtos := make([]MyAssigneeDTO, len(assignees))
	for i, a := range assignees {
		dtos[i] = MyAssigneeDTO{AssigneeDTO: toAssigneeDTO(a.Assignee), ClientName: a.ClientName}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListClients returns every client by name.
// GET /api/clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTOs(clients))
}

// SearchClients matches client names by substring.
// GET /api/clients/search?q=
func (h *Handler) SearchClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTOs(clients))
}

// AssignClient sets a client's owner.
// POST /api/clients/{id}/assign
func (h *Handler) AssignClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req AssignClientRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	if err := h.clients.Assign(r.Context(), id, *req.Owner); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.metrics.IncrementClientAssigned()

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// ListTasks returns a client's tasks.
// GET /api/clients/{id}/tasks
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	tasks, err := h.clients.ListTasks(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	dtos := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		dtos[i] = toTaskDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTask adds a task to a client.
// POST /api/clients/{id}/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req CreateTaskRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	task, err := h.clients.CreateTask(r.Context(), id, req.Title, desk.TaskStatus(req.Status), req.DueDate)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(*task))
}

// =============================================================================
// ASSIGNEE & WORKPAPER HANDLERS
// =============================================================================

// ListAssignees returns a client's assignees.
// GET /api/clients/{id}/assignees
func (h *Handler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	assignees, err := h.assignees.ListAssignees(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	dtos := make([]AssigneeDTO, len(assignees))
	for i, a := range assignees {
		dtos[i] = toAssigneeDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssignee adds an assignee to a client.
// POST /api/clients/{id}/assignees
func (h *Handler) CreateAssignee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req CreateAssigneeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	a, err := h.assignees.CreateAssignee(r.Context(), id, req.Name, req.Email)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssigneeDTO(*a))
}

// GetAssignee returns an assignee with its client.
// GET /api/assignees/{id}
func (h *Handler) GetAssignee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	detail, err := h.assignees.GetAssigneeDetail(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AssigneeDetailDTO{
		AssigneeDTO: toAssigneeDTO(detail.Assignee),
		Client:      toClientDTO(detail.Client),
	})
}

// ListWorkpapers returns an assignee's workpapers.
// GET /api/assignees/{id}/workpapers
func (h *Handler) ListWorkpapers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	papers, err := h.assignees.ListWorkpapers(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	dtos := make([]WorkpaperDTO, len(papers))
	for i, wp := range papers {
		dtos[i] = toWorkpaperDTO(wp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWorkpaper adds a draft workpaper.
// POST /api/assignees/{id}/workpapers
func (h *Handler) CreateWorkpaper(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req CreateWorkpaperRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	wp, err := h.assignees.CreateWorkpaper(r.Context(), id, req.Title, req.Notes)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkpaperDTO(*wp))
}

// UpdateWorkpaperStatus moves a workpaper through draft/review/final.
// POST /api/workpapers/{id}/status
func (h *Handler) UpdateWorkpaperStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req UpdateWorkpaperStatusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	wp, err := h.assignees.UpdateWorkpaperStatus(r.Context(), id, desk.WorkpaperStatus(req.Status))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkpaperDTO(*wp))
}

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================

// GetCalc returns a stored calculator payload, or {} when none exists.
// GET /api/assignees/{id}/calc/{calcKey}
func (h *Handler) GetCalc(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	data, err := h.calc.Get(r.Context(), id, chi.URLParam(r, "calcKey"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CalcPayload{Data: data})
}

// PutCalc replaces a calculator payload.
// PUT /api/assignees/{id}/calc/{calcKey}
func (h *Handler) PutCalc(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req CalcPayload
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	rec, err := h.calc.Put(r.Context(), id, chi.URLParam(r, "calcKey"), req.Data)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.metrics.IncrementCalcUpdate(rec.CalcKey)

	writeJSON(w, http.StatusOK, CalcRecordDTO{
		AssigneeID: rec.AssigneeID,
		CalcKey:    rec.CalcKey,
		Data:       rec.Data,
		UpdatedAt:  formatTime(rec.UpdatedAt),
	})
}

// Overview computes the assignee's financial overview.
// GET /api/assignees/{id}/overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	ov, err := h.calc.Overview(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOverviewDTO(ov))
}

// =============================================================================
// TOOL HANDLERS
// =============================================================================

// CoverLetter renders a cover letter.
// POST /api/tools/cover-letter
func (h *Handler) CoverLetter(w http.ResponseWriter, r *http.Request) {
	var req CoverLetterRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	content, err := tools.CoverLetter(tools.CoverLetterRequest{
		CandidateName: req.CandidateName,
		Role:          req.Role,
		Company:       req.Company,
		Highlights:    req.Highlights,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CoverLetterResponse{Content: content})
}

// PDFFill renders a form PDF and returns it base64-encoded.
// POST /api/tools/pdf-fill
func (h *Handler) PDFFill(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.writeErr(w, r, desk.Unavailable("PDF rendering"))
		return
	}

	var req PDFFillRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = tools.DefaultPDFTitle
	}

	out, err := h.pdf.Render(title, tools.SortedFields(req.Fields))
	if err != nil {
		h.writeErr(w, r, &desk.ServiceError{Service: "pdf", Err: err})
		return
	}
	h.metrics.IncrementPDFRendered()

	writeJSON(w, http.StatusOK, PDFFillResponse{
		Filename:   tools.PDFFilename(title),
		ContentB64: base64.StdEncoding.EncodeToString(out),
	})
}

// SendEmail sends an email, or previews it when SMTP is not configured.
// POST /api/tools/send-email
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}

	res, err := h.mailer.Send(r.Context(), req.toTool())
	if err != nil {
		if !desk.IsClientError(err) {
			h.metrics.IncrementEmail("failed")
		}
		h.writeErr(w, r, err)
		return
	}
	h.metrics.IncrementEmail(res.Status)

	writeJSON(w, http.StatusOK, toEmailResultDTO(res))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
