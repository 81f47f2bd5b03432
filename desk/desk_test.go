package desk_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clientdesk/desk"
	"github.com/warp/clientdesk/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type services struct {
	store     *sqlite.Store
	ideas     *desk.IdeaService
	clients   *desk.ClientService
	assignees *desk.AssigneeService
	calc      *desk.CalcService
}

func newTestServices(t *testing.T) *services {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	_, err = store.Seed(ctx)
	require.NoError(t, err)

	return &services{
		store:     store,
		ideas:     desk.NewIdeaService(store),
		clients:   desk.NewClientService(store),
		assignees: desk.NewAssigneeService(store),
		calc:      desk.NewCalcService(store),
	}
}

func clientNames(clients []desk.Client) []string {
	out := make([]string, len(clients))
	for i, c := range clients {
		out[i] = c.Name
	}
	return out
}

func findClient(t *testing.T, s *services, name string) desk.Client {
	t.Helper()
	clients, err := s.clients.Search(context.Background(), name)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	return clients[0]
}

func firstAssignee(t *testing.T, s *services, clientName string) desk.Assignee {
	t.Helper()
	c := findClient(t, s, clientName)
	assignees, err := s.assignees.ListAssignees(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotEmpty(t, assignees)
	return assignees[0]
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// IDEAS
// =============================================================================

func TestIdeas_CreateScoresDescriptionOnly(t *testing.T) {
	// GIVEN: A title full of keywords and a plain description
	// WHEN: The idea is created
	// THEN: Only the description is scored

	s := newTestServices(t)
	ctx := context.Background()

	idea, err := s.ideas.Create(ctx, "  Urgent security risk  ", "  Security risk review ")
	require.NoError(t, err)
	assert.Equal(t, "Urgent security risk", idea.Title)
	assert.Equal(t, "Security risk review", idea.Description)
	assert.Equal(t, 10, idea.Score)
	assert.NotZero(t, idea.ID)
	assert.False(t, idea.CreatedAt.IsZero())

	plain, err := s.ideas.Create(ctx, "Urgent security risk", "")
	require.NoError(t, err)
	assert.Equal(t, 0, plain.Score)
}

func TestIdeas_BlankTitleRejected(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.ideas.Create(ctx, "   ", "risk")
	require.Error(t, err)
	assert.True(t, desk.IsClientError(err))

	var ve *desk.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)

	ideas, err := s.ideas.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ideas, "nothing persisted")
}

func TestIdeas_ListNewestFirstAndDelete(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	first, err := s.ideas.Create(ctx, "first", "")
	require.NoError(t, err)
	second, err := s.ideas.Create(ctx, "second", "")
	require.NoError(t, err)

	ideas, err := s.ideas.List(ctx)
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	assert.Equal(t, second.ID, ideas[0].ID)

	require.NoError(t, s.ideas.Delete(ctx, first.ID))

	err = s.ideas.Delete(ctx, first.ID)
	assert.ErrorIs(t, err, desk.ErrIdeaNotFound)
	assert.True(t, desk.IsNotFound(err))

	ideas, err = s.ideas.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ideas, 1)
}

// =============================================================================
// CLIENTS & HOME OVERVIEW
// =============================================================================

func TestHomeOverview_Seeded(t *testing.T) {
	s := newTestServices(t)

	ov, err := s.clients.HomeOverview(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, []string{"Contoso Ltd", "Fabrikam Inc", "Globex Corp"}, clientNames(ov.MyClients))
	assert.Equal(t, 3, ov.MyClientsCount)
	assert.Equal(t, []string{"Contoso Ltd", "Fabrikam Inc"}, clientNames(ov.AwaitingClients))
	assert.Equal(t, 2, ov.AwaitingTasksCount)
}

func TestHomeOverview_UnknownOwner(t *testing.T) {
	s := newTestServices(t)

	ov, err := s.clients.HomeOverview(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, ov.MyClients)
	assert.Equal(t, 0, ov.MyClientsCount)
	assert.Equal(t, 2, ov.AwaitingTasksCount, "awaiting work is global")
}

func TestAssign_ChangesOwner(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	northwind := findClient(t, s, "Northwind")
	require.NoError(t, s.clients.Assign(ctx, northwind.ID, "  demo "))

	ov, err := s.clients.HomeOverview(ctx, "demo")
	require.NoError(t, err)
	assert.Contains(t, clientNames(ov.MyClients), "Northwind Traders")

	require.NoError(t, s.clients.Assign(ctx, northwind.ID, ""))
	ov, err = s.clients.HomeOverview(ctx, "demo")
	require.NoError(t, err)
	assert.NotContains(t, clientNames(ov.MyClients), "Northwind Traders")
}

func TestAssign_MissingClient(t *testing.T) {
	// GIVEN: A client id with no row
	// WHEN: Assigning it
	// THEN: ErrClientNotFound and no client changes owner

	s := newTestServices(t)
	ctx := context.Background()

	before, err := s.clients.List(ctx)
	require.NoError(t, err)

	err = s.clients.Assign(ctx, 9999, "demo")
	assert.ErrorIs(t, err, desk.ErrClientNotFound)

	after, err := s.clients.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSearch_TrimsQuery(t *testing.T) {
	s := newTestServices(t)

	got, err := s.clients.Search(context.Background(), "  globex ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex Corp"}, clientNames(got))
}

// =============================================================================
// TASKS
// =============================================================================

func TestCreateTask(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	adventure := findClient(t, s, "Adventure")

	task, err := s.clients.CreateTask(ctx, adventure.ID, " Kickoff ", "", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "Kickoff", task.Title)
	assert.Equal(t, desk.TaskAwaiting, task.Status)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2025-03-10", task.DueDate.Format(desk.DateLayout))

	ov, err := s.clients.HomeOverview(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, 3, ov.AwaitingTasksCount)
	assert.Contains(t, clientNames(ov.AwaitingClients), "Adventure Works")

	tasks, err := s.clients.ListTasks(ctx, adventure.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestCreateTask_Validation(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	contoso := findClient(t, s, "Contoso")

	tests := []struct {
		name   string
		title  string
		status desk.TaskStatus
		due    string
		field  string
	}{
		{"blank title", " ", "", "", "title"},
		{"unknown status", "x", "blocked", "", "status"},
		{"bad date", "x", desk.TaskDone, "10/03/2025", "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.clients.CreateTask(ctx, contoso.ID, tt.title, tt.status, tt.due)
			var ve *desk.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	_, err := s.clients.CreateTask(ctx, 9999, "x", "", "")
	assert.ErrorIs(t, err, desk.ErrClientNotFound)
}

// =============================================================================
// ASSIGNEES & WORKPAPERS
// =============================================================================

func TestCreateAssignee(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	globex := findClient(t, s, "Globex")

	a, err := s.assignees.CreateAssignee(ctx, globex.ID, " Hank Scorpio ", " hank@globex.test ")
	require.NoError(t, err)
	assert.Equal(t, "Hank Scorpio", a.Name)
	assert.Equal(t, "hank@globex.test", a.Email)
	assert.Equal(t, globex.ID, a.ClientID)

	mine, err := s.assignees.MyAssignees(ctx, "demo")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, "Contoso Ltd Contact", mine[0].Name)
	assert.Equal(t, "Contoso Ltd", mine[0].ClientName)
	assert.Equal(t, "Hank Scorpio", mine[2].Name)
	assert.Equal(t, "Globex Corp", mine[2].ClientName)
}

func TestCreateAssignee_Errors(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.assignees.CreateAssignee(ctx, 1, "  ", "")
	assert.ErrorIs(t, err, desk.ErrValidation)

	_, err = s.assignees.CreateAssignee(ctx, 9999, "Someone", "")
	assert.ErrorIs(t, err, desk.ErrClientNotFound)
}

func TestAssigneeDetail(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := firstAssignee(t, s, "Fabrikam")

	detail, err := s.assignees.GetAssigneeDetail(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, detail.ID)
	assert.Equal(t, "Fabrikam Inc", detail.Client.Name)

	_, err = s.assignees.GetAssigneeDetail(ctx, 9999)
	assert.ErrorIs(t, err, desk.ErrAssigneeNotFound)
	assert.NotErrorIs(t, err, desk.ErrClientNotFound)
}

// orphanStore hides every client, as if the parent row vanished without
// cascading.
type orphanStore struct {
	*sqlite.Store
}

func (orphanStore) GetClient(context.Context, int64) (*desk.Client, error) {
	return nil, nil
}

func TestAssigneeDetail_OrphanedClient(t *testing.T) {
	// GIVEN: An assignee whose client row cannot be found
	// WHEN: Fetching the assignee detail
	// THEN: The missing client is reported, distinct from a missing assignee

	s := newTestServices(t)
	a := firstAssignee(t, s, "Contoso")

	svc := desk.NewAssigneeService(orphanStore{s.store})
	_, err := svc.GetAssigneeDetail(context.Background(), a.ID)
	assert.ErrorIs(t, err, desk.ErrClientNotFound)
	assert.NotErrorIs(t, err, desk.ErrAssigneeNotFound)
}

func TestWorkpapers(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := firstAssignee(t, s, "Northwind")

	wp, err := s.assignees.CreateWorkpaper(ctx, a.ID, " FY24 review ", "initial")
	require.NoError(t, err)
	assert.Equal(t, "FY24 review", wp.Title)
	assert.Equal(t, desk.WorkpaperDraft, wp.Status)
	assert.Equal(t, "initial", wp.Notes)

	updated, err := s.assignees.UpdateWorkpaperStatus(ctx, wp.ID, desk.WorkpaperReview)
	require.NoError(t, err)
	assert.Equal(t, desk.WorkpaperReview, updated.Status)

	papers, err := s.assignees.ListWorkpapers(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, desk.WorkpaperReview, papers[0].Status)

	_, err = s.assignees.UpdateWorkpaperStatus(ctx, wp.ID, "archived")
	assert.ErrorIs(t, err, desk.ErrValidation)

	_, err = s.assignees.UpdateWorkpaperStatus(ctx, 9999, desk.WorkpaperFinal)
	assert.ErrorIs(t, err, desk.ErrWorkpaperNotFound)

	_, err = s.assignees.CreateWorkpaper(ctx, 9999, "x", "")
	assert.ErrorIs(t, err, desk.ErrAssigneeNotFound)

	_, err = s.assignees.CreateWorkpaper(ctx, a.ID, "", "")
	assert.ErrorIs(t, err, desk.ErrValidation)
}

// =============================================================================
// CALCULATOR
// =============================================================================

func TestCalc_GetEmpty(t *testing.T) {
	s := newTestServices(t)

	data, err := s.calc.Get(context.Background(), 9999, "anything")
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestCalc_PutThenGet(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := firstAssignee(t, s, "Contoso")

	var data desk.CalcData
	require.NoError(t, json.Unmarshal([]byte(`{"salary": 1200.5, "note": "hi", "gone": null}`), &data))

	rec, err := s.calc.Put(ctx, a.ID, "income-tax", data)
	require.NoError(t, err)
	assert.Equal(t, "income-tax", rec.CalcKey)

	got, err := s.calc.Get(ctx, a.ID, "income-tax")
	require.NoError(t, err)
	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"salary": 1200.5, "note": "hi"}`, string(out))
}

func TestCalc_PutErrors(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := firstAssignee(t, s, "Contoso")

	_, err := s.calc.Put(ctx, a.ID, "  ", desk.CalcData{})
	assert.ErrorIs(t, err, desk.ErrValidation)

	_, err = s.calc.Put(ctx, 9999, "income-tax", desk.CalcData{})
	assert.ErrorIs(t, err, desk.ErrAssigneeNotFound)

	rec, err := s.calc.Put(ctx, a.ID, "deductions", nil)
	require.NoError(t, err)
	assert.NotNil(t, rec.Data)
}

func TestCalc_Overview(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	a := firstAssignee(t, s, "Contoso")

	_, err := s.calc.Put(ctx, a.ID, desk.CalcIncomeTax, desk.CalcData{
		"salary": desk.NumberFromFloat(800),
		"bonus":  desk.Text("200"),
		"other":  desk.Text("n/a"),
		"ignore": desk.NumberFromFloat(1e6),
	})
	require.NoError(t, err)

	ov, err := s.calc.Overview(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, ov.AssigneeID)
	assert.True(t, ov.IncomeTotal.Equal(dec("1000")), ov.IncomeTotal.String())
	assert.True(t, ov.DeductionsTotal.IsZero())
	assert.True(t, ov.TaxableIncome.Equal(dec("1000")))
	assert.True(t, ov.EstimatedTax.Equal(dec("250")), ov.EstimatedTax.String())
	assert.Empty(t, ov.Deductions)

	_, err = s.calc.Overview(ctx, 9999)
	assert.ErrorIs(t, err, desk.ErrAssigneeNotFound)
}

func TestComputeOverview(t *testing.T) {
	tests := []struct {
		name       string
		income     desk.CalcData
		deductions desk.CalcData
		taxable    string
		tax        string
	}{
		{
			name:       "deductions exceed income",
			income:     desk.CalcData{"salary": desk.NumberFromFloat(100)},
			deductions: desk.CalcData{"retirement": desk.NumberFromFloat(150)},
			taxable:    "0",
			tax:        "0",
		},
		{
			name:       "rounds to cents",
			income:     desk.CalcData{"salary": desk.Number(dec("0.1")), "bonus": desk.Number(dec("0.2"))},
			deductions: desk.CalcData{},
			taxable:    "0.3",
			tax:        "0.08",
		},
		{
			name:       "all fields",
			income:     desk.CalcData{"salary": desk.NumberFromFloat(5000), "bonus": desk.NumberFromFloat(1000), "other": desk.NumberFromFloat(500)},
			deductions: desk.CalcData{"retirement": desk.NumberFromFloat(300), "health": desk.Text("150"), "charity": desk.NumberFromFloat(50)},
			taxable:    "6000",
			tax:        "1500",
		},
		{
			name:    "empty",
			taxable: "0",
			tax:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov := desk.ComputeOverview(tt.income, tt.deductions)
			assert.True(t, ov.TaxableIncome.Equal(dec(tt.taxable)), ov.TaxableIncome.String())
			assert.True(t, ov.EstimatedTax.Equal(dec(tt.tax)), ov.EstimatedTax.String())
		})
	}
}

func TestCalcData_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		wantLen int
	}{
		{name: "numbers and strings", input: `{"a": 1, "b": "x", "c": -2.5}`, wantLen: 3},
		{name: "nulls dropped", input: `{"a": null}`, wantLen: 0},
		{name: "bool rejected", input: `{"a": true}`, wantErr: "data.a"},
		{name: "array rejected", input: `{"a": [1]}`, wantErr: "data.a"},
		{name: "object rejected", input: `{"a": {"b": 1}}`, wantErr: "data.a"},
		{name: "not an object", input: `[1, 2]`, wantErr: "data"},
		{name: "huge exponent rejected", input: `{"salary": 1e2000000000}`, wantErr: "data.salary"},
		{name: "tiny exponent rejected", input: `{"salary": 1e-31}`, wantErr: "data.salary"},
		{name: "overlong number rejected", input: `{"salary": ` + strings.Repeat("9", 65) + `}`, wantErr: "data.salary"},
		{name: "exponent at bound", input: `{"salary": 1e30, "rate": 1e-30}`, wantLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data desk.CalcData
			err := json.Unmarshal([]byte(tt.input), &data)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Len(t, data, tt.wantLen)
				return
			}
			var ve *desk.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestCalcValue_Coercion(t *testing.T) {
	assert.True(t, desk.Text(" 15.5 ").Decimal().Equal(dec("15.5")))
	assert.True(t, desk.Text("abc").Decimal().IsZero())
	assert.True(t, desk.Text("").Decimal().IsZero())
	assert.True(t, desk.NumberFromFloat(3).Decimal().Equal(dec("3")))
	assert.True(t, desk.CalcData{}.Decimal("missing").IsZero())

	// Numeric text outside the accepted range counts as zero
	assert.True(t, desk.Text("1e2000000000").Decimal().IsZero())
	assert.True(t, desk.Text(strings.Repeat("1", 65)).Decimal().IsZero())
	assert.True(t, desk.Text("1e30").Decimal().Equal(dec("1e30")))

	ov := desk.ComputeOverview(desk.CalcData{"salary": desk.Text("1e2000000000"), "bonus": desk.NumberFromFloat(40)}, nil)
	assert.True(t, ov.IncomeTotal.Equal(dec("40")), ov.IncomeTotal.String())
}

func TestProperty_ComputeOverview(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Amounts in cents, up to 10 million.
	cents := gen.Int64Range(0, 1_000_000_000)
	quarter := dec("0.25")

	properties.Property("taxable income is never negative", prop.ForAll(
		func(salary, retirement int64) bool {
			ov := desk.ComputeOverview(
				desk.CalcData{"salary": desk.Number(decimal.New(salary, -2))},
				desk.CalcData{"retirement": desk.Number(decimal.New(retirement, -2))},
			)
			return !ov.TaxableIncome.IsNegative()
		},
		cents, cents,
	))

	properties.Property("tax is a quarter of taxable income rounded to cents", prop.ForAll(
		func(salary, bonus, health int64) bool {
			ov := desk.ComputeOverview(
				desk.CalcData{"salary": desk.Number(decimal.New(salary, -2)), "bonus": desk.Number(decimal.New(bonus, -2))},
				desk.CalcData{"health": desk.Number(decimal.New(health, -2))},
			)
			want := decimal.Max(decimal.Zero, decimal.New(salary+bonus-health, -2))
			return ov.TaxableIncome.Equal(want) &&
				ov.EstimatedTax.Equal(want.Mul(quarter).Round(2))
		},
		cents, cents, cents,
	))

	properties.TestingRun(t)
}
