package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// Mode identifies which screen is currently active.
type Mode int

const (
	// ModeConsult is the question form.
	ModeConsult Mode = iota
	// ModeRunning shows progress while the pipeline works.
	ModeRunning
	// ModeResult shows the final recommendation.
	ModeResult
	// ModeSearch is the evidence lookup screen.
	ModeSearch
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeConsult:
		return "consult"
	case ModeRunning:
		return "running"
	case ModeResult:
		return "result"
	case ModeSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Field identifies the focused element of the consult form.
type Field int

const (
	// FieldQuestion is the free-text question input.
	FieldQuestion Field = iota
	// FieldScenario is the scenario picker.
	FieldScenario
	// FieldPatient is the patient-data JSON editor.
	FieldPatient
)

const fieldCount = 3

// scenarioAuto labels the picker option that lets the router infer the
// scenario from the question and payload.
const scenarioAuto = "auto"

// scenarioOptions is the picker's option list: auto plus every handled
// scenario.
var scenarioOptions = func() []string {
	opts := []string{scenarioAuto}
	for _, s := range domain.KnownScenarios {
		opts = append(opts, s.String())
	}
	return opts
}()

// App is the console application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the console styles.
	styles *Styles

	// mode tracks which screen is active.
	mode Mode

	// field tracks the focused form element in consult mode.
	field Field

	// question is the free-text question input.
	question textinput.Model

	// scenario indexes scenarioOptions.
	scenario int

	// patient is the patient-data JSON editor.
	patient textarea.Model

	// spinner animates while the pipeline runs.
	spinner spinner.Model

	// result scrolls the rendered recommendation.
	result viewport.Model

	// response is the last pipeline answer, nil before the first run.
	response *domain.DecisionResponse

	// searchInput is the evidence lookup query input.
	searchInput textinput.Model

	// searchView scrolls the rendered hits.
	searchView viewport.Model

	// hits holds the last evidence lookup results.
	hits []domain.RetrievalHit

	// searching indicates an evidence lookup is in flight.
	searching bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new console application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating console: %w", err)
	}

	s := DefaultStyles()

	question := textinput.New()
	question.Placeholder = "What do you want to know?"
	question.CharLimit = 512
	question.Width = 60
	question.Focus()

	patient := textarea.New()
	patient.Placeholder = `{"female": true, "non_smoker": true, "surgery_duration_min": 95}`
	patient.CharLimit = 0
	patient.SetWidth(60)
	patient.SetHeight(6)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	searchInput := textinput.New()
	searchInput.Placeholder = "Search the guideline corpus..."
	searchInput.CharLimit = 256
	searchInput.Width = 60

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		mode:        ModeConsult,
		field:       FieldQuestion,
		question:    question,
		patient:     patient,
		spinner:     sp,
		result:      viewport.New(80, 20),
		searchInput: searchInput,
		searchView:  viewport.New(80, 20),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("consilium - clinical decision support"),
		textinput.Blink,
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.mode {
		case ModeConsult:
			return a.handleConsultKey(msg)
		case ModeRunning:
			// Ignore input while the pipeline runs.
			return a, nil
		case ModeResult:
			return a.handleResultKey(msg)
		case ModeSearch:
			return a.handleSearchKey(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if a.mode != ModeRunning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case DecideCompleted:
		return a.handleDecideCompleted(msg)

	case SearchCompleted:
		return a.handleSearchCompleted(msg)
	}

	return a, nil
}

// handleConsultKey processes keyboard input on the consult form.
func (a *App) handleConsultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		return a, tea.Quit

	case tea.KeyTab:
		return a, a.focusField((a.field + 1) % fieldCount)

	case tea.KeyShiftTab:
		return a, a.focusField((a.field + fieldCount - 1) % fieldCount)

	case tea.KeyLeft:
		if a.field == FieldScenario {
			a.scenario = (a.scenario + len(scenarioOptions) - 1) % len(scenarioOptions)
			return a, nil
		}

	case tea.KeyRight:
		if a.field == FieldScenario {
			a.scenario = (a.scenario + 1) % len(scenarioOptions)
			return a, nil
		}

	case tea.KeyEnter:
		// Enter submits unless the JSON editor has focus, where it
		// inserts a newline.
		if a.field != FieldPatient {
			return a, a.submit()
		}
	}

	if msg.String() == "ctrl+r" {
		return a, a.submit()
	}
	if msg.String() == "ctrl+f" {
		return a, a.enterSearch()
	}

	// Forward remaining keys to the focused component.
	var cmd tea.Cmd
	switch a.field {
	case FieldQuestion:
		a.question, cmd = a.question.Update(msg)
	case FieldPatient:
		a.patient, cmd = a.patient.Update(msg)
	case FieldScenario:
		// The picker only reacts to left/right.
	}
	return a, cmd
}

// handleResultKey processes keyboard input on the result screen.
func (a *App) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		a.mode = ModeConsult
		return a, a.focusField(a.field)
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "n":
		// New consult: clear the question, keep the patient payload.
		a.question.SetValue("")
		a.mode = ModeConsult
		return a, a.focusField(FieldQuestion)
	case "s":
		return a, a.enterSearch()
	}

	// Scrolling keys go to the viewport.
	var cmd tea.Cmd
	a.result, cmd = a.result.Update(msg)
	return a, cmd
}

// handleSearchKey processes keyboard input on the search screen.
func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		a.mode = ModeConsult
		a.searchInput.Blur()
		return a, a.focusField(a.field)

	case tea.KeyEnter:
		query := strings.TrimSpace(a.searchInput.Value())
		if query == "" {
			return a, nil
		}
		a.searching = true
		a.err = nil
		return a, a.performSearch(query)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	a.searchView, cmd = a.searchView.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// focusField moves form focus to the given field.
func (a *App) focusField(f Field) tea.Cmd {
	a.field = f
	a.question.Blur()
	a.patient.Blur()

	switch f {
	case FieldQuestion:
		return a.question.Focus()
	case FieldPatient:
		return a.patient.Focus()
	case FieldScenario:
		// The picker has no cursor to place.
	}
	return nil
}

// enterSearch switches to the evidence lookup screen.
func (a *App) enterSearch() tea.Cmd {
	a.mode = ModeSearch
	a.err = nil
	a.question.Blur()
	a.patient.Blur()
	return a.searchInput.Focus()
}

// submit validates the form and starts a pipeline run.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.question.Value())
	if question == "" {
		a.err = errors.New("enter a question first")
		return nil
	}

	var payload map[string]any
	if raw := strings.TrimSpace(a.patient.Value()); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			a.err = fmt.Errorf("patient data is not valid JSON: %w", err)
			return nil
		}
	}

	scenario := ""
	if a.scenario > 0 {
		scenario = scenarioOptions[a.scenario]
	}

	req := domain.DecisionRequest{
		Scenario:    scenario,
		Question:    question,
		PatientData: payload,
	}

	a.err = nil
	a.mode = ModeRunning
	return tea.Batch(a.spinner.Tick, a.performDecide(req))
}

// performDecide runs the pipeline off the update loop.
func (a *App) performDecide(req domain.DecisionRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := a.ports.Decision.Decide(a.ctx, req)
		return DecideCompleted{Response: resp, Err: err}
	}
}

// performSearch runs an evidence lookup off the update loop.
func (a *App) performSearch(query string) tea.Cmd {
	return func() tea.Msg {
		hits, err := a.ports.Retrieval.Retrieve(a.ctx, query, domain.TopKDefault)
		return SearchCompleted{Query: query, Hits: hits, Err: err}
	}
}

// handleDecideCompleted stores the pipeline answer and shows it.
func (a *App) handleDecideCompleted(msg DecideCompleted) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		a.err = msg.Err
		a.mode = ModeConsult
		return a, a.focusField(a.field)
	}

	resp := msg.Response
	a.response = &resp
	a.err = nil
	a.mode = ModeResult
	a.result.SetContent(renderDecision(a.styles, resp, a.contentWidth()))
	a.result.GotoTop()
	return a, nil
}

// handleSearchCompleted stores the hits and renders them.
func (a *App) handleSearchCompleted(msg SearchCompleted) (tea.Model, tea.Cmd) {
	a.searching = false
	if msg.Err != nil {
		a.err = msg.Err
		return a, nil
	}

	a.err = nil
	a.hits = msg.Hits
	a.searchView.SetContent(renderHits(a.styles, msg.Query, msg.Hits, a.contentWidth()))
	a.searchView.GotoTop()
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.mode {
	case ModeConsult:
		return a.viewConsult()
	case ModeRunning:
		return a.viewRunning()
	case ModeResult:
		return a.viewResult()
	case ModeSearch:
		return a.viewSearch()
	default:
		return a.viewConsult()
	}
}

// viewConsult renders the question form.
func (a *App) viewConsult() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Consilium"))
	b.WriteString("\n")
	b.WriteString(a.styles.Muted.Render("Multi-agent clinical decision support"))
	b.WriteString("\n\n")

	b.WriteString(a.fieldLabel("Question", FieldQuestion))
	b.WriteString("\n")
	b.WriteString(a.frameFor(FieldQuestion).Render(a.question.View()))
	b.WriteString("\n\n")

	b.WriteString(a.fieldLabel("Scenario", FieldScenario))
	b.WriteString("\n")
	b.WriteString(a.renderScenarioPicker())
	b.WriteString("\n\n")

	b.WriteString(a.fieldLabel("Patient data (JSON, optional)", FieldPatient))
	b.WriteString("\n")
	b.WriteString(a.frameFor(FieldPatient).Render(a.patient.View()))
	b.WriteString("\n")

	if a.err != nil {
		b.WriteString("\n")
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render(
		"tab next field · enter/ctrl+r consult · ←/→ pick scenario · ctrl+f search evidence · esc quit"))

	return b.String()
}

// fieldLabel renders a form label, highlighted when its field has focus.
func (a *App) fieldLabel(label string, f Field) string {
	if a.field == f {
		return a.styles.Subtitle.Render(label)
	}
	return a.styles.Muted.Render(label)
}

// frameFor returns the input frame style, highlighted on focus.
func (a *App) frameFor(f Field) lipgloss.Style {
	if a.field == f {
		return a.styles.FocusedField
	}
	return a.styles.InputField
}

// renderScenarioPicker renders the option row with the chosen entry
// highlighted.
func (a *App) renderScenarioPicker() string {
	parts := make([]string, 0, len(scenarioOptions))
	for i, opt := range scenarioOptions {
		if i == a.scenario {
			parts = append(parts, a.styles.Selected.Render(" "+opt+" "))
			continue
		}
		parts = append(parts, a.styles.Normal.Render(" "+opt+" "))
	}
	return strings.Join(parts, " ")
}

// viewRunning renders the progress screen.
func (a *App) viewRunning() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Consilium"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(a.styles.Normal.Render(" Consulting the panel..."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render(
		"Surgeon, anesthesiologist and nurse agents are reviewing the evidence."))
	return b.String()
}

// viewResult renders the recommendation screen.
func (a *App) viewResult() string {
	var b strings.Builder
	b.WriteString(a.result.View())
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render(
		"↑/↓ scroll · n new question · s search evidence · esc back · q quit"))
	return b.String()
}

// viewSearch renders the evidence lookup screen.
func (a *App) viewSearch() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Evidence search"))
	b.WriteString("\n\n")
	b.WriteString(a.styles.FocusedField.Render(a.searchInput.View()))
	b.WriteString("\n")

	switch {
	case a.searching:
		b.WriteString(a.styles.Muted.Render("Searching..."))
		b.WriteString("\n")
	case a.err != nil:
		b.WriteString(a.styles.Error.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.searchView.View())
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("enter search · ↑/↓ scroll · esc back"))

	return b.String()
}

// SetDimensions sets the terminal dimensions and resizes components.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	inputWidth := width - 8
	if inputWidth < 30 {
		inputWidth = 30
	}
	a.question.Width = inputWidth
	a.searchInput.Width = inputWidth
	a.patient.SetWidth(inputWidth)

	viewHeight := height - 4
	if viewHeight < 5 {
		viewHeight = 5
	}
	a.result.Width = width
	a.result.Height = viewHeight
	a.searchView.Width = width
	a.searchView.Height = viewHeight - 4
}

// contentWidth returns the usable width for rendered content.
func (a *App) contentWidth() int {
	if a.width == 0 {
		return 80
	}
	return a.width
}

// Run starts the console application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentMode returns the active screen.
func (a *App) CurrentMode() Mode {
	return a.mode
}

// FocusedField returns the focused form element.
func (a *App) FocusedField() Field {
	return a.field
}

// Question returns the current question text.
func (a *App) Question() string {
	return a.question.Value()
}

// ScenarioValue returns the picked scenario, empty for auto.
func (a *App) ScenarioValue() string {
	if a.scenario == 0 {
		return ""
	}
	return scenarioOptions[a.scenario]
}

// Response returns the last pipeline answer, nil before the first run.
func (a *App) Response() *domain.DecisionResponse {
	return a.response
}

// Hits returns the last evidence lookup results.
func (a *App) Hits() []domain.RetrievalHit {
	return a.hits
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}
