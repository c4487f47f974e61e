package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/session"
)

type editorState int

const (
	editorStateBrowse editorState = iota
	editorStateForm
	editorStateSyncing
)

type formKind int

const (
	formIncome formKind = iota
	formAdd
	formEdit
)

// formFields outlives model copies so huh can write into it.
type formFields struct {
	kind   formKind
	id     string
	name   string
	amount string
}

type EditorModel struct {
	CommonModel
	session *session.Session

	state   editorState
	table   table.Model
	spinner spinner.Model
	form    *huh.Form
	fields  *formFields

	budget budget.Budget
	notice string
	err    error
}

func NewEditorModel(s *session.Session) EditorModel {
	columns := []table.Column{
		{Title: "Category", Width: 30},
		{Title: "Amount", Width: 14},
		{Title: "Share", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(st)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := EditorModel{
		session: s,
		table:   t,
		spinner: sp,
		fields:  &formFields{},
	}
	m.refresh()

	return m
}

func (m EditorModel) Title() string { return "Budget" }

func (m EditorModel) ShortHelp() string {
	switch m.state {
	case editorStateForm:
		return "Navigate form | Esc: cancel"
	case editorStateSyncing:
		return "Syncing..."
	}

	return "Esc: back | i: income | a: add | e: edit | d: delete | s: sync"
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case editorSavedMsg:
		m.err = msg.err
		m.refresh()

		return m, nil

	case syncResultMsg:
		m.state = editorStateBrowse
		m.table.Focus()
		m.err = msg.err

		switch {
		case msg.err != nil:
			m.notice = ""
		case msg.outcome == session.OutcomeOverwritten:
			m.notice = session.OverwriteNotice
		default:
			m.notice = "Synced."
		}

		m.refresh()

		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-14, 5))

		return m, nil
	}

	switch m.state {
	case editorStateBrowse:
		return m.updateBrowse(msg)
	case editorStateForm:
		return m.updateForm(msg)
	case editorStateSyncing:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m EditorModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "i":
			*m.fields = formFields{kind: formIncome, amount: m.budget.Income.String()}
			return m.openForm()
		case "a":
			*m.fields = formFields{kind: formAdd}
			return m.openForm()
		case "e":
			c, ok := m.selected()
			if !ok {
				return m, nil
			}

			*m.fields = formFields{kind: formEdit, id: c.ID, name: c.Name, amount: c.Amount.String()}

			return m.openForm()
		case "d":
			c, ok := m.selected()
			if !ok {
				return m, nil
			}

			return m, m.saveCmd(func(s *session.Session) error {
				ctx, cancel := LocalCtx()
				defer cancel()

				return s.RemoveCategory(ctx, c.ID)
			})
		case "s":
			m.state = editorStateSyncing
			m.notice = ""
			m.err = nil
			m.table.Blur()

			return m, tea.Batch(m.spinner.Tick, m.syncCmd())
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m EditorModel) selected() (budget.Category, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.budget.Categories) {
		return budget.Category{}, false
	}

	return m.budget.Categories[idx], true
}

func validateAmount(s string) error {
	if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a number")
	}

	return nil
}

func (m EditorModel) openForm() (tea.Model, tea.Cmd) {
	var fields []huh.Field

	switch m.fields.kind {
	case formAdd:
		fields = append(fields, huh.NewInput().
			Key("name").
			Title("Category").
			Value(&m.fields.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name cannot be empty")
				}
				return nil
			}))
	case formEdit:
		fields = append(fields, huh.NewNote().Title(m.fields.name))
	}

	title := "Amount"
	if m.fields.kind == formIncome {
		title = "Monthly income"
	}

	fields = append(fields, huh.NewInput().
		Key("amount").
		Title(title).
		Placeholder("0.00").
		Value(&m.fields.amount).
		Validate(validateAmount))

	m.form = huh.NewForm(huh.NewGroup(fields...)).WithWidth(40).WithShowHelp(false)
	m.state = editorStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m EditorModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	f := *m.fields
	amount, err := decimal.NewFromString(strings.TrimSpace(f.amount))
	m = m.closeForm()

	if err != nil {
		m.err = err
		return m, nil
	}

	return m, m.saveCmd(func(s *session.Session) error {
		ctx, cancel := LocalCtx()
		defer cancel()

		switch f.kind {
		case formIncome:
			return s.SetIncome(ctx, amount)
		case formAdd:
			return s.AddCategory(ctx, strings.TrimSpace(f.name), amount)
		default:
			return s.UpdateCategoryAmount(ctx, f.id, amount)
		}
	})
}

func (m EditorModel) closeForm() EditorModel {
	m.state = editorStateBrowse
	m.form = nil
	m.table.Focus()

	return m
}

// refresh reloads the budget snapshot from the session.
func (m *EditorModel) refresh() {
	b, err := m.session.Budget()
	if err != nil {
		m.err = err
		return
	}

	m.budget = b

	rows := make([]table.Row, 0, len(b.Categories))
	for _, c := range b.Categories {
		rows = append(rows, table.Row{c.Name, FormatAmount(c.Amount), share(c.Amount, b.TotalExpenses)})
	}

	m.table.SetRows(rows)

	if cur := m.table.Cursor(); cur >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// share is part as a percentage of whole.
func share(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "-"
	}

	return part.Div(whole).Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}

func (m EditorModel) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s · %s", m.budget.UserID, m.budget.Month)),
		"   ",
		StatusBadge(m.session.Status()),
	)

	summary := fmt.Sprintf("Income %s | Expenses %s | Remaining %s",
		activeStyle(FormatAmount(m.budget.Income)),
		FormatAmount(m.budget.TotalExpenses),
		activeStyle(FormatAmount(budget.Remaining(m.budget))),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().PaddingBottom(1).Render(summary),
		tableView,
	)

	if m.state == editorStateForm && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(44).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	var footer string

	switch {
	case m.state == editorStateSyncing:
		footer = fmt.Sprintf("%s Syncing with server...", m.spinner.View())
	case m.err != nil:
		footer = errorStyle(fmt.Sprintf("Error: %v", m.err))
	case m.notice != "":
		footer = lipgloss.NewStyle().Faint(true).Render(m.notice)
	}

	if footer != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", footer)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type editorSavedMsg struct {
	err error
}

func (m EditorModel) saveCmd(op func(s *session.Session) error) tea.Cmd {
	s := m.session

	return func() tea.Msg {
		return editorSavedMsg{err: op(s)}
	}
}

type syncResultMsg struct {
	outcome session.Outcome
	err     error
}

func (m EditorModel) syncCmd() tea.Cmd {
	s := m.session

	return func() tea.Msg {
		ctx, cancel := SyncCtx()
		defer cancel()

		outcome, err := s.Sync(ctx)

		return syncResultMsg{outcome: outcome, err: err}
	}
}
