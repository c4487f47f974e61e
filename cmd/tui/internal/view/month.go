package view

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const monthLayout = "2006-01"

// MonthChoice is a predefined or custom budget month.
type MonthChoice int

const (
	MonthThis   MonthChoice = 0
	MonthLast   MonthChoice = 1
	MonthNext   MonthChoice = 2
	MonthCustom MonthChoice = 3
)

func (c MonthChoice) String() string {
	switch c {
	case MonthThis:
		return "This Month"
	case MonthLast:
		return "Last Month"
	case MonthNext:
		return "Next Month"
	case MonthCustom:
		return "Other Month"
	}

	return "Unknown"
}

// monthOf resolves a predefined choice relative to now.
func monthOf(c MonthChoice, now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	switch c {
	case MonthLast:
		first = first.AddDate(0, -1, 0)
	case MonthNext:
		first = first.AddDate(0, 1, 0)
	}

	return first.Format(monthLayout)
}

func parseMonth(s string) (string, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return "", errors.New("invalid month (YYYY-MM)")
	}

	return t.Format(monthLayout), nil
}

// MonthSelectedMsg is emitted when the user picked a valid month.
type MonthSelectedMsg struct {
	Month string
}

type monthState int

const (
	monthStateSelect monthState = iota
	monthStateCustom
)

// MonthPicker selects the budget month to open.
type MonthPicker struct {
	state    monthState
	selected MonthChoice
	input    textinput.Model
	now      func() time.Time

	err error
}

func NewMonthPicker() MonthPicker {
	in := textinput.New()
	in.Placeholder = "YYYY-MM"
	in.CharLimit = 7
	in.Width = 9
	in.Prompt = "Month: "

	return MonthPicker{
		state:    monthStateSelect,
		selected: MonthThis,
		input:    in,
		now:      time.Now,
	}
}

func (m MonthPicker) Title() string     { return "Choose Month" }
func (m MonthPicker) ShortHelp() string { return "Enter: select | Esc: back" }

func (m MonthPicker) Init() tea.Cmd {
	return nil
}

func (m MonthPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case monthStateSelect:
			return m.updateSelect(keyMsg)
		case monthStateCustom:
			return m.updateCustom(keyMsg)
		}
	}

	return m, nil
}

func (m MonthPicker) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, Back
	case tea.KeyUp:
		if m.selected > MonthThis {
			m.selected--
		}
	case tea.KeyDown:
		if m.selected < MonthCustom {
			m.selected++
		}
	case tea.KeyEnter:
		if m.selected == MonthCustom {
			m.state = monthStateCustom
			m.input.Focus()

			return m, textinput.Blink
		}

		month := monthOf(m.selected, m.now())

		return m, func() tea.Msg {
			return MonthSelectedMsg{Month: month}
		}
	}

	return m, nil
}

func (m MonthPicker) updateCustom(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = monthStateSelect
		m.err = nil
		m.input.Blur()

		return m, nil
	case tea.KeyEnter:
		month, err := parseMonth(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}

		m.err = nil

		return m, func() tea.Msg {
			return MonthSelectedMsg{Month: month}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m MonthPicker) View() string {
	errStr := ""
	if m.err != nil {
		errStr = "\n\n" + errorStyle(fmt.Sprintf("Error: %v", m.err))
	}

	if m.state == monthStateCustom {
		return fmt.Sprintf("Enter Month:\n\n%s\n\n(Enter to confirm, Esc to back)%s", m.input.View(), errStr)
	}

	s := "Select Month:\n\n"
	for c := MonthThis; c <= MonthCustom; c++ {
		cursor := " "
		label := c.String()

		if c != MonthCustom {
			label += "  " + monthOf(c, m.now())
		}

		if m.selected == c {
			cursor = ">"
			label = activeStyle(label)
		}

		s += fmt.Sprintf("%s %s\n", cursor, label)
	}

	return s + "\n(Enter to select, Esc to back)" + errStr
}
