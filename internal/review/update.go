package review

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		filtered := m.getFilteredFindings()
		switch msg.String() {
		case "q", "ctrl+c":
			if m.opts.StatePath != "" {
				m.saveErr = SaveReviewState(&m, m.opts.StatePath)
			}
			return m, tea.Quit

		case "n", "j", "down":
			if len(filtered) > 0 {
				m.currentFinding = (m.currentFinding + 1) % len(filtered)
			}

		case "p", "k", "up":
			if len(filtered) > 0 {
				m.currentFinding--
				if m.currentFinding < 0 {
					m.currentFinding = len(filtered) - 1
				}
			}

		case "]":
			m.jumpFile(1)

		case "[":
			m.jumpFile(-1)

		case "a":
			m.mark(StatusAccepted)

		case "r":
			m.mark(StatusRejected)

		case "u":
			m.mark("")

		case "tab":
			m.activePane = (m.activePane + 1) % 3

		case "e":
			m.setFilter(FilterErrors)

		case "w":
			m.setFilter(FilterWarnings)

		case "f":
			m.setFilter(FilterAll)
		}
	}

	return m, nil
}

// mark sets the selected finding's status; an empty status clears it.
func (m *Model) mark(st Status) {
	cur, ok := m.current()
	if !ok {
		return
	}
	id := findingID(cur)
	if st == "" {
		delete(m.status, id)
		return
	}
	m.status[id] = st
}

func (m *Model) setFilter(f Filter) {
	m.filter = f
	m.currentFinding = 0
}

// jumpFile selects the first finding of the next (dir 1) or previous
// (dir -1) file, wrapping around.
func (m *Model) jumpFile(dir int) {
	files := m.getFilteredFiles()
	if len(files) == 0 {
		return
	}
	i := (m.currentFile() + dir + len(files)) % len(files)
	m.currentFinding = files[i].first
}

// SaveErr is the error from saving triage on quit, if any.
func (m Model) SaveErr() error { return m.saveErr }

// Counts returns how many findings are accepted and rejected.
func (m Model) Counts() (accepted, rejected int) {
	for _, st := range m.status {
		switch st {
		case StatusAccepted:
			accepted++
		case StatusRejected:
			rejected++
		}
	}
	return accepted, rejected
}
