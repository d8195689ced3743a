package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/floats"

	"github.com/ERKuipers/campo/internal/dataset"
)

type level int

const (
	levelPhenomena level = iota
	levelSets
	levelProperties
)

// Browser is an interactive view of the phenomenon → property-set →
// property hierarchy.
type Browser struct {
	ds     *dataset.Dataset
	level  level
	cursor int
	phen   *dataset.Phenomenon
	set    *dataset.PropertySet

	// cursor positions of the levels above the current one
	stack []int

	width  int
	height int
}

func NewBrowser(ds *dataset.Dataset) *Browser {
	return &Browser{ds: ds, width: 80, height: 24}
}

func (m Browser) Init() tea.Cmd { return nil }

func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Browser) handleKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		m.descend()
	case "esc", "backspace", "left", "h":
		m.ascend()
	}
	return m, nil
}

func (m *Browser) descend() {
	switch m.level {
	case levelPhenomena:
		phens := m.ds.Phenomena()
		if len(phens) == 0 {
			return
		}
		m.phen = phens[m.cursor]
	case levelSets:
		sets := m.phen.PropertySets()
		if len(sets) == 0 {
			return
		}
		m.set = sets[m.cursor]
	default:
		return
	}
	m.stack = append(m.stack, m.cursor)
	m.level++
	m.cursor = 0
}

func (m *Browser) ascend() {
	if m.level == levelPhenomena {
		return
	}
	m.level--
	m.cursor = m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	switch m.level {
	case levelPhenomena:
		m.phen = nil
	case levelSets:
		m.set = nil
	}
}

type item struct {
	name string
	desc string
}

func (m Browser) items() []item {
	var out []item
	switch m.level {
	case levelPhenomena:
		for _, p := range m.ds.Phenomena() {
			out = append(out, item{p.Name, fmt.Sprintf("%d property sets", len(p.PropertySets()))})
		}
	case levelSets:
		for _, ps := range m.phen.PropertySets() {
			out = append(out, item{ps.Name, setInfo(ps)})
		}
	case levelProperties:
		for _, p := range m.set.Properties() {
			out = append(out, item{p.Name, propertyInfo(p)})
		}
	}
	return out
}

func setInfo(ps *dataset.PropertySet) string {
	if _, err := ps.SpaceType(); err != nil {
		return yellow.Render(fmt.Sprintf("%q (unsupported)", ps.Tag))
	}
	return fmt.Sprintf("%s, %d properties", ps.Tag, len(ps.Properties()))
}

func propertyInfo(p *dataset.Property) string {
	if p.IsField() {
		return fmt.Sprintf("field, %d objects", len(p.Objects()))
	}
	return fmt.Sprintf("%s %v, %d agents", p.Values.DType, p.Values.Shape, len(p.Coordinates))
}

// preview returns the values shown for a property: agent 0 over time for
// dynamic points, all agents for static points, the first object's cells
// for fields.
func preview(p *dataset.Property) []float64 {
	if p.IsField() {
		ids := p.Objects()
		if len(ids) == 0 {
			return nil
		}
		f, err := p.Field(ids[0])
		if err != nil {
			return nil
		}
		return f.Values.Data
	}
	if p.Values.Rank() == 2 {
		row, err := p.Values.Row(0)
		if err != nil {
			return nil
		}
		return row
	}
	return p.Values.Data
}

func (m Browser) breadcrumb() string {
	parts := []string{"campo"}
	if m.phen != nil {
		parts = append(parts, m.phen.Name)
	}
	if m.set != nil {
		parts = append(parts, m.set.Name)
	}
	return strings.Join(parts, " / ")
}

func (m Browser) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.breadcrumb()) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 40)) + "\n\n")

	items := m.items()
	if len(items) == 0 {
		b.WriteString("        " + dim.Render("(empty)") + "\n")
	}
	for i, it := range items {
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-20s", it.name)) + dim.Render(it.desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-20s", it.name)) + dimmer.Render(it.desc) + "\n")
		}
	}

	if m.level == levelProperties && m.cursor < len(items) {
		props := m.set.Properties()
		values := preview(props[m.cursor])
		if len(values) > 0 {
			b.WriteString("\n")
			b.WriteString("      " + SparklineChart(values, min(len(values), 40)) + "\n")
			b.WriteString(fmt.Sprintf("      %s %s  %s %s  %s %s\n",
				dim.Render("min"), magenta.Render(fmt.Sprintf("%g", floats.Min(values))),
				dim.Render("max"), magenta.Render(fmt.Sprintf("%g", floats.Max(values))),
				dim.Render("sum"), green.Render(fmt.Sprintf("%g", floats.Sum(values)))))
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter open   esc back   q quit") + "\n")

	return b.String()
}

// RunBrowser opens the hierarchy browser full screen.
func RunBrowser(ds *dataset.Dataset) error {
	p := tea.NewProgram(NewBrowser(ds), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
