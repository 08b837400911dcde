package romwizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/editor"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/theme"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
)

type itemKind int

const (
	itemOption itemKind = iota
	itemField
	itemAdd
	itemSlot
	itemFile
	itemRemarks
)

type scope int

const (
	scopeRegister scope = iota
	scopeCouple
	scopeWitness
)

// item is one focusable row of a step.
type item struct {
	kind  itemKind
	label string
	value string

	id domain.ID // itemOption

	scope scope // itemField
	group int
	role  booking.Role
	field booking.PersonField

	slot   booking.Slot // itemSlot, itemFile
	fileID string
}

// items lists the focusable rows of s in display order.
func items(s wizard.Surface) []item {
	var out []item
	switch s.Step {
	case wizard.StepVenue, wizard.StepSession, wizard.StepPayment:
		for _, o := range s.Options {
			out = append(out, item{kind: itemOption, id: o.ID, label: o.Label})
		}
		if s.Step == wizard.StepPayment {
			out = append(out, item{kind: itemRemarks, label: "Remarks", value: s.Remarks})
		}
	case wizard.StepRegister:
		if s.Person != nil {
			for _, f := range s.Person.Fields {
				out = append(out, item{kind: itemField, scope: scopeRegister, field: f.Field, label: f.Label, value: f.Value})
			}
		}
	case wizard.StepCouples, wizard.StepWitnesses:
		sc := scopeCouple
		add := "Add couple"
		if s.Step == wizard.StepWitnesses {
			sc = scopeWitness
			add = "Add witness"
		}
		for _, g := range s.Groups {
			for _, p := range g.People {
				for _, f := range p.Fields {
					out = append(out, item{
						kind:  itemField,
						scope: sc,
						group: g.Index,
						role:  p.Role,
						field: f.Field,
						label: f.Label,
						value: f.Value,
					})
				}
			}
		}
		out = append(out, item{kind: itemAdd, scope: sc, label: add})
	case wizard.StepDocuments:
		for _, sv := range s.Slots {
			out = append(out, item{kind: itemSlot, slot: sv.Slot, label: sv.Label})
			for _, f := range sv.Pending {
				out = append(out, item{kind: itemFile, slot: sv.Slot, fileID: f.ID, label: f.Name})
			}
		}
	}
	return out
}

// updateStep handles keys aimed at the step content.
func (m *Model) updateStep(msg tea.KeyPressMsg) tea.Cmd {
	s := m.wiz.RenderCurrent()
	if s.Step == wizard.StepDate {
		return m.updateCalendar(msg.String())
	}

	rows := items(s)
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "pgup":
		m.summary.PageUp()
	case "pgdown":
		m.summary.PageDown()
	case "a":
		if s.Step == wizard.StepCouples || s.Step == wizard.StepWitnesses {
			return m.addGroup(s.Step)
		}
	case "e":
		if s.Step == wizard.StepPayment && os.Getenv("EDITOR") != "" {
			return m.openEditor(s.Remarks)
		}
	case "x", "delete":
		if m.cursor < len(rows) {
			return m.remove(rows[m.cursor])
		}
	case "enter", " ":
		if m.cursor < len(rows) {
			return m.activate(s.Step, rows[m.cursor])
		}
	}
	return nil
}

func (m *Model) activate(step wizard.Step, it item) tea.Cmd {
	switch it.kind {
	case itemOption:
		var err error
		switch step {
		case wizard.StepVenue:
			err = m.wiz.SelectVenue(it.id)
		case wizard.StepSession:
			err = m.wiz.SelectSession(it.id)
		case wizard.StepPayment:
			err = m.wiz.SelectPaymentMode(it.id)
		}
		if err != nil {
			logger.Warn("Selection rejected: %v", err)
			return m.toast.Show("That option is not available.", wizard.LevelError)
		}
		return m.sync()
	case itemField, itemRemarks:
		if it.kind == itemRemarks && os.Getenv("EDITOR") != "" {
			return m.openEditor(it.value)
		}
		return m.beginEdit(it)
	case itemAdd:
		return m.addGroup(step)
	case itemSlot:
		m.picking = it.slot
		m.input.SetValue("")
		m.input.Placeholder = "path/to/file.pdf, scan.jpg"
		return m.input.Focus()
	}
	return nil
}

func (m *Model) addGroup(step wizard.Step) tea.Cmd {
	var (
		idx int
		err error
		sc  scope
	)
	if step == wizard.StepCouples {
		idx, err = m.wiz.AddCouple()
		sc = scopeCouple
	} else {
		idx, err = m.wiz.AddWitness()
		sc = scopeWitness
	}
	if err != nil {
		return nil
	}
	for i, it := range items(m.wiz.RenderCurrent()) {
		if it.kind == itemField && it.scope == sc && it.group == idx {
			m.cursor = i
			break
		}
	}
	return nil
}

func (m *Model) remove(it item) tea.Cmd {
	switch {
	case it.kind == itemFile:
		m.wiz.RemoveFile(it.slot, it.fileID)
	case it.kind == itemField && it.scope == scopeCouple:
		_ = m.wiz.RemoveCouple(it.group)
	case it.kind == itemField && it.scope == scopeWitness:
		_ = m.wiz.RemoveWitness(it.group)
	default:
		return nil
	}
	if n := len(items(m.wiz.RenderCurrent())); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	return nil
}

func (m *Model) beginEdit(it item) tea.Cmd {
	m.editing = &it
	m.input.Placeholder = it.label
	m.input.SetValue(it.value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopEditing() {
	m.editing = nil
	m.input.Blur()
}

func (m *Model) stopPicking() {
	m.picking = ""
	m.input.Blur()
}

// updateEditing writes every keystroke through to the draft.
func (m *Model) updateEditing(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		m.stopEditing()
		return m, nil
	case "enter":
		m.stopEditing()
		rows := items(m.wiz.RenderCurrent())
		if m.cursor+1 < len(rows) && rows[m.cursor+1].kind == itemField {
			m.cursor++
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.writeField(*m.editing, v)
	}
	return m, tea.Batch(cmd, m.sync())
}

func (m *Model) writeField(it item, value string) {
	var err error
	switch {
	case it.kind == itemRemarks:
		err = m.wiz.SetRemarks(value)
	case it.scope == scopeRegister:
		err = m.wiz.SetRegisterField(it.field, value)
	case it.scope == scopeCouple:
		err = m.wiz.UpdateCouple(it.group, it.role, it.field, value)
	case it.scope == scopeWitness:
		err = m.wiz.UpdateWitness(it.group, it.field, value)
	}
	if err != nil {
		logger.Debug("Field %s not written: %v", it.field, err)
	}
}

// updatePicking handles the file path prompt of the documents step.
func (m *Model) updatePicking(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopPicking()
		return m, nil
	case "enter":
		slot := m.picking
		paths := splitPaths(m.input.Value())
		m.stopPicking()
		if len(paths) == 0 {
			return m, nil
		}
		files, err := m.wiz.SelectFiles(slot, paths)
		if err != nil {
			return m, m.sync()
		}
		return m, tea.Batch(m.sync(), m.previewCmds(slot, files))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// splitPaths splits a comma-separated path list. Quotes added by terminal
// drag and drop are stripped.
func splitPaths(s string) []string {
	var paths []string
	for _, p := range strings.Split(s, ",") {
		p = strings.Trim(strings.TrimSpace(p), `"'`)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// previewCmds renders thumbnails in the background, one command per file.
func (m *Model) previewCmds(slot booking.Slot, files []booking.FileHandle) tea.Cmd {
	if m.previews == nil {
		return nil
	}
	gen, ok := m.previews.Value()
	if !ok {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(files))
	for _, f := range files {
		cmds = append(cmds, func() tea.Msg {
			p, err := gen.Generate(f)
			return PreviewReadyMsg{Slot: slot, FileID: f.ID, Preview: p, Err: err}
		})
	}
	return tea.Batch(cmds...)
}

// openEditor launches $EDITOR on the remarks.
func (m *Model) openEditor(current string) tea.Cmd {
	tmpfile, err := os.CreateTemp("", "templectl_remarks_*.txt")
	if err != nil {
		logger.Warn("Cannot create remarks file: %v", err)
		return nil
	}
	if _, err := tmpfile.WriteString(current); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(tmpfile.Name())
		return nil
	}
	_ = tmpfile.Close()
	path := tmpfile.Name()
	m.remarksFile = path

	cmd, err := editor.Command("templectl", path)
	if err != nil {
		_ = os.Remove(path)
		m.remarksFile = ""
		return nil
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		if err != nil {
			return RemarksEditedMsg{Err: err}
		}
		content, err := os.ReadFile(path)
		return RemarksEditedMsg{Content: string(content), Err: err}
	})
}

// updateCalendar moves the day cursor and picks dates.
func (m *Model) updateCalendar(key string) tea.Cmd {
	switch key {
	case "left", "h":
		m.moveDay(-1)
	case "right", "l":
		m.moveDay(1)
	case "up", "k":
		m.moveDay(-7)
	case "down", "j":
		m.moveDay(7)
	case "[", "pgup":
		m.shiftMonth(-1)
	case "]", "pgdown":
		m.shiftMonth(1)
	case "enter", " ":
		if err := m.wiz.SelectDate(m.day); err != nil {
			logger.Debug("Date rejected: %v", err)
			return m.toast.Show("That date is not available.", wizard.LevelWarning)
		}
		return m.sync()
	}
	return nil
}

func (m *Model) moveDay(days int) {
	day := m.day.AddDate(0, 0, days)
	floor := monthStart(m.wiz.Today())
	if shown := m.wiz.CalendarMonth(); shown.Before(floor) {
		floor = shown
	}
	if day.Before(floor) {
		return
	}
	m.day = day
	m.followDay()
}

func (m *Model) shiftMonth(delta int) {
	m.wiz.ShiftMonth(delta)
	m.day = m.wiz.CalendarMonth()
	if today := m.wiz.Today(); m.day.Before(today) && monthStart(today).Equal(m.day) {
		m.day = today
	}
}

// followDay keeps the displayed month on the cursor.
func (m *Model) followDay() {
	shown := m.wiz.CalendarMonth()
	target := monthStart(m.day)
	delta := (target.Year()-shown.Year())*12 + int(target.Month()) - int(shown.Month())
	if delta != 0 {
		m.wiz.ShiftMonth(delta)
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// row renders one focusable line.
func (m *Model) row(i int, text string) string {
	if i == m.cursor && !m.buttonFocused && m.editing == nil && m.picking == "" {
		return theme.Current().S().Cursor.Render("› " + text)
	}
	return "  " + text
}

func (m *Model) renderBody(s wizard.Surface) string {
	st := theme.Current().S()
	var lines []string

	switch s.Step {
	case wizard.StepVenue, wizard.StepSession, wizard.StepPayment:
		lines = append(lines, m.renderOptions(s)...)
		if s.Amount != "" {
			lines = append(lines, "", st.Text.Render("Amount: "+s.Amount))
		}
		if s.Step == wizard.StepPayment {
			lines = append(lines, m.renderPaymentExtras(s, len(s.Options))...)
		}
	case wizard.StepDate:
		lines = append(lines, m.renderCalendar(s.Calendar))
		if d := m.wiz.Snapshot().Date; !d.IsZero() {
			lines = append(lines, "", st.Text.Render("Selected: "+d.Format("Mon, 2 Jan 2006")))
		}
	case wizard.StepRegister:
		if s.Person != nil {
			lines = append(lines, m.renderFields(0, *s.Person)...)
		}
	case wizard.StepCouples, wizard.StepWitnesses:
		lines = append(lines, m.renderGroups(s)...)
	case wizard.StepDocuments:
		lines = append(lines, m.renderSlots(s)...)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderOptions(s wizard.Surface) []string {
	st := theme.Current().S()
	if len(s.Options) == 0 {
		return []string{st.Muted.Render(s.Empty)}
	}
	lines := make([]string, 0, len(s.Options))
	for i, o := range s.Options {
		mark := "( )"
		label := o.Label
		if o.Selected {
			mark = "(•)"
			label = st.Selected.Render(label)
		}
		text := mark + " " + label
		if o.Detail != "" {
			text += "  " + st.Muted.Render(o.Detail)
		}
		lines = append(lines, m.row(i, text))
	}
	return lines
}

func (m *Model) renderPaymentExtras(s wizard.Surface, offset int) []string {
	st := theme.Current().S()
	lines := []string{""}

	remarks := s.Remarks
	if remarks == "" {
		remarks = st.Muted.Render("none")
	}
	if m.editing != nil && m.editing.kind == itemRemarks {
		remarks = m.input.View()
	}
	lines = append(lines, m.row(offset, "Remarks: "+remarks))

	if s.Summary != m.summaryText {
		m.summaryText = s.Summary
		m.summary.SetContent(renderMarkdown(s.Summary, modalContentWidth))
	}
	lines = append(lines, "", st.ModalTitle.Render("Summary"), m.summary.View())

	if s.Diff != "" {
		if d := renderDiff(s.Diff, 8); d != "" {
			lines = append(lines, "", st.ModalTitle.Render("Changes"), d)
		}
	}
	return lines
}

func (m *Model) renderFields(start int, pv wizard.PersonView) []string {
	st := theme.Current().S()
	lines := make([]string, 0, len(pv.Fields))
	for i, f := range pv.Fields {
		idx := start + i
		label := fmt.Sprintf("%-10s", f.Label)
		if f.Required {
			label += st.Required.Render("*")
		} else {
			label += " "
		}

		value := f.Value
		if m.editing != nil && idx == m.cursor {
			value = m.input.View()
		} else if f.Missing {
			value = st.Required.Render("required")
		}
		lines = append(lines, m.row(idx, label+" "+value))
	}
	return lines
}

func (m *Model) renderGroups(s wizard.Surface) []string {
	st := theme.Current().S()
	var lines []string
	idx := 0
	for _, g := range s.Groups {
		status := st.Muted.Render("incomplete")
		if g.Complete {
			status = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Success)).Render("✓")
		}
		lines = append(lines, st.Selected.Render(g.Title)+" "+status)
		for _, p := range g.People {
			if len(g.People) > 1 {
				lines = append(lines, "  "+st.Muted.Render(p.Title))
			}
			lines = append(lines, m.renderFields(idx, p)...)
			idx += len(p.Fields)
		}
		lines = append(lines, "")
	}
	if len(s.Groups) == 0 && s.Empty != "" {
		lines = append(lines, st.Muted.Render(s.Empty), "")
	}
	add := "Add couple"
	if s.Step == wizard.StepWitnesses {
		add = "Add witness"
	}
	lines = append(lines, m.row(idx, "+ "+add))
	return lines
}

func (m *Model) renderSlots(s wizard.Surface) []string {
	st := theme.Current().S()
	var lines []string
	idx := 0
	for _, sv := range s.Slots {
		label := sv.Label
		if sv.Multiple {
			label += st.Muted.Render(" (one or more)")
		}
		lines = append(lines, m.row(idx, "+ "+label))
		if m.picking == sv.Slot {
			lines = append(lines, "    "+m.input.View())
		}
		idx++

		for _, d := range sv.Existing {
			lines = append(lines, "    "+st.Muted.Render("✓ "+d.FileName+" (uploaded)"))
		}
		for _, f := range sv.Pending {
			lines = append(lines, m.row(idx, "  • "+f.Name+"  "+st.Muted.Render(fileDetail(f))))
			idx++
		}
	}
	return lines
}

func fileDetail(f wizard.FileView) string {
	detail := formatSize(f.Size)
	if f.Preview == nil {
		return detail
	}
	switch {
	case f.Preview.Kind == booking.PreviewPDF:
		detail += " · pdf"
	case f.Preview.ThumbPath != "":
		detail += fmt.Sprintf(" · preview %dx%d", f.Preview.Width, f.Preview.Height)
	default:
		detail += " · image"
	}
	return detail
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

var weekdays = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// renderCalendar draws the month grid. The cursor is bracketed and the
// selected date starred.
func (m *Model) renderCalendar(cal *wizard.Calendar) string {
	if cal == nil {
		return ""
	}
	t := theme.Current()
	st := t.S()

	var b strings.Builder
	b.WriteString(st.ModalTitle.Render(cal.Month.Format("January 2006")))
	b.WriteString("\n")
	for _, wd := range weekdays {
		b.WriteString(st.Muted.Render(" " + wd + " "))
	}
	for _, week := range cal.Weeks {
		b.WriteString("\n")
		for _, d := range week {
			b.WriteString(m.renderDay(d))
		}
	}
	return b.String()
}

func (m *Model) renderDay(d wizard.CalendarDay) string {
	st := theme.Current().S()
	if d.Date.IsZero() {
		return "    "
	}
	cell := fmt.Sprintf(" %2d ", d.Date.Day())
	switch {
	case d.Date.Equal(m.day) && !m.buttonFocused:
		return st.Cursor.Render(fmt.Sprintf("[%2d]", d.Date.Day()))
	case d.Selected:
		return st.Selected.Render(fmt.Sprintf("*%2d ", d.Date.Day()))
	case d.Disabled:
		return st.Disabled.Render(cell)
	case d.Today:
		return st.Text.Underline(true).Render(cell)
	}
	return st.Text.Render(cell)
}

func (m *Model) hint(s wizard.Surface) string {
	if m.buttonFocused {
		return renderHintBar("←→", "choose", "enter", "press", "esc", "back to form")
	}
	if m.editing != nil {
		return renderHintBar("enter", "next field", "esc", "done")
	}
	if m.picking != "" {
		return renderHintBar(",", "separate files", "enter", "attach", "esc", "cancel")
	}

	var pairs []string
	switch s.Step {
	case wizard.StepDate:
		pairs = []string{"←→↑↓", "move", "[ ]", "month", "enter", "pick"}
	case wizard.StepRegister:
		pairs = []string{"↑↓", "navigate", "enter", "edit"}
	case wizard.StepCouples, wizard.StepWitnesses:
		pairs = []string{"↑↓", "navigate", "enter", "edit", "a", "add", "x", "remove"}
	case wizard.StepDocuments:
		pairs = []string{"↑↓", "navigate", "enter", "attach", "x", "remove"}
	case wizard.StepPayment:
		pairs = []string{"↑↓", "navigate", "enter", "select", "pgup/pgdn", "summary"}
		if os.Getenv("EDITOR") != "" {
			pairs = append(pairs, "e", "remarks")
		}
	default:
		pairs = []string{"↑↓", "navigate", "enter", "select"}
	}
	pairs = append(pairs, "tab", "buttons", "esc", "cancel")
	return renderHintBar(pairs...)
}
