package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/pipeline"
	"github.com/matzehuels/svg2png/pkg/records"
)

// Progress view styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	recentStyle   = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	barWidth   = 40
	maxRecent  = 5
	tickPeriod = 100 * time.Millisecond
)

// =============================================================================
// Messages
// =============================================================================

// itemDoneMsg reports one finished record.
type itemDoneMsg struct {
	key      string
	duration time.Duration
	code     errors.Code
}

// batchDoneMsg reports the end of the batch.
type batchDoneMsg struct {
	result *pipeline.Result
	err    error
}

type tickMsg time.Time

// =============================================================================
// ProgressModel - Interactive batch progress
// =============================================================================

// ProgressModel is the bubbletea model for the --interactive progress view.
type ProgressModel struct {
	Total    int
	Done     int
	Failed   int
	Recent   []itemDoneMsg
	Start    time.Time
	Now      time.Time
	Stopping bool
	Result   *pipeline.Result
	Err      error
	cancel   context.CancelFunc
}

// NewProgressModel creates a progress model for total records. cancel is
// called when the user quits early.
func NewProgressModel(total int, cancel context.CancelFunc) ProgressModel {
	now := time.Now()
	return ProgressModel{Total: total, Start: now, Now: now, cancel: cancel}
}

func tick() tea.Cmd {
	return tea.Tick(tickPeriod, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Dispatch stops; the batch reports back with a cancellation.
			m.Stopping = true
			if m.cancel != nil {
				m.cancel()
			}
		}
	case itemDoneMsg:
		m.Done++
		if msg.code != "" {
			m.Failed++
		}
		m.Recent = append(m.Recent, msg)
		if len(m.Recent) > maxRecent {
			m.Recent = m.Recent[len(m.Recent)-maxRecent:]
		}
	case batchDoneMsg:
		m.Result = msg.result
		m.Err = msg.err
		return m, tea.Quit
	case tickMsg:
		m.Now = time.Time(msg)
		return m, tick()
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Converting records"))
	b.WriteString("\n")
	if m.Stopping {
		b.WriteString(StyleWarning.Render("stopping after in-flight records..."))
	} else {
		b.WriteString(StyleDim.Render("q quit"))
	}
	b.WriteString("\n\n")

	b.WriteString(renderBar(m.Done, m.Total, barWidth))
	b.WriteString(fmt.Sprintf("  %d/%d", m.Done, m.Total))
	if m.Failed > 0 {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  %d failed", m.Failed)))
	}
	b.WriteString(StyleDim.Render("  " + m.Now.Sub(m.Start).Round(100*time.Millisecond).String()))
	b.WriteString("\n\n")

	for _, r := range m.Recent {
		icon := styleIconSuccess.Render(iconSuccess)
		detail := r.duration.Round(time.Millisecond).String()
		if r.code != "" {
			icon = styleIconError.Render(iconError)
			detail = string(r.code)
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", icon, r.key, recentStyle.Render(detail)))
	}
	return b.String()
}

// renderBar draws a width-character progress bar.
func renderBar(done, total, width int) string {
	filled := width
	if total > 0 {
		filled = done * width / total
	}
	filled = max(0, min(filled, width))
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// =============================================================================
// Hooks and runner glue
// =============================================================================

// progressHooks forwards item events to a running bubbletea program.
type progressHooks struct {
	send func(tea.Msg)
}

func (h progressHooks) OnItemStart(context.Context, string) {}

func (h progressHooks) OnItemComplete(_ context.Context, key string, d time.Duration, err error) {
	h.send(itemDoneMsg{key: key, duration: d, code: errors.CodeOf(err)})
}

// runInteractive executes the batch while showing the progress view on
// stderr. Log output is suppressed while the view is active.
func runInteractive(ctx context.Context, runner *pipeline.Runner, in *records.Set, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgressModel(in.Len(), cancel), tea.WithOutput(os.Stderr))

	opts.Hooks = progressHooks{send: p.Send}
	opts.Logger = log.New(io.Discard)
	go func() {
		result, err := runner.Execute(ctx, in, opts)
		p.Send(batchDoneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress view: %w", err)
	}
	m := final.(ProgressModel)
	return m.Result, m.Err
}
