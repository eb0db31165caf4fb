package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/pipeline"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return pm, cmd
}

func TestProgressModelCountsItems(t *testing.T) {
	m := NewProgressModel(3, nil)

	m, _ = update(t, m, itemDoneMsg{key: "a", duration: time.Millisecond})
	m, _ = update(t, m, itemDoneMsg{key: "b", code: errors.ErrCodeInvalidSVG})

	if m.Done != 2 || m.Failed != 1 {
		t.Errorf("done=%d failed=%d, want 2 and 1", m.Done, m.Failed)
	}
	view := m.View()
	for _, want := range []string{"2/3", "1 failed", "INVALID_SVG"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestProgressModelKeepsRecentItems(t *testing.T) {
	m := NewProgressModel(10, nil)
	for i := 0; i < maxRecent+3; i++ {
		m, _ = update(t, m, itemDoneMsg{key: string(rune('a' + i))})
	}
	if len(m.Recent) != maxRecent {
		t.Fatalf("len(Recent) = %d, want %d", len(m.Recent), maxRecent)
	}
	if m.Recent[len(m.Recent)-1].key != string(rune('a'+maxRecent+2)) {
		t.Errorf("last recent = %q", m.Recent[len(m.Recent)-1].key)
	}
}

func TestProgressModelQuitCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewProgressModel(1, cancel)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.Stopping {
		t.Error("model should be stopping after ctrl+c")
	}
	if ctx.Err() == nil {
		t.Error("ctrl+c should cancel the batch context")
	}
	if cmd != nil {
		t.Error("model should wait for the batch before quitting")
	}
}

func TestProgressModelBatchDone(t *testing.T) {
	m := NewProgressModel(1, nil)
	result := &pipeline.Result{RunID: "run"}

	m, cmd := update(t, m, batchDoneMsg{result: result})
	if m.Result != result {
		t.Error("result not stored")
	}
	if cmd == nil {
		t.Fatal("batch completion should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("batch completion should return tea.Quit")
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		done, total, full int
	}{
		{0, 4, 0},
		{2, 4, 4},
		{4, 4, 8},
		{0, 0, 8},
	}
	for _, tt := range tests {
		bar := renderBar(tt.done, tt.total, 8)
		if got := strings.Count(bar, "█"); got != tt.full {
			t.Errorf("renderBar(%d, %d) filled %d, want %d", tt.done, tt.total, got, tt.full)
		}
		if got := strings.Count(bar, "░"); got != 8-tt.full {
			t.Errorf("renderBar(%d, %d) empty %d, want %d", tt.done, tt.total, got, 8-tt.full)
		}
	}
}

func TestProgressHooksForwardCodes(t *testing.T) {
	var got []tea.Msg
	h := progressHooks{send: func(m tea.Msg) { got = append(got, m) }}

	h.OnItemStart(context.Background(), "a")
	h.OnItemComplete(context.Background(), "a", time.Second, errors.New(errors.ErrCodeTimeout, "slow"))

	if len(got) != 1 {
		t.Fatalf("got %d messages, want 1", len(got))
	}
	msg := got[0].(itemDoneMsg)
	if msg.key != "a" || msg.code != errors.ErrCodeTimeout {
		t.Errorf("msg = %+v", msg)
	}
}
