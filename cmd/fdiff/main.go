// Command fdiff steps through a directory of recorded wire-diff JSON
// files, applying each in turn to a fragmentdiff.Tree and showing the
// tree's rendered output alongside the raw frame that produced it.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/livefir/fragmentdiff"
)

// configFileName is looked up relative to the current working
// directory, the way cmd/lvt/internal/config resolves its own YAML
// file: present and valid, its values win; absent, fdiff falls back to
// fragmentdiff.DefaultConfig().
const configFileName = "fdiff.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadCLIConfig(configFileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fdiff:", err)
		os.Exit(1)
	}

	frames, err := loadFrames(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "fdiff:", err)
		os.Exit(1)
	}
	if len(frames) == 0 {
		fmt.Fprintln(os.Stderr, "fdiff: no .json frames found in", os.Args[1])
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(frames, cfg))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "fdiff:", err)
		os.Exit(1)
	}
}

// loadCLIConfig reads path if it exists; a missing file is not an
// error, since fdiff.yaml is optional, but a present-and-malformed one
// is.
func loadCLIConfig(path string) (fragmentdiff.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fragmentdiff.DefaultConfig(), nil
		}
		return fragmentdiff.Config{}, fmt.Errorf("checking %s: %w", path, err)
	}
	return fragmentdiff.LoadConfig(path)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: fdiff <directory of diff .json frames>")
}

// frame is one recorded wire-diff file: its name and raw JSON bytes.
type frame struct {
	name string
	data []byte
}

// loadFrames reads every *.json file in dir, sorted by name, so a
// directory of "0001.json", "0002.json", ... replays in order.
func loadFrames(dir string) ([]frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make([]frame, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		frames = append(frames, frame{name: name, data: data})
	}
	return frames, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// model is the bubbletea state for stepping through frames. Applying
// a frame out of order isn't supported — the tree only knows how to
// fold diffs on in the sequence the server emitted them — so moving
// backward replays every frame from the start instead of trying to
// invert a merge.
type model struct {
	frames   []frame
	cfg      fragmentdiff.Config
	cursor   int
	compact  bool
	tree     *fragmentdiff.Tree
	applyErr error
	rendered string
	raw      viewport.Model
}

func newModel(frames []frame, cfg fragmentdiff.Config) *model {
	vp := viewport.New(80, 10)
	m := &model{frames: frames, cfg: cfg, raw: vp}
	m.replayTo(0)
	return m
}

// replayTo rebuilds the tree from scratch and applies frames[0:n+1],
// since Merge only ever folds forward.
func (m *model) replayTo(n int) {
	m.cursor = n
	m.tree = fragmentdiff.NewTree(fragmentdiff.WithConfig(m.cfg))
	m.applyErr = nil
	m.rendered = ""

	for i := 0; i <= n; i++ {
		if err := m.tree.ApplyJSON(m.frames[i].data); err != nil {
			m.applyErr = err
			return
		}
	}
	out, err := m.tree.Render()
	if err != nil {
		m.applyErr = err
		return
	}
	m.rendered = out
	m.raw.SetContent(string(m.frames[n].data))
	m.raw.GotoTop()
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.raw.Width = msg.Width
		m.raw.Height = msg.Height / 3
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "right", "l", "n":
			if m.cursor < len(m.frames)-1 {
				m.replayTo(m.cursor + 1)
			}
			return m, nil
		case "left", "h", "p":
			if m.cursor > 0 {
				m.replayTo(m.cursor - 1)
			}
			return m, nil
		case "c":
			m.compact = !m.compact
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.raw, cmd = m.raw.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	f := m.frames[m.cursor]
	header := headerStyle.Render(fmt.Sprintf("[%d/%d] %s", m.cursor+1, len(m.frames), f.name))

	var body string
	switch {
	case m.applyErr != nil:
		body = errorStyle.Render(m.applyErr.Error())
	case m.compact:
		body = compactRendered(m.rendered)
	default:
		body = m.rendered
	}

	help := helpStyle.Render("←/→ step   c toggle compact   ↑/↓ scroll raw   q quit")

	return header + "\n\n" + body + "\n\n" + dimStyle.Render("raw frame:") + "\n" + m.raw.View() + "\n" + help
}
