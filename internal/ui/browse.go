package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/katajakasa/audiostash/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = entryItem{}
)

// trackItem wraps a cached [models.Track] to implement [list.Item].
type trackItem struct {
	track  models.Track
	artist string
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.artist
	if i.track.Date != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Date)
	}
	return desc
}

// entryItem wraps a scratchpad [models.Entry] to implement [list.Item].
type entryItem struct {
	entry models.Entry
}

func (i entryItem) FilterValue() string { return i.entry.Title }
func (i entryItem) Title() string       { return i.entry.Title }
func (i entryItem) Description() string { return i.entry.Artist }

// keyMap holds the browser's extra key bindings.
type keyMap struct {
	Toggle key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "library/scratchpad")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Browser is a bubbletea model flipping between the cached library and the
// scratchpad snapshot.
type Browser struct {
	list       list.Model
	library    []list.Item
	scratchpad []list.Item
	showingPad bool
}

// NewBrowser builds a browser over cached tracks and scratchpad entries.
// artistName resolves artist ids to display names.
func NewBrowser(tracks []models.Track, artistName func(int64) string, entries []models.Entry) *Browser {
	library := make([]list.Item, 0, len(tracks))
	for _, t := range tracks {
		library = append(library, trackItem{track: t, artist: artistName(t.Artist)})
	}

	scratchpad := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		scratchpad = append(scratchpad, entryItem{entry: e})
	}

	l := list.New(library, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Library"
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle}
	}

	return &Browser{list: l, library: library, scratchpad: scratchpad}
}

func (b *Browser) Init() tea.Cmd { return nil }

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.list.SetSize(msg.Width, msg.Height)
		return b, nil

	case tea.KeyMsg:
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return b, tea.Quit
		case key.Matches(msg, keys.Toggle):
			b.showingPad = !b.showingPad
			if b.showingPad {
				b.list.Title = "Scratchpad"
				b.list.SetItems(b.scratchpad)
			} else {
				b.list.Title = "Library"
				b.list.SetItems(b.library)
			}
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

func (b *Browser) View() string { return b.list.View() }
