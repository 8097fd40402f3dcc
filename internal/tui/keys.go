package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Sort     key.Binding
	SortDir  key.Binding
	Filter   key.Binding
	Refresh  key.Binding
	Create   key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Export   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap(canCreate bool) keyMap {
	km := keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage: key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "previous page")),
		NextPage: key.NewBinding(key.WithKeys("right", "l", "pgdown"), key.WithHelp("→/l", "next page")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort column")),
		SortDir:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "toggle sort direction")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Create:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Export:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export csv")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	// The create control is hidden without the capability.
	km.Create.SetEnabled(canCreate)
	return km
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevPage, k.NextPage, k.Filter, k.Create, k.Edit, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Sort, k.SortDir, k.Filter, k.Refresh},
		{k.Create, k.Edit, k.Delete, k.Export},
		{k.Help, k.Quit},
	}
}

// helpMarkdown lists every enabled binding as a markdown table for the help overlay.
func (k keyMap) helpMarkdown() string {
	var b strings.Builder
	b.WriteString("# Keys\n\n| Key | Action |\n|---|---|\n")
	for _, group := range k.FullHelp() {
		for _, kb := range group {
			if !kb.Enabled() {
				continue
			}
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n## Record form\n\n")
	b.WriteString("`tab`/`shift+tab` move between fields, `enter` or `ctrl+s` saves, `esc` closes and cancels any request in flight.\n")
	b.WriteString("\n## Filters\n\nEach column filter is a regular expression, e.g. `^C1` or `dent|chip`.\n")
	return b.String()
}
