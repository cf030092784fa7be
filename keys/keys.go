package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyName int

const (
	KeyUp KeyName = iota
	KeyDown
	KeyNew
	KeyPause
	KeyResume
	KeyPauseAll
	KeyResumeAll
	KeyKill
	KeyHelp
	KeyQuit
)

// GlobalKeyStringsMap is a global, immutable map string to keybinding.
var GlobalKeyStringsMap = map[string]KeyName{
	"up":   KeyUp,
	"k":    KeyUp,
	"down": KeyDown,
	"j":    KeyDown,
	"n":    KeyNew,
	"p":    KeyPause,
	"r":    KeyResume,
	"P":    KeyPauseAll,
	"R":    KeyResumeAll,
	"D":    KeyKill,
	"x":    KeyKill,
	"?":    KeyHelp,
	"q":    KeyQuit,
}

// GlobalkeyBindings is a global, immutable map of KeyName to keybinding.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeyUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	KeyDown: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	KeyNew: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new ghost"),
	),
	KeyPause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	KeyResume: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "resume"),
	),
	KeyPauseAll: key.NewBinding(
		key.WithKeys("P"),
		key.WithHelp("P", "pause all"),
	),
	KeyResumeAll: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "resume all"),
	),
	KeyKill: key.NewBinding(
		key.WithKeys("D", "x"),
		key.WithHelp("D/x", "terminate"),
	),
	KeyHelp: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
}
