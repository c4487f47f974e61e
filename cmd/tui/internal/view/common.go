package view

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	localTimeout = 5 * time.Second
	syncTimeout  = 35 * time.Second
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// LocalCtx bounds operations that only touch the on-device store.
func LocalCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), localTimeout)
}

// SyncCtx bounds a round trip to the server. The HTTP client has its own
// timeout, this only keeps a stuck command from living forever.
func SyncCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), syncTimeout)
}
