package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// dispatcher forwards messages from background goroutines into the running
// program. Messages sent before a program is attached are dropped.
type dispatcher struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (d *dispatcher) attach(fn func(tea.Msg)) {
	d.mu.Lock()
	d.send = fn
	d.mu.Unlock()
}

func (d *dispatcher) Send(msg tea.Msg) {
	d.mu.Lock()
	fn := d.send
	d.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// Run starts the interactive UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	m := NewModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.dispatch.attach(p.Send)

	_, err := p.Run()

	m.dispatch.attach(nil)
	m.poller.Close()
	m.log.Info("ui stopped")
	return err
}
