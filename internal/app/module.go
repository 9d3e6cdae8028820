package app

import (
	"context"
	"fmt"

	"github.com/tclzcja/apiserver/internal/notes"
)

func (a *App) initModules() error {
	if a.config.GetBool("modules.notes.enabled") {
		closer, err := notes.New(notes.Dependency{
			Config:      a.config,
			Router:      a.router,
			Goroutine:   a.goroutine,
			Context:     a.ctx,
			ID:          a.uuid,
			JWT:         a.jwt,
			Credentials: a.credentials,
		})
		if err != nil {
			return fmt.Errorf("init module notes: %w", err)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["Notes"] = closer
		}
	}

	return nil
}
