package notes

import (
	"context"
	"time"

	"github.com/tclzcja/apiserver/internal/notes/event"
	"github.com/tclzcja/apiserver/internal/notes/inbound"
	"github.com/tclzcja/apiserver/internal/notes/store"
	"github.com/tclzcja/apiserver/internal/notes/usecase"
	"github.com/tclzcja/apiserver/internal/pkg/pkgauth"
	"github.com/tclzcja/apiserver/internal/pkg/pkgconfig"
	"github.com/tclzcja/apiserver/internal/pkg/pkgrouter"
	"github.com/tclzcja/apiserver/internal/pkg/pkgroutine"
	"github.com/tclzcja/apiserver/internal/pkg/pkguid"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID

	// JWT and Credentials are nil when authentication is disabled.
	JWT         *pkgauth.JWT
	Credentials *pkgauth.Credentials
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.Context == nil {
		dep.Context = context.Background()
	}
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}
	if dep.Goroutine == nil {
		dep.Goroutine = pkgroutine.NewManager(0)
	}

	storage := store.NewInMemoryStore()
	bus := event.NewBus(intOr(dep.Config, "modules.notes.events.buffer", 512))
	consumer := event.NewConsumer(bus, event.NewTagIndexer(storage), event.ConsumerConfig{
		Workers:     intOr(dep.Config, "modules.notes.events.workers", 4),
		MaxRetries:  intOr(dep.Config, "modules.notes.events.max_retries", 3),
		BaseBackoff: durationOr(dep.Config, "modules.notes.events.base_backoff", 200*time.Millisecond),
	})
	consumer.Start(dep.Context)

	deps := usecase.Dependency{
		Store:   storage,
		Events:  bus,
		Runner:  dep.Goroutine,
		ID:      dep.ID,
		RootCtx: dep.Context,
	}
	if dep.Credentials != nil {
		deps.Credentials = dep.Credentials
	}
	uc := usecase.New(deps)

	sec := inbound.Security{}
	if dep.JWT != nil {
		sec.Enabled = true
		sec.Login = dep.JWT.Login
	}
	inbound.RegisterHTTPEndpoint(dep.Router, uc, sec)

	return consumer.Stop, nil
}

func intOr(cfg pkgconfig.Config, key string, def int) int {
	if cfg == nil || !cfg.IsSet(key) {
		return def
	}
	return int(cfg.GetInt(key))
}

func durationOr(cfg pkgconfig.Config, key string, def time.Duration) time.Duration {
	if cfg == nil || !cfg.IsSet(key) {
		return def
	}
	return cfg.GetDuration(key)
}
