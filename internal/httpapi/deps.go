package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/danbim/application-tracker/internal/config"
	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/events"
)

// Prefiller turns a posting URL into a draft job. *posting.Fetcher satisfies it.
type Prefiller interface {
	Prefill(ctx context.Context, url string) (domain.JobOpening, error)
}

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// nil disables POST /jobs/prefill
	Prefiller Prefiller

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) config() config.Config {
	if d.CfgVal == nil {
		return config.Default()
	}
	if c, ok := d.CfgVal.Load().(config.Config); ok {
		return c
	}
	return config.Default()
}
