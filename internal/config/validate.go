package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.App.Addr = strings.TrimSpace(out.App.Addr)
	out.App.DataDir = strings.TrimSpace(out.App.DataDir)
	out.Ranking.DefaultFormula = strings.TrimSpace(out.Ranking.DefaultFormula)
	out.Posting.UserAgent = strings.TrimSpace(out.Posting.UserAgent)
	out.Maintenance.CheckpointCron = strings.TrimSpace(out.Maintenance.CheckpointCron)
	out.Maintenance.PurgeCron = strings.TrimSpace(out.Maintenance.PurgeCron)

	// ---- Validation rules ----

	if out.App.Addr == "" {
		res.addErr("app.addr is required")
	} else if host, _, err := net.SplitHostPort(out.App.Addr); err != nil {
		res.addErr("app.addr must be host:port: %v", err)
	} else if host != "127.0.0.1" && host != "localhost" && host != "::1" {
		res.addWarn("app.addr binds %q; the API has no authentication.", host)
	}

	// posting fetch sanity
	if out.Posting.RequestsPerSecond <= 0 {
		res.addErr("posting.requests_per_second must be > 0")
	} else if out.Posting.RequestsPerSecond > 10 {
		res.addWarn("posting.requests_per_second is high (%.1f) and may get you blocked.", out.Posting.RequestsPerSecond)
	}
	if out.Posting.Burst <= 0 {
		res.addErr("posting.burst must be > 0")
	}
	if out.Posting.TimeoutSeconds <= 0 {
		res.addErr("posting.timeout_seconds must be > 0")
	}

	// maintenance schedules (empty disables the job)
	for name, spec := range map[string]string{
		"maintenance.checkpoint_cron": out.Maintenance.CheckpointCron,
		"maintenance.purge_cron":      out.Maintenance.PurgeCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			res.addErr("%s is not a valid schedule: %v", name, err)
		}
	}
	if out.Maintenance.PurgeDumpedAfterDays < 0 {
		res.addErr("maintenance.purge_dumped_after_days must be >= 0")
	}
	if out.Maintenance.PurgeCron != "" && out.Maintenance.PurgeDumpedAfterDays == 0 {
		res.addWarn("maintenance.purge_cron is set but purge_dumped_after_days is 0; nothing will be purged.")
	}

	return out, res
}
