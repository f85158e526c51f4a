package cmd

import (
	"strconv"
	"time"

	"github.com/paywatch/paywatch/internal/config"
	"github.com/paywatch/paywatch/internal/dateutil"
	"github.com/paywatch/paywatch/internal/payperiod"
	"github.com/paywatch/paywatch/internal/roster"
	"github.com/paywatch/paywatch/internal/snapshot"
)

// app bundles the configured collaborators every command needs. Commands
// receive them explicitly instead of reading ambient globals so tests can
// substitute fixtures.
type app struct {
	cfg   config.Config
	loc   *time.Location
	calc  *payperiod.Calculator
	dir   *roster.Directory
	store *snapshot.Store
}

// buildApp loads configuration and wires the calculator, roster and store.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loc, err := dateutil.LoadZone(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	calc, err := payperiod.NewCalculator(payperiod.Anchor(cfg.Anchor), loc)
	if err != nil {
		return nil, err
	}

	var dir *roster.Directory
	if cfg.RosterPath != "" {
		dir, err = roster.Load(cfg.RosterPath)
		if err != nil {
			return nil, err
		}
	}

	base := cfg.SnapshotDir
	if base == "" {
		base, err = snapshot.DefaultBaseDir()
		if err != nil {
			return nil, err
		}
	}

	return &app{
		cfg:   cfg,
		loc:   loc,
		calc:  calc,
		dir:   dir,
		store: snapshot.NewStore(base),
	}, nil
}

// referenceDate resolves an optional --date flag, defaulting to now.
func (a *app) referenceDate(flag string) (time.Time, error) {
	if flag == "" {
		return time.Now(), nil
	}
	return dateutil.ParseDateIn(flag, a.loc)
}

// periodID is the snapshot-store key for a period.
func periodID(p payperiod.Period) string {
	return strconv.Itoa(p.Number)
}
