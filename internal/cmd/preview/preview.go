// Package preview prints the step plan of a scenario without running it.
package preview

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	entrypoint "github.com/louisbranch/warfront/internal/platform/cmd"
	"github.com/louisbranch/warfront/internal/services/battle/domain/engine"
	"github.com/louisbranch/warfront/internal/services/battle/domain/unit"
	"github.com/louisbranch/warfront/internal/services/battle/scenario"
)

// Config holds preview command configuration.
type Config struct {
	Scenario string `env:"WARFRONT_PREVIEW_SCENARIO"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.Scenario, "scenario", "", "Scenario YAML file to preview (defaults to WARFRONT_PREVIEW_SCENARIO)")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Scenario) == "" {
		return Config{}, errors.New("-scenario is required")
	}
	return cfg, nil
}

// Run prints the first-round plan of the scenario to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePreview, func(context.Context) error {
		sc, err := scenario.Load(cfg.Scenario)
		if err != nil {
			return err
		}
		st, err := sc.State(func() (string, error) { return "preview", nil })
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s, round %d: %d offense vs %d defense\n",
			st.Site.Name, st.Round, st.Count(unit.Offense), st.Count(unit.Defense))
		for i, tag := range engine.Preview(st) {
			fmt.Fprintf(out, "%2d. %s\n", i+1, tag)
		}
		return nil
	})
}
