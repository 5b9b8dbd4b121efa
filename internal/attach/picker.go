package attach

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/loykin/rdebug/internal/registry"
)

// Pick lists the live sessions and lets the user choose one interactively.
// Used when attach is invoked without arguments or when a job id alone is
// ambiguous.
func Pick(ctx context.Context, reg registry.Store) (registry.Record, error) {
	recs, err := reg.ListActive(ctx)
	if err != nil {
		return registry.Record{}, err
	}
	if len(recs) == 0 {
		return registry.Record{}, registry.ErrNotFound
	}
	if len(recs) == 1 {
		return recs[0], nil
	}

	options := make([]huh.Option[int], 0, len(recs))
	for i, r := range recs {
		label := fmt.Sprintf("%-12s pid %-8d %-10s %s",
			r.Key(), r.PID, r.State, r.WorkDir)
		options = append(options, huh.NewOption(label, i))
	}
	var idx int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select a debug session").
				Options(options...).
				Value(&idx),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return registry.Record{}, err
	}
	return recs[idx], nil
}
