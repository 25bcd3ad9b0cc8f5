package race

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racetelemetry/pkg/cmd/util"
	"github.com/mpapenbr/racetelemetry/pkg/processing"
	"github.com/mpapenbr/racetelemetry/pkg/source"
)

func NewRaceCmd() *cobra.Command {
	args := &util.SourceArgs{}
	cmd := &cobra.Command{
		Use:   "race",
		Short: "computes the frame telemetry of a race or sprint session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return util.RunCompute(args, compute)
		},
	}
	util.AddSourceFlags(cmd, args)
	return cmd
}

//nolint:whitespace // can't make both editor and linter happy
func compute(
	ctx context.Context, p *processing.Pipeline, src source.SessionSource,
) (any, error) {
	return p.RaceTelemetry(ctx, src)
}
