package track

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/velotrace/velotrace/log"
	"github.com/velotrace/velotrace/pkg/config"
	"github.com/velotrace/velotrace/pkg/utils"
)

func NewTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "commands around the track geometry",
	}
	cmd.AddCommand(newBuildCmd())
	return cmd
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "builds the velodrome geometry and saves its arc length table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.Output,
		"output",
		"o",
		"velodrome.csv",
		"output file for the arc length table")
	return cmd
}

func runBuild(ctx context.Context) error {
	logger := log.GetFromContext(ctx).Named("track")

	velodrome, err := utils.VelodromeFromConfig()
	if err != nil {
		logger.Error("geometry build failed", log.ErrorField(err))
		return err
	}
	table := velodrome.ArcLengthWGS84()
	logger.Info("constructed velodrome",
		log.String("name", velodrome.Name()),
		log.Float("length", velodrome.Length()),
		log.Int("points", table.Len()))

	if err := table.SaveFile(config.Output); err != nil {
		logger.Error("saving arc length table failed", log.ErrorField(err))
		return err
	}
	logger.Info("saved arc length table", log.String("file", config.Output))
	return nil
}
