package convert

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/velotrace/velotrace/log"
	"github.com/velotrace/velotrace/pkg/config"
	"github.com/velotrace/velotrace/pkg/gpx"
	"github.com/velotrace/velotrace/pkg/model"
	"github.com/velotrace/velotrace/pkg/processing/mapping"
	"github.com/velotrace/velotrace/pkg/processing/trajectory"
	"github.com/velotrace/velotrace/pkg/sensor"
	"github.com/velotrace/velotrace/pkg/track"
	"github.com/velotrace/velotrace/pkg/transponder"
	"github.com/velotrace/velotrace/pkg/utils"
)

func NewConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <report.csv>",
		Short: "converts a transponder lap report into a GPX track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntSliceVar(&config.Sessions,
		"sessions",
		nil,
		"restrict the conversion to these session ids (default: all)")
	cmd.Flags().StringVar(&config.FitFile,
		"fit",
		"",
		"FIT activity file providing heart rate/cadence data")
	cmd.Flags().StringVar(&config.ArcLengthCSV,
		"arc-length-table",
		"",
		"use a previously saved arc length table instead of rebuilding the geometry")
	cmd.Flags().StringVarP(&config.Output,
		"output",
		"o",
		"",
		"output GPX file (default: report name with .gpx extension)")
	return cmd
}

//nolint:funlen,cyclop // sequential pipeline stages
func runConvert(ctx context.Context, reportFile string) error {
	start := time.Now()
	logger := log.GetFromContext(ctx).Named("convert")

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		logger.Error("invalid timezone", log.String("timezone", config.Timezone),
			log.ErrorField(err))
		return err
	}

	logger.Info("parsing transponder report", log.String("file", reportFile))
	rows, err := transponder.ReadFile(reportFile)
	if err != nil {
		return err
	}
	laps, err := transponder.Parse(rows)
	if err != nil {
		logger.Error("parsing failed", log.ErrorField(err))
		return err
	}
	laps = transponder.FilterSessions(laps, config.Sessions)
	logger.Info("parsed laps", log.Int("count", len(laps)))

	table, elevation, err := arcLengthTable(logger)
	if err != nil {
		logger.Error("geometry build failed", log.ErrorField(err))
		return err
	}
	logger.Debug("geometry ready", log.Bool("cached", config.ArcLengthCSV != ""))

	interpolator := trajectory.NewInterpolator(
		trajectory.WithTrackLength(config.TrackLength),
		trajectory.WithLocation(loc),
		trajectory.WithTailThreshold(config.TailThreshold),
	)
	samples, err := interpolator.Interpolate(laps)
	if err != nil {
		logger.Error("interpolation failed", log.ErrorField(err))
		return err
	}
	logger.Info("interpolated trajectory", log.Int("samples", len(samples)))

	mapper := mapping.NewMapper(table, mapping.WithElevation(elevation))
	positions := mapper.MapToTrack(samples)
	if misses := mapping.CountMisses(positions); misses > 0 {
		logger.Warn("samples without geometry match, check precision configuration",
			log.Int("count", misses))
	}

	writerOpts := []gpx.Option{gpx.WithTrackName(config.TrackName)}
	if config.FitFile != "" {
		var sensors *sensor.Series
		if sensors, err = sensor.ReadFile(config.FitFile); err != nil {
			logger.Error("reading fit file failed", log.ErrorField(err))
			return err
		}
		logger.Info("loaded sensor readings", log.Int("count", sensors.Len()))
		writerOpts = append(writerOpts, gpx.WithSensorSeries(sensors))
	}

	output := config.Output
	if output == "" {
		output = outputName(reportFile)
	}
	logger.Info("writing track", log.String("file", output))
	if err := gpx.NewWriter(writerOpts...).WriteFile(output, positions); err != nil {
		// no partial output on failure
		_ = os.Remove(output)
		return err
	}
	logSummary(logger, samples)
	logger.Debug("pipeline finished", log.Duration("elapsed", time.Since(start)))
	return nil
}

// arcLengthTable either reloads a cached table or builds the full geometry.
func arcLengthTable(logger *log.Logger) (*track.Table, float64, error) {
	if config.ArcLengthCSV != "" {
		logger.Info("loading arc length table", log.String("file", config.ArcLengthCSV))
		table, err := track.LoadTableFile(config.ArcLengthCSV)
		return table, config.Elevation, err
	}
	velodrome, err := utils.VelodromeFromConfig()
	if err != nil {
		return nil, 0, err
	}
	logger.Info("constructed velodrome",
		log.String("name", velodrome.Name()),
		log.Int("points", len(velodrome.PolylineWGS84())))
	return velodrome.ArcLengthWGS84(), velodrome.Elevation(), nil
}

func logSummary(logger *log.Logger, samples []model.TrajectorySample) {
	if len(samples) == 0 {
		return
	}
	last := samples[len(samples)-1]
	logger.Info("conversion done",
		log.Int("seconds", last.Counter+1),
		log.Float("distance", last.Distance),
		log.Time("start", samples[0].Time),
		log.Time("end", last.Time))
}

func outputName(reportFile string) string {
	if idx := strings.LastIndex(reportFile, "."); idx > 0 {
		return reportFile[:idx] + ".gpx"
	}
	return reportFile + ".gpx"
}
