package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/config"
	"github.com/sarchlab/csim/logging"
	"github.com/sarchlab/csim/logging/logfields"
	"github.com/sarchlab/csim/record"
	"github.com/sarchlab/csim/report"
	"github.com/sarchlab/csim/sim"
	"github.com/sarchlab/csim/trace"
)

// recordAuto asks for a recording file with a generated name.
const recordAuto = "auto"

const usage = `Usage: csim [-hv] -s <num> -E <num> -b <num> -t <file>
Options:
  -h         Print this help message.
  -v         Optional verbose flag.
  -s <num>   Number of set index bits.
  -E <num>   Number of lines per set.
  -b <num>   Number of block offset bits.
  -t <file>  Trace file.

  --model table|list|akita   Cache model back end (default table).
  --format text|json         Summary format (default text).
  --results-file <file>      Results hand-off file, empty disables (default .csim_results).
  --record <file>|auto       Record every access to SQLite, or CSV for .csv files.
  --config <file>            JSON, YAML, or TOML settings file.
  --log-level <level>        Log level (default warn).
  --log-format text|json     Log format (default text).

Settings may also come from CSIM_* environment variables or a .env file.
Examples:
  linux>  csim -s 4 -E 1 -b 4 -t traces/yi.trace
  linux>  csim -v -s 8 -E 2 -b 4 -t traces/yi.trace
`

// usageError is a command line that could not be understood. It is reported
// together with the usage text.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newCommand() *cobra.Command {
	v := config.NewViper()

	this := &cobra.Command{
		Use:           "csim",
		Short:         "Trace-driven set-associative LRU cache simulator.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := config.LoadDotEnv(); err != nil {
				return err
			}

			c, err := config.FromViper(v)
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				if errors.Is(err, config.ErrMissingArgument) {
					return &usageError{err: err}
				}
				return err
			}

			lopts := []logging.LogOption{
				logging.WithLogLevel(c.LogLevel),
				logging.WithLogFormat(logging.LogFormat(strings.ToLower(c.LogFormat))),
			}
			logging.SetupLogging(lopts...)

			return run(cmd.OutOrStdout(), c)
		},
	}

	this.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	this.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), usage)
	})

	flags := this.Flags()
	flags.SortFlags = false
	flags.BoolP(config.KeyVerbose, "v", false, "Print every access with its outcome.")
	flags.IntP(config.KeySetBits, "s", config.Unset, "Number of set index bits.")
	flags.IntP(config.KeyAssociativity, "E", config.Unset, "Number of lines per set.")
	flags.IntP(config.KeyBlockBits, "b", config.Unset, "Number of block offset bits.")
	flags.StringP(config.KeyTrace, "t", "", "Trace `file`.")
	flags.String(config.KeyModel, string(cache.KindTable), "Cache model back end: table, list, or akita.")
	flags.String(config.KeyFormat, config.FormatText, "Summary format: text or json.")
	flags.String(config.KeyResultsFile, ".csim_results", "Results hand-off `file`. Empty disables it.")
	flags.String(config.KeyRecord, "", "Record every access to this `file`, or to a generated name with 'auto'.")
	flags.String(config.KeyConfig, "", "Settings `file` (JSON, YAML, or TOML).")
	flags.String(config.KeyLogLevel, "warn", "Log level.")
	flags.String(config.KeyLogFormat, "text", "Log format. Must be 'json' or 'text'.")

	return this
}

func run(stdout io.Writer, c *config.Config) (runErr error) {
	log := logging.DefaultLogger.WithField(logfields.LogComponent, "cmd")

	kind, err := c.Kind()
	if err != nil {
		return err
	}
	g := c.Geometry()

	model, err := cache.NewModel(kind, g)
	if err != nil {
		return err
	}

	t, err := trace.Open(c.TracePath)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()

	var opts []sim.Option
	if c.Verbose {
		opts = append(opts, sim.WithObserver(sim.VerboseObserver(stdout)))
	}

	if c.RecordPath != "" {
		path := c.RecordPath
		if path == recordAuto {
			path = ""
		}

		rec, err := record.Open(path, g)
		if err != nil {
			return err
		}

		// An interrupt exits through atexit, a normal return through the
		// deferred call. Either way the buffered rows are written once.
		var once sync.Once
		closeRecorder := func() (err error) {
			once.Do(func() { err = rec.Close() })
			return err
		}
		atexit.Register(func() {
			if err := closeRecorder(); err != nil {
				log.WithError(err).Error("failed to close recording")
			}
		})
		defer func() {
			if cerr := closeRecorder(); cerr != nil && runErr == nil {
				runErr = cerr
			}
		}()
		opts = append(opts, sim.WithObserver(rec))
	}

	log.WithFields(logrus.Fields{
		logfields.Trace:    c.TracePath,
		logfields.Model:    kind,
		logfields.Geometry: g.String(),
	}).Info("simulation started")

	start := time.Now()
	sum, err := sim.New(model, opts...).Run(t)
	if err != nil {
		return err
	}
	wall := time.Since(start)

	if err := sum.Check(); err != nil {
		log.WithError(err).Error("inconsistent counters")
	}

	switch c.Format {
	case config.FormatJSON:
		err = report.WriteJSON(stdout, report.NewReport(c.TracePath, kind, g, sum, wall))
	default:
		err = report.Text(stdout, sum)
	}
	if err != nil {
		return err
	}

	if c.ResultsFile != "" {
		return report.WriteResultsFile(c.ResultsFile, sum)
	}

	return nil
}
