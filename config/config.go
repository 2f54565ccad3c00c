package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

var ErrInvalidOption = errors.New("invalid option")

type Options struct {
	Graph       string  `toml:"graph"`        // Edge list input path.
	Output      string  `toml:"output"`       // Result file path.
	Replicas    uint64  `toml:"replicas"`     // Total Monte Carlo replicas per marginal gain query.
	Workers     int     `toml:"workers"`      // Simulation goroutines, each holding its own graph copy.
	Probability float64 `toml:"probability"`  // Per edge activation probability.
	Seeds       int     `toml:"seeds"`        // k, the number of seed nodes to select.
	RandomSeed  uint64  `toml:"random_seed"`  // Master seed for the per worker random streams.
	DebugLevel  int     `toml:"debug"`        // 0 for info, 1 for debug, 2 for trace.
	NoColour    bool    `toml:"no_colour"`    // Plain log output.
	MetricsAddr string  `toml:"metrics_addr"` // If set, serve prometheus metrics here. E.g. "0.0.0.0:9090".
	PprofAddr   string  `toml:"pprof_addr"`   // If set, serve pprof here. E.g. "0.0.0.0:6060".
}

func Default() Options {
	return Options{
		Output:      "output.txt",
		Replicas:    10000,
		Workers:     runtime.NumCPU(),
		Probability: 0.9,
		Seeds:       30,
	}
}

// Load reads a TOML file over the defaults; keys that are absent keep their default value.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return opts, fmt.Errorf("failed to parse TOML '%s': %w", path, err)
	}
	return opts, nil
}

func (o Options) Validate() error {
	switch {
	case o.Graph == "":
		return fmt.Errorf("%w: graph file is required", ErrInvalidOption)
	case o.Workers < 1:
		return fmt.Errorf("%w: worker count %d", ErrInvalidOption, o.Workers)
	case o.Replicas < 1:
		return fmt.Errorf("%w: replica count must be at least 1", ErrInvalidOption)
	case !(o.Probability >= 0 && o.Probability <= 1):
		return fmt.Errorf("%w: probability %v outside [0, 1]", ErrInvalidOption, o.Probability)
	case o.Seeds < 0:
		return fmt.Errorf("%w: seed count %d", ErrInvalidOption, o.Seeds)
	}
	if o.Workers > runtime.NumCPU() {
		log.Warn().Msg("Worker count is greater than CPU count?")
	}
	return nil
}

// ParseFlags reads options from args. A -config file is applied first; flags given explicitly
// on the command line override it.
func ParseFlags(fs *flag.FlagSet, args []string) (Options, error) {
	var f Options
	d := Default()
	var configPath string
	fs.StringVar(&f.Graph, "g", d.Graph, "Graph file (edge list, '#' comments).")
	fs.StringVar(&f.Output, "o", d.Output, "Result file.")
	fs.Uint64Var(&f.Replicas, "n", d.Replicas, "Total Monte Carlo replicas per marginal gain query.")
	fs.IntVar(&f.Workers, "t", d.Workers, "Worker thread count. Each worker holds a full copy of the graph.")
	fs.Float64Var(&f.Probability, "p", d.Probability, "Per edge activation probability.")
	fs.IntVar(&f.Seeds, "k", d.Seeds, "Number of seed nodes to select.")
	fs.Uint64Var(&f.RandomSeed, "seed", d.RandomSeed, "Master random seed. Worker i uses the stream (seed, i).")
	fs.IntVar(&f.DebugLevel, "debug", d.DebugLevel, "Adds extra debug output. Level 0 for info, 1 for debug, 2 for trace.")
	fs.BoolVar(&f.NoColour, "nc", d.NoColour, "Removes the colouring from the log output.")
	fs.StringVar(&f.MetricsAddr, "metrics", d.MetricsAddr, "If set, will serve prometheus metrics on the given address:port. E.g.\"0.0.0.0:9090\".")
	fs.StringVar(&f.PprofAddr, "pprof", d.PprofAddr, "If set, will serve pprof on the given address:port. E.g.\"0.0.0.0:6060\".")
	fs.StringVar(&configPath, "config", "", "TOML file with options. Flags given on the command line take precedence.")
	if err := fs.Parse(args); err != nil {
		return d, err
	}

	opts := d
	if configPath != "" {
		var err error
		if opts, err = Load(configPath); err != nil {
			return opts, err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "g":
			opts.Graph = f.Graph
		case "o":
			opts.Output = f.Output
		case "n":
			opts.Replicas = f.Replicas
		case "t":
			opts.Workers = f.Workers
		case "p":
			opts.Probability = f.Probability
		case "k":
			opts.Seeds = f.Seeds
		case "seed":
			opts.RandomSeed = f.RandomSeed
		case "debug":
			opts.DebugLevel = f.DebugLevel
		case "nc":
			opts.NoColour = f.NoColour
		case "metrics":
			opts.MetricsAddr = f.MetricsAddr
		case "pprof":
			opts.PprofAddr = f.PprofAddr
		}
	})
	return opts, opts.Validate()
}

// FlagsToOptions parses the process command line. Declare your own flags before calling this.
func FlagsToOptions() (Options, error) {
	return ParseFlags(flag.CommandLine, os.Args[1:])
}
