package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/gnoverse/tverify/internal"
	"github.com/gnoverse/tverify/internal/db"
	tt "github.com/gnoverse/tverify/internal/types"
)

const DefaultConfigFile = ".tverify.yaml"

type VerifyEngine interface {
	Run(label string) (tt.Result, error)
	Theorems() []string
	IgnoreRule(rule string)
	IgnoreLabel(label string)
}

// Config represents the overall configuration: the rules, the labels to
// skip and the batch settings.
type Config struct {
	Name    string                   `yaml:"name"`
	Rules   map[string]tt.ConfigRule `yaml:"rules"`
	Ignore  []string                 `yaml:"ignore,omitempty"`
	Workers int                      `yaml:"workers,omitempty"`
	Cache   CacheConfig              `yaml:"cache,omitempty"`
}

type CacheConfig struct {
	Dir    string        `yaml:"dir,omitempty"`
	MaxAge time.Duration `yaml:"max_age,omitempty"`
}

// DefaultConfig is what `tverify init` writes.
func DefaultConfig() Config {
	return Config{
		Name:  "tverify",
		Rules: map[string]tt.ConfigRule{},
		Cache: CacheConfig{Dir: ".tverify-cache"},
	}
}

// LoadConfig reads a configuration file. An empty path, or the default path
// when it does not exist, yields DefaultConfig.
func LoadConfig(configurationPath string) (Config, error) {
	config := DefaultConfig()
	if configurationPath == "" {
		return config, nil
	}

	f, err := os.Open(configurationPath)
	if err != nil {
		if os.IsNotExist(err) && configurationPath == DefaultConfigFile {
			return config, nil
		}
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && err != io.EOF {
		return config, fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}
	return config, nil
}

// New loads the database at dbPath and returns an engine configured by config.
func New(dbPath string, config Config, logger *zap.Logger) (*internal.Engine, error) {
	table, err := db.LoadFile(dbPath)
	if err != nil {
		return nil, err
	}
	engine, err := internal.NewEngine(table, config.Rules, logger)
	if err != nil {
		return nil, err
	}
	for _, label := range config.Ignore {
		engine.IgnoreLabel(label)
	}
	return engine, nil
}

// OpenCache opens the result cache described by config.
func OpenCache(config Config) (*internal.Cache, error) {
	dir := config.Cache.Dir
	if dir == "" {
		dir = DefaultConfig().Cache.Dir
	}
	cache, err := internal.NewCache(dir)
	if err != nil {
		return nil, err
	}
	cache.SetMaxAge(config.Cache.MaxAge)
	return cache, nil
}

var desiredExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)] && filepath.Base(path) != DefaultConfigFile
}

// CollectDatabases expands directories in paths into the database files
// they contain, in lexical order. Explicit file arguments are kept as is.
func CollectDatabases(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fileInfo.IsDir() && hasDesiredExtension(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking directory %s: %w", path, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// ProcessOptions tunes a batch run.
type ProcessOptions struct {
	// Workers bounds the number of statements verified at once; zero means
	// one per CPU.
	Workers int
	// Progress receives a progress bar when non-nil.
	Progress    io.Writer
	Description string
}

// ProcessTheorems verifies every theorem the engine reports, concurrently.
// Results come back in declaration order. A statement whose processor
// fails is logged and reported as a Severe result; the failures are joined
// into the returned error. On cancellation the results of the statements
// that finished are returned along with ctx.Err().
func ProcessTheorems(
	ctx context.Context,
	logger *zap.Logger,
	engine VerifyEngine,
	opts ProcessOptions,
	processor func(VerifyEngine, string) (tt.Result, error),
) ([]tt.Result, error) {
	labels := engine.Theorems()
	results := make([]tt.Result, len(labels))
	done := make([]bool, len(labels))
	failures := make([]error, len(labels))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(labels),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription(opts.Description),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers)

	var cancelled error
	for i, label := range labels {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			// statements already queued when ctx ends are skipped
			if ctx.Err() != nil {
				return nil
			}
			result, err := processor(engine, label)
			if err != nil {
				if logger != nil {
					logger.Error("Error verifying statement", zap.String("label", label), zap.Error(err))
				}
				err = fmt.Errorf("%s: %w", label, err)
				result = failedResult(label, err)
			}
			mu.Lock()
			results[i] = result
			done[i] = true
			failures[i] = err
			mu.Unlock()
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}

	_ = g.Wait() // workers never return an error
	if bar != nil {
		fmt.Fprintln(opts.Progress)
	}
	if cancelled == nil {
		cancelled = ctx.Err()
	}

	finished := make([]tt.Result, 0, len(labels))
	for i, ok := range done {
		if ok {
			finished = append(finished, results[i])
		}
	}
	return finished, errors.Join(append(failures, cancelled)...)
}

// failedResult stands in for a statement whose verification returned an
// error instead of a verdict.
func failedResult(label string, err error) tt.Result {
	return tt.Result{
		Label:   label,
		Verdict: tt.SeveritySevere,
		Issues: []tt.Issue{{
			Rule:     tt.RuleVerifierError,
			Category: "proof",
			Label:    label,
			Step:     -1,
			Message:  err.Error(),
			Severity: tt.SeveritySevere,
		}},
	}
}

func ProcessTheorem(engine VerifyEngine, label string) (tt.Result, error) {
	return engine.Run(label)
}

// Summary lists the statements that did not verify cleanly.
type Summary struct {
	Database   string   `json:"database"`
	Checked    int      `json:"checked"`
	Incomplete []string `json:"incomplete,omitempty"`
	Erroneous  []string `json:"erroneous,omitempty"`
	Issues     int      `json:"issues"`
	Suppressed int      `json:"suppressed,omitempty"`
}

// Failed reports whether any statement has an Error or Severe verdict.
func (s Summary) Failed() bool {
	return len(s.Erroneous) > 0
}

func Summarize(database string, results []tt.Result) Summary {
	summary := Summary{Database: database, Checked: len(results)}
	for _, r := range results {
		switch {
		case r.Verdict >= tt.SeverityError:
			summary.Erroneous = append(summary.Erroneous, r.Label)
		case r.Verdict == tt.SeverityIncomplete:
			summary.Incomplete = append(summary.Incomplete, r.Label)
		}
		summary.Issues += len(r.Issues)
		summary.Suppressed += r.Suppressed
	}
	return summary
}
