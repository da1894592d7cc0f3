package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reoring/kairo/codec"
	"github.com/reoring/kairo/i18n"
	"github.com/reoring/kairo/internal/log"
	"github.com/reoring/kairo/manifest"
)

func main() {
	os.Exit(execute(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
}

// execute runs one invocation and returns the process exit status.
func execute(stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	a := newApp(stdin, stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)
	start := time.Now()
	err := root.Execute()
	if err != nil {
		a.logger.Error("command failed", log.Err(err))
		fmt.Fprintln(stderr, "error:", err)
	} else {
		a.logger.Info("command finished", log.Duration("took", time.Since(start)))
	}
	_ = a.logger.Sync()
	if err != nil {
		return 1
	}
	return 0
}
// app carries the state shared by every command of one invocation.
type app struct {
	cfg    *viper.Viper
	logger *log.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{cfg: viper.New(), logger: log.Nop(), stdin: stdin, stdout: stdout, stderr: stderr}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return newApp(stdin, stdout, stderr).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kairo",
		Short: "Validate, reshape and summarize structured records",
		Long: `kairo works on JSON and CSV records described by a manifest file.
- Schema: field types, constraints, defaults and the unknown-key policy.
- Transform: output keys mapped from source paths, with fallbacks.
- Aggregate: group records by key fields and compute sums, averages, counts and extremes.
Every flag can also be set through a KAIRO_ environment variable, e.g. KAIRO_LOG_LEVEL=debug.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.CommandPath())
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringP("manifest", "m", "", "manifest file (YAML or JSON)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("lang", "en", "message language for issues")
	pf.Bool("debug", false, "dump the loaded manifest and log at debug level")
	pf.Bool("json", false, "output JSON instead of tables")
	for _, name := range []string{"manifest", "log-level", "lang", "debug", "json"} {
		_ = a.cfg.BindPFlag(name, pf.Lookup(name))
	}
	a.cfg.SetEnvPrefix("KAIRO")
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.cfg.AutomaticEnv()

	root.AddCommand(
		a.validateCmd(),
		a.transformCmd(),
		a.aggregateCmd(),
		a.convertCmd(),
		a.schemaCmd(),
	)
	return root
}

func (a *app) init(command string) error {
	level, err := log.ParseLevel(a.cfg.GetString("log-level"))
	if err != nil {
		return err
	}
	if a.cfg.GetBool("debug") {
		level = log.LevelDebug
	}
	a.logger = log.NewWithWriter(level, a.stderr).With(log.String("cmd", command))
	i18n.SetLanguage(a.cfg.GetString("lang"))
	return nil
}

// loadManifest reads the --manifest file. It fails when required is set and
// no manifest was given.
func (a *app) loadManifest(required bool) (*manifest.Manifest, error) {
	path := a.cfg.GetString("manifest")
	if path == "" {
		if required {
			return nil, fmt.Errorf("--manifest is required")
		}
		return &manifest.Manifest{}, nil
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("manifest loaded",
		log.String("path", path),
		log.Bool("schema", m.Schema != nil),
		log.Int("mappings", len(m.Transform)),
		log.Bool("aggregate", m.Aggregate != nil),
	)
	if a.cfg.GetBool("debug") {
		dump := spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, SortKeys: true}
		dump.Fdump(a.stderr, m)
	}
	return m, nil
}

// readInput reads path, or stdin when path is "-" or empty.
func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(a.stdin)
	}
	return os.ReadFile(path)
}

// inputFormat resolves an explicit format name, falling back to the file
// extension and then to JSON.
func inputFormat(explicit, path string) (codec.Format, error) {
	if explicit != "" {
		return codec.ParseFormat(explicit)
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		if f, err := codec.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return codec.JSON, nil
}
