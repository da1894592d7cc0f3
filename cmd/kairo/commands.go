package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reoring/kairo"
	"github.com/reoring/kairo/aggregate"
	"github.com/reoring/kairo/codec"
	"github.com/reoring/kairo/internal/log"
	"github.com/reoring/kairo/schema"
	"github.com/reoring/kairo/transform"
)

type inputFlags struct {
	path   string
	format string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "input", "i", "-", "input file, - for stdin")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "input format: json or csv (default from the file extension)")
}

// decode reads the input and parses it, validating against s when s is not
// nil.
func (a *app) decode(in inputFlags, s *schema.Schema, opts codec.DeserializeOptions) (any, error) {
	format, err := inputFormat(in.format, in.path)
	if err != nil {
		return nil, err
	}
	data, err := a.readInput(in.path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	v, kerr := codec.Deserialize(data, format, s, opts).Unwrap()
	a.logger.Debug("input decoded",
		log.String("format", string(format)),
		log.Int("bytes", len(data)),
		log.Duration("took", time.Since(start)),
	)
	if kerr != nil {
		return nil, a.reportFailure(kerr)
	}
	return v, nil
}

// reportFailure prints the issues of a validation failure and returns a
// short error for the exit status.
func (a *app) reportFailure(err error) error {
	iss, ok := kairo.AsIssues(err)
	if !ok {
		return err
	}
	a.logger.Warn("validation failed", log.Int("issues", len(iss)))
	if a.cfg.GetBool("json") {
		if perr := printJSON(a.stdout, iss, true); perr != nil {
			return perr
		}
	} else {
		renderIssues(a.stdout, iss)
	}
	return fmt.Errorf("validation failed: %d issue(s)", len(iss))
}

func (a *app) validateCmd() *cobra.Command {
	var (
		in       inputFlags
		coerce   bool
		failFast bool
		dupes    bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate records against the manifest schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadManifest(true)
			if err != nil {
				return err
			}
			if m.Schema == nil {
				return errors.New("manifest has no schema section")
			}
			v, err := a.decode(in, m.Schema, codec.DeserializeOptions{Coerce: coerce, FailFast: failFast, RejectDuplicateKeys: dupes})
			if err != nil {
				return err
			}
			return printJSON(a.stdout, v, true)
		},
	}
	in.register(cmd)
	cmd.Flags().BoolVar(&coerce, "coerce", false, "convert values to the declared types before checking")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first issue")
	cmd.Flags().BoolVar(&dupes, "reject-duplicates", false, "fail JSON objects that repeat a key")
	return cmd
}

func (a *app) transformCmd() *cobra.Command {
	var (
		in     inputFlags
		strict bool
		nulls  bool
	)
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Reshape records with the manifest mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadManifest(true)
			if err != nil {
				return err
			}
			if len(m.Transform) == 0 {
				return errors.New("manifest has no transform section")
			}
			v, err := a.decode(in, nil, codec.DeserializeOptions{})
			if err != nil {
				return err
			}
			out, err := transform.Transform(v, m.Transform, transform.Options{Strict: strict, Defaults: nulls}).Unwrap()
			if err != nil {
				return err
			}
			return printJSON(a.stdout, out, true)
		},
	}
	in.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first rule error instead of skipping the field")
	cmd.Flags().BoolVar(&nulls, "nulls", false, "emit null for fields that resolve to nothing")
	return cmd
}

func (a *app) aggregateCmd() *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Group records and compute the manifest reductions",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadManifest(true)
			if err != nil {
				return err
			}
			if m.Aggregate == nil {
				return errors.New("manifest has no aggregate section")
			}
			v, err := a.decode(in, m.Schema, codec.DeserializeOptions{})
			if err != nil {
				return err
			}
			rep, err := aggregate.AggregateValue(v, *m.Aggregate).Unwrap()
			if err != nil {
				return err
			}
			a.logger.Debug("aggregated", log.Int("groups", len(rep.Groups)))
			if a.cfg.GetBool("json") {
				return printJSON(a.stdout, reportJSON(rep), true)
			}
			renderReport(a.stdout, rep, *m.Aggregate)
			return nil
		},
	}
	in.register(cmd)
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	var (
		in     inputFlags
		to     string
		output string
		opts   codec.SerializeOptions
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert records between JSON and CSV, validating when the manifest has a schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadManifest(false)
			if err != nil {
				return err
			}
			target, err := codec.ParseFormat(to)
			if err != nil {
				return err
			}
			v, err := a.decode(in, m.Schema, codec.DeserializeOptions{})
			if err != nil {
				return err
			}
			data, err := codec.Serialize(v, target, opts).Unwrap()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = a.stdout.Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&in.format, "from", "", "input format (alias of --format)")
	cmd.Flags().StringVar(&to, "to", "json", "output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout when empty")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent JSON output")
	cmd.Flags().BoolVar(&opts.SkipHeader, "no-header", false, "omit the CSV header row")
	return cmd
}

func (a *app) schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the manifest schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print the schema as JSON Schema (draft 2020-12)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireSchema()
			if err != nil {
				return err
			}
			doc, err := s.JSONSchema()
			if err != nil {
				return err
			}
			b, err := doc.Marshal()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, string(b))
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "fingerprint",
		Short: "Print a stable hash of the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, fingerprintString(s.Fingerprint()))
			return err
		},
	})
	return cmd
}

func (a *app) requireSchema() (*schema.Schema, error) {
	m, err := a.loadManifest(true)
	if err != nil {
		return nil, err
	}
	if m.Schema == nil {
		return nil, errors.New("manifest has no schema section")
	}
	return m.Schema, nil
}
