package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vk/datumgraph/internal/app"
	"github.com/vk/datumgraph/internal/datum"
	"github.com/vk/datumgraph/internal/hcl"
)

const envPrefix = "datumgraph"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalFlags are shared by every command that opens a document.
type globalFlags struct {
	logLevel           string
	logFormat          string
	metricsPort        int
	notifyURL          string
	insecureSkipVerify bool
	parseCacheSize     int
}

func (f *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.logLevel, "log-level", "warn", "set the logging level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "text", "log output format: text or json")
	fs.IntVar(&f.metricsPort, "metrics-port", 0, "port serving /health and /metrics; 0 is disabled")
	fs.StringVar(&f.notifyURL, "notify-url", "", "socket.io endpoint that receives invalidation events")
	fs.BoolVar(&f.insecureSkipVerify, "insecure-skip-verify", false, "skip TLS verification for --notify-url")
	fs.IntVar(&f.parseCacheSize, "parse-cache-size", 0, "number of parsed expressions to cache; 0 selects the default")
}

func (f *globalFlags) config(documentPath string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		DocumentPath:       documentPath,
		LogLevel:           strings.ToLower(f.logLevel),
		LogFormat:          strings.ToLower(f.logFormat),
		MetricsPort:        f.metricsPort,
		NotifyURL:          f.notifyURL,
		InsecureSkipVerify: f.insecureSkipVerify,
		ParseCacheSize:     f.parseCacheSize,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// openApp builds the app and loads the document at path into its graph.
func (f *globalFlags) openApp(cmd *cobra.Command, path string, hooks ...datum.Hook) (*app.App, error) {
	cfg, err := f.config(path)
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Open(hcl.NewLoader(), hooks...); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// NewRootCommand returns the datumgraph command tree.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "datumgraph",
		Short: "Evaluate and explore graphs of named values",
		Long: `datumgraph loads nodes from HCL documents and evaluates their fields on
demand. A field is a literal, an expression over other fields, or a value
computed by the node type. Changing a literal marks everything that read it
as stale; stale fields are recomputed the next time they are read.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return checkEnvironmentVariables(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})
	flags.register(root.PersistentFlags())

	root.AddCommand(
		newEvalCommand(flags),
		newDepsCommand(flags),
		newTypesCommand(flags),
		newREPLCommand(flags),
	)
	return root
}

// Execute runs the command tree with args, writing to out and errOut.
func Execute(args []string, out, errOut io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.Execute()
}

// checkEnvironmentVariables sets every flag the user did not pass from its
// DATUMGRAPH_<FLAG> environment variable.
func checkEnvironmentVariables(cmd *cobra.Command) error {
	var errs []error
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	})
	if err := errors.Join(errs...); err != nil {
		return usageError(fmt.Errorf("error mapping environment variables to command flags: %w", err))
	}
	return nil
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
