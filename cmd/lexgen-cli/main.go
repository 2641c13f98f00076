package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultAddr = "http://localhost:5000"

func main() {
	exitFn(run(os.Args[1:], os.Stdout, os.Stderr))
}

var exitFn = os.Exit

// usageError marks bad invocations; run maps it to exit code 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// failedError marks a command that ran but reported failure, such as an
// invalid request. Its output is already printed.
type failedError struct{}

func (failedError) Error() string { return "failed" }

type globalOptions struct {
	addr    string
	token   string
	jsonOut bool
	timeout time.Duration
}

func (o *globalOptions) client() *apiClient {
	return &apiClient{
		addr:  o.addr,
		token: o.token,
		http:  &http.Client{Timeout: o.timeout},
	}
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	root := rootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		fmt.Fprintln(stderr, usage.msg)
		_ = root.Usage()
		return 2
	case errors.Is(err, failedError{}):
		return 1
	default:
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
}

func rootCmd(stdout io.Writer, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "lexgen-cli",
		Short:         "Operate a lexgen contract generation gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          unknownSubcommand,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usageError{msg: "a command is required"}
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.addr, "addr", envOrDefault("LEXGEN_ADDR", defaultAddr), "lexgen API address")
	flags.StringVar(&opts.token, "token", os.Getenv("LEXGEN_API_TOKEN"), "bearer token")
	flags.BoolVar(&opts.jsonOut, "json", false, "print raw JSON responses")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "HTTP timeout")

	cmd.AddCommand(
		rulesCmd(),
		promptCmd(),
		validateCmd(opts),
		generateCmd(opts),
		contractsCmd(opts),
		deployCmd(opts),
	)
	return cmd
}

// groupCmd is a parent command that only dispatches to its subcommands.
func groupCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  unknownSubcommand,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usageError{msg: cmd.CommandPath() + " requires a subcommand"}
		},
	}
}

func unknownSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError{msg: fmt.Sprintf("unknown command %q for %s", args[0], cmd.CommandPath())}
	}
	return nil
}

func exactArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError{msg: cmd.CommandPath() + " requires " + what}
		}
		return nil
	}
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}
