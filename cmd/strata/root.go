package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lc/strata/internal/buildinfo"
	"github.com/lc/strata/internal/config"
	"github.com/lc/strata/internal/filesys"
	"github.com/lc/strata/internal/log"
	"github.com/lc/strata/pkg/client"
	"github.com/lc/strata/pkg/strata"
	"github.com/lc/strata/pkg/value"
)

type globals struct {
	dir          string
	files        []string
	env          string
	environments []string
	mergeLists   bool
	verbose      bool
	socket       string
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "strata",
		Short: "Resolve layered, environment-scoped configuration",
		Long: `strata reads the layered configuration files of a project and resolves
values for an environment. Each environment in the cascade inherits everything
resolved for the ones before it, and an environment variable named after the
last key of a path overrides the file value.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if g.verbose {
				log.SetLevel(zap.DebugLevel)
			} else {
				log.SetLevel(zap.WarnLevel)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.dir, "dir", config.DefaultDirectory, "configuration directory")
	pf.StringSliceVar(&g.files, "files", config.DefaultFiles(), "layered files, lowest precedence first")
	pf.StringVar(&g.env, "env", config.DefaultEnvironment, "environment to resolve")
	pf.StringSliceVar(&g.environments, "environments", config.DefaultEnvironments(), "environment cascade, baseline first")
	pf.BoolVar(&g.mergeLists, "merge-lists", false, "merge lists index by index instead of replacing them")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.StringVar(&g.socket, "socket", "", "stratad socket (default from ~/.strata/stratad.yaml)")

	root.AddCommand(
		newGetCmd(g),
		newDumpCmd(g),
		newEnvsCmd(g),
		newExportCmd(g),
		newReloadCmd(g),
		newStatusCmd(g),
		newVersionCmd(),
	)
	return root
}

// options turns the flags the user set into engine options. Unset flags are
// left to the CONFIG_* variables and built-in defaults.
func (g *globals) options(cmd *cobra.Command) []strata.Option {
	f := cmd.Flags()
	var opts []strata.Option
	if f.Changed("dir") {
		opts = append(opts, strata.WithDirectory(g.dir))
	}
	if f.Changed("files") {
		opts = append(opts, strata.WithFiles(g.files...))
	}
	if f.Changed("environments") {
		opts = append(opts, strata.WithEnvironments(g.environments...))
	}
	if f.Changed("env") {
		opts = append(opts, strata.WithEnvironment(g.env))
	}
	if g.mergeLists {
		opts = append(opts, strata.WithListStrategy(value.MergeLists))
	}
	return opts
}

func (g *globals) open(cmd *cobra.Command) (*strata.Configuration, error) {
	return strata.New(g.options(cmd)...)
}

func (g *globals) client() (*client.Client, error) {
	path := g.socket
	if path == "" {
		cfg, err := config.New().Load()
		if err != nil {
			return nil, err
		}
		path = cfg.Socket.Path
	}
	return client.New(path), nil
}

func newGetCmd(g *globals) *cobra.Command {
	var (
		def       string
		noThrow   bool
		noEnvVars bool
		daemon    bool
	)
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value at a path",
		Long: `Print the value at a path. Scalars are printed as is and collections as
YAML. An empty path prints the whole environment.`,
		Example: `  strata get example.DATABASE_URL --env production
  strata get foo/enabled --default true
  strata get service:API_KEY --no-throw`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if daemon {
				return g.getFromDaemon(cmd, path, def, noThrow, noEnvVars)
			}

			c, err := g.open(cmd)
			if err != nil {
				return err
			}
			opts := []strata.GetOption{strata.Env(c.Environment())}
			if cmd.Flags().Changed("default") {
				opts = append(opts, strata.Default(def))
			}
			if noThrow {
				opts = append(opts, strata.Throw(false))
			}
			if noEnvVars {
				opts = append(opts, strata.EnvironmentVariables(false))
			}
			v, err := c.Get(path, opts...)
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "value printed when nothing is found")
	cmd.Flags().BoolVar(&noThrow, "no-throw", false, "treat resolution failures as absent values")
	cmd.Flags().BoolVar(&noEnvVars, "no-envvars", false, "ignore environment variable overrides")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "ask stratad instead of reading the files")
	return cmd
}

func (g *globals) getFromDaemon(cmd *cobra.Command, path, def string, noThrow, noEnvVars bool) error {
	cli, err := g.client()
	if err != nil {
		return err
	}
	q := client.Query{}
	if cmd.Flags().Changed("env") {
		q.Environment = g.env
	}
	if cmd.Flags().Changed("default") {
		q.Default = &def
	}
	if noThrow {
		f := false
		q.Throw = &f
	}
	if noEnvVars {
		f := false
		q.EnvVars = &f
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	resp, err := cli.Get(ctx, path, q)
	if err != nil {
		return err
	}
	return printValue(cmd.OutOrStdout(), resp.Value)
}

func newDumpCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "dump",
		Short:   "Print the resolved configuration of an environment as YAML",
		Example: "  strata dump --env staging",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := g.resolved(cmd)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// resolved renders the selected environment as YAML.
func (g *globals) resolved(cmd *cobra.Command) ([]byte, error) {
	c, err := g.open(cmd)
	if err != nil {
		return nil, err
	}
	env := c.Environment()
	v, ok := c.Snapshot().Environment(env)
	if !ok {
		return nil, fmt.Errorf("%w %q", strata.ErrUnknownEnvironment, env)
	}
	return yaml.Marshal(v.Interface())
}

func newEnvsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List the environment cascade",
		Long: `List the environments in cascade order. Each environment inherits from
the ones above it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.open(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			def := c.Environment()
			snap := c.Snapshot()

			table := tablewriter.NewWriter(w)
			table.SetHeader([]string{"#", "Environment", "Keys", "Default"})
			table.SetHeaderColor(
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
				tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
			)
			table.SetBorder(false)
			table.SetColumnColor(
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgGreenColor},
				tablewriter.Colors{tablewriter.FgHiWhiteColor},
				tablewriter.Colors{tablewriter.FgYellowColor},
			)
			for i, env := range c.Environments() {
				var keys []string
				if v, ok := snap.Environment(env); ok {
					keys = v.Keys()
				}
				marker := ""
				if env == def {
					marker = "*"
				}
				table.Append([]string{strconv.Itoa(i + 1), env, strings.Join(keys, ", "), marker})
			}

			color.New(color.Bold).Fprintf(w, "ENVIRONMENTS (%d files loaded):\n", len(snap.Sources))
			table.Render()
			return nil
		},
	}
}

func newExportCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the resolved configuration of an environment to a file",
		Long: `Write the resolved configuration of an environment to a YAML file. The
file is replaced atomically, so readers never see a partial write.`,
		Example: "  strata export --out build/production.yml --env production",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := g.resolved(cmd)
			if err != nil {
				return err
			}
			if err := filesys.AtomicWrite(filesys.OS(), out, data, 0o644); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newReloadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make stratad re-read its configuration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			resp, err := cli.Reload(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprint(w, "✓ Reloaded ")
			color.New(color.FgHiWhite).Fprintf(w, "%d documents, snapshot %s\n", resp.Documents, resp.Snapshot)
			return nil
		},
	}
}

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stratad status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()
			st, err := cli.Status(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			label := color.New(color.Bold)
			label.Fprint(w, "snapshot:     ")
			fmt.Fprintf(w, "%s (loaded %s)\n", st.Snapshot, st.LoadedAt.Format(time.RFC3339))
			label.Fprint(w, "environment:  ")
			fmt.Fprintln(w, st.Environment)
			label.Fprint(w, "cascade:      ")
			fmt.Fprintln(w, strings.Join(st.Environments, " > "))
			label.Fprint(w, "files:        ")
			fmt.Fprintln(w, strings.Join(st.Files, ", "))
			label.Fprint(w, "reloads:      ")
			fmt.Fprintln(w, st.Reloads)
			label.Fprint(w, "uptime:       ")
			fmt.Fprintln(w, st.Uptime.Round(time.Second))
			label.Fprint(w, "version:      ")
			fmt.Fprintf(w, "%s (commit %s)\n", st.Version, st.Commit)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

func printValue(w io.Writer, v any) error {
	switch v := v.(type) {
	case map[string]any, []any:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case nil:
		_, err := fmt.Fprintln(w, "null")
		return err
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}
