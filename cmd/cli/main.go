package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"surveytab/app"
	"surveytab/internal/config"
	"surveytab/internal/container"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SURVEYTAB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "surveytab",
		Short:         "Tabulate survey responses from a file or generated mock data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("file", "", "xlsx or csv file with one response per row (mock data when empty)")
	flags.String("sheet", "", "worksheet to read (first sheet when empty)")
	flags.String("codebook", "", "codebook YAML (embedded codebook when empty)")
	flags.Int("mock-rows", 220, "rows of generated data when no file is given")
	flags.Int64("mock-seed", 7, "seed for generated data")
	flags.Bool("html", false, "print the rendered HTML instead of JSON")
	for _, name := range []string{"file", "sheet", "codebook", "mock-rows", "mock-seed", "html"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newSchemaCmd(v),
		newTableCmd(v),
		newCrosstabCmd(v),
	)
	return rootCmd
}

// configFrom builds the application config from flags and SURVEYTAB_ variables
func configFrom(v *viper.Viper) *config.Config {
	cfg := &config.Config{
		Source:   config.SourceConfig{Kind: config.SourceMock},
		Mock:     config.MockConfig{Rows: v.GetInt("mock-rows"), Seed: v.GetInt64("mock-seed")},
		Codebook: v.GetString("codebook"),
	}
	if file := v.GetString("file"); file != "" {
		cfg.Source = config.SourceConfig{Kind: config.SourceFile, File: file, Sheet: v.GetString("sheet")}
	}
	return cfg
}

func withContainer(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, c *container.Container) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := container.New(ctx, configFrom(v))
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)
	return fn(ctx, c)
}

func newSchemaCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List fields and candidate breaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, v, func(ctx context.Context, c *container.Container) error {
				resp, err := c.Variables.Schema(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func newTableCmd(v *viper.Viper) *cobra.Command {
	var req app.TableRequest

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Crosstab side breaks against combined top breaks per cohort",
		Long: `Build one crosstab per side break over the selected survey paths.

Example: surveytab table --side B2_Participation --top A7_Sex --mode rowPercent --path treatment --path control`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, v, func(ctx context.Context, c *container.Container) error {
				resp, err := c.Tables.Generate(ctx, req)
				if err != nil {
					return err
				}
				if v.GetBool("html") {
					for _, t := range resp.Tables {
						fmt.Fprintln(cmd.OutOrStdout(), t.HTML)
					}
					return nil
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().StringSliceVar(&req.SideBreaks, "side", nil, "side break fields (codebook default when empty)")
	cmd.Flags().StringSliceVar(&req.TopBreaks, "top", nil, "top break fields (codebook default when empty)")
	cmd.Flags().StringVar(&req.Mode, "mode", "count", "count, rowPercent, columnPercent or totalPercent")
	cmd.Flags().StringSliceVar(&req.Paths, "path", nil, "survey paths to include (all when empty)")
	return cmd
}

func newCrosstabCmd(v *viper.Viper) *cobra.Command {
	var (
		topbreak    string
		stat        string
		limit       int
		bins        int
		minCount    int
		take        int
		keepMissing bool
	)

	cmd := &cobra.Command{
		Use:   "crosstab <variable>",
		Short: "Tabulate one variable, optionally by a top break",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("variable", args[0])
			q.Set("topbreak", topbreak)
			q.Set("stat", stat)
			q.Set("limit_categories", strconv.Itoa(limit))
			q.Set("bins", strconv.Itoa(bins))
			q.Set("min_count", strconv.Itoa(minCount))
			q.Set("take", strconv.Itoa(take))
			q.Set("drop_missing", strconv.FormatBool(!keepMissing))
			req := app.ParseVariableQuery(q)

			return withContainer(cmd, v, func(ctx context.Context, c *container.Container) error {
				resp, err := c.Variables.Table(ctx, req)
				if err != nil {
					return err
				}
				if v.GetBool("html") {
					fmt.Fprintln(cmd.OutOrStdout(), resp.HTML)
					return nil
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().StringVar(&topbreak, "topbreak", "", "field to break the variable by")
	cmd.Flags().StringVar(&stat, "stat", app.DefaultStat, "counts, rowpct, colpct or totalpct")
	cmd.Flags().IntVar(&limit, "limit-categories", app.DefaultLimitCategories, "keep at most this many categories per axis (0 = no limit)")
	cmd.Flags().IntVar(&bins, "bins", 10, "histogram bins for numeric variables")
	cmd.Flags().IntVar(&minCount, "min-count", app.DefaultMinCount, "merge categories seen fewer times into Other")
	cmd.Flags().IntVar(&take, "take", 0, "only use the first N records (0 = all)")
	cmd.Flags().BoolVar(&keepMissing, "keep-missing", false, "tabulate missing answers as their own category")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
