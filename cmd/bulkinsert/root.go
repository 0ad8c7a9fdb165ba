package main

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/marcodd23/go-bulkcopy/pkg/configmgr"
	"github.com/marcodd23/go-bulkcopy/pkg/dbx"
	"github.com/marcodd23/go-bulkcopy/pkg/logx"
	"github.com/marcodd23/go-bulkcopy/pkg/profiling"
	"github.com/marcodd23/go-bulkcopy/pkg/shutdown"
	"github.com/marcodd23/go-bulkcopy/pkg/utilx/jsonx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func version() string {
	return "v1.0.0"
}

type insertOptions struct {
	configPath string
	input      string
	table      string
	entity     string
	columns    []string
	batchSize  int
	cpuProfile string
	memProfile string
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version())
		},
	}
}

// NewRootCmd builds the top-level `bulkinsert` command.
func NewRootCmd() *cobra.Command {
	opts := &insertOptions{}

	root := &cobra.Command{
		Use:   "bulkinsert",
		Short: "Bulk copy JSON records into a database table",
		Long: `bulkinsert reads a JSON array of objects and bulk copies it into a table
through the backend configured in bulk.backend (pgx, pq or bigquery).

Examples:
  bulkinsert --config ./config --input orders.json --table public.orders
  cat orders.json | bulkinsert --input - --entity order --columns id,total`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &configmgr.BaseConfig{}
			if err := configmgr.LoadConfigFromPathForEnv(opts.configPath, cfg); err != nil {
				return err
			}

			logx.SetupLogger(cfg)

			if opts.cpuProfile != "" {
				stop, err := profiling.StartCPUProfile(opts.cpuProfile)
				if err != nil {
					return err
				}
				defer stop()
			}

			if opts.memProfile != "" {
				defer func() {
					if err := profiling.CaptureMemoryProfile(opts.memProfile); err != nil {
						logx.GetLogger().LogWarning(cmd.Context(), "Memory profile not written", err)
					}
				}()
			}

			return shutdown.RunTaskWithContextCancellation(cmd.Context(), func(ctx context.Context) error {
				return runInsert(ctx, cmd, cfg, opts)
			})
		},
	}

	root.Flags().StringVar(&opts.configPath, "config", "./config", "Directory holding property.yaml / property-<env>.yaml")
	root.Flags().StringVar(&opts.input, "input", "-", "JSON records file, - for stdin")
	root.Flags().StringVar(&opts.table, "table", "", "Destination table, overrides bulk.table")
	root.Flags().StringVar(&opts.entity, "entity", "", "Entity name resolved through bulk.tables")
	root.Flags().StringSliceVar(&opts.columns, "columns", nil, "Destination columns, overrides bulk.columns")
	root.Flags().IntVar(&opts.batchSize, "batch-size", -1, "Rows per copy call, overrides bulk.batchSize (0 copies all at once)")

	root.Flags().StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	root.Flags().StringVar(&opts.memProfile, "memprofile", "", "Write a heap profile to this file on exit")

	root.AddCommand(NewVersionCmd())

	return root
}

func runInsert(ctx context.Context, cmd *cobra.Command, cfg configmgr.Config, opts *insertOptions) error {
	bulkCfg := cfg.GetBulkConfig()

	table, err := resolveTable(bulkCfg, opts)
	if err != nil {
		return err
	}

	data, err := readInput(cmd, opts.input)
	if err != nil {
		return err
	}

	records, err := jsonx.ParseJSONRecords(data)
	if err != nil {
		return err
	}

	columns := resolveColumns(bulkCfg, opts, records)
	if len(columns) == 0 {
		cmd.Println("No records to insert")
		return nil
	}

	mapping, err := dbx.MapColumns(table, columns...)
	if err != nil {
		return err
	}

	batchSize := bulkCfg.BatchSize
	if opts.batchSize >= 0 {
		batchSize = opts.batchSize
	}

	session, release, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	rowCount, err := dbx.BulkInsert(ctx, session, mapping, records, dbx.WithBatchSize(batchSize))
	if err != nil {
		return err
	}

	cmd.Printf("%d rows inserted into %s\n", rowCount, table)

	return nil
}

func resolveTable(bulkCfg *configmgr.BulkConfig, opts *insertOptions) (string, error) {
	if opts.table != "" {
		return opts.table, nil
	}

	if opts.entity != "" {
		return dbx.TableNames(bulkCfg.Tables).Lookup(opts.entity)
	}

	if bulkCfg.Table != "" {
		return bulkCfg.Table, nil
	}

	return "", errors.New("no destination table: set --table, --entity or bulk.table")
}

// resolveColumns picks the flag columns, then the configured ones, then the sorted union of the
// record keys.
func resolveColumns(bulkCfg *configmgr.BulkConfig, opts *insertOptions, records []map[string]interface{}) []string {
	if len(opts.columns) > 0 {
		return opts.columns
	}

	if len(bulkCfg.Columns) > 0 {
		return bulkCfg.Columns
	}

	keys := make(map[string]struct{})
	for _, record := range records {
		for key := range record {
			keys[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(keys))
	for key := range keys {
		columns = append(columns, key)
	}

	sort.Strings(columns)

	return columns
}

func readInput(cmd *cobra.Command, input string) ([]byte, error) {
	if input == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "error reading records from stdin")
	}

	data, err := os.ReadFile(input)

	return data, errors.Wrapf(err, "error reading records from %s", input)
}
