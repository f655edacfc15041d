package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pqschema "github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/loomdata/loom/pkg/logger"
	"github.com/loomdata/loom/pkg/model"
	"github.com/loomdata/loom/pkg/parquetio"
)

var version = "0.1.0"

func main() {
	viper.SetEnvPrefix("LOOM")
	viper.AutomaticEnv()

	root := &cobra.Command{
		Use:   "loom",
		Short: "Loom - schema-driven object/parquet mapping engine",
		Long: `Loom maps host records to and from parquet files through explicit
record models, with full support for nested lists, maps and records.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: viper.GetString("log_level")})
		},
	}
	root.PersistentFlags().String("log-level", "error", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Loom v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "schema <file>",
		Short: "Print the stored schema of a parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printSchema(args[0])
		},
	})

	var limit int
	catCmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print the records of a parquet file as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return catRecords(args[0], limit)
		},
		Args: cobra.ExactArgs(1),
	}
	catCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records to print (0 = all)")
	root.AddCommand(catCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printSchema(path string) error {
	rd, err := parquetio.NewGenericReader(mustOpen(path))
	if err != nil {
		return err
	}
	defer rd.Close()
	pqschema.PrintSchema(rd.Schema().ParquetRoot, os.Stdout, 2)
	fmt.Println()
	return nil
}

func catRecords(path string, limit int) error {
	rd, err := parquetio.NewGenericReader(mustOpen(path))
	if err != nil {
		return err
	}
	defer rd.Close()

	enc := json.NewEncoder(os.Stdout)
	for n := 0; limit == 0 || n < limit; n++ {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(jsonable(rec)); err != nil {
			return err
		}
	}
	return nil
}

func mustOpen(path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return f
}

// jsonable rewrites assembled values into shapes the JSON encoder
// accepts: non-string map keys become formatted strings and ordered
// entry slices become arrays of key/value objects.
func jsonable(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			out[k] = jsonable(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, e := range vv {
			out[fmt.Sprint(jsonable(k))] = jsonable(e)
		}
		return out
	case []model.MapEntry:
		out := make([]map[string]any, len(vv))
		for i, e := range vv {
			out[i] = map[string]any{"key": jsonable(e.Key), "value": jsonable(e.Value)}
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = jsonable(e)
		}
		return out
	case time.Time:
		return vv.Format(time.RFC3339Nano)
	default:
		return v
	}
}
