package dict

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/transport/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints store information and request metrics of a server",
		Long:  "Reads /info and /metrics from the metrics endpoint of a server (ddict serve --metrics-endpoint).",
		Args:  cobra.NoArgs,
		// does not use the dictionary protocol
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			return common.InitLoggers(viper.GetString("log-level"))
		},
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE:               runStats,
	}
)

func init() {
	key := "metrics-endpoints"
	statsCmd.Flags().String(key, "localhost:9090", util.WrapString("The metrics endpoint(s) of the server (comma separated)"))
	key = "raw"
	statsCmd.Flags().Bool(key, false, util.WrapString("Print all metrics in Prometheus text format"))
}

func runStats(_ *cobra.Command, _ []string) error {
	c, err := http.NewStatusClient(
		util.SplitList(viper.GetString("metrics-endpoints")),
		time.Duration(viper.GetInt("timeout"))*time.Second,
		viper.GetInt("retries"),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()

	var info map[string]interface{}
	if err := c.Info(ctx, &info); err != nil {
		return fmt.Errorf("failed to read store info: %w", err)
	}
	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("Store:\n%s\n\n", out)

	body, err := c.Metrics(ctx)
	if err != nil {
		return fmt.Errorf("failed to read metrics: %w", err)
	}

	fmt.Println("Metrics:")
	if viper.GetBool("raw") {
		fmt.Print(body)
		return nil
	}
	printDictMetrics(body)
	return nil
}

// printDictMetrics prints the ddict_* samples, skipping histogram buckets
func printDictMetrics(body string) {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ddict_") || strings.Contains(line, "_bucket{") {
			continue
		}
		fmt.Fprintf(w, "  %s\n", line)
	}
}
