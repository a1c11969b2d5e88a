package dict

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/client"
	"github.com/ValentinKolb/dDict/rpc/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	stressTestCmd = &cobra.Command{
		Use:   "stress",
		Short: "Sends two chained updates of the same word concurrently",
		Long: `Sends two updateMeaning requests for the same word at the same time,
each on its own connection: the first replaces meaning 1 with meaning 2,
the second replaces meaning 2 with meaning 3. The final state of the word
is queried afterwards. Without lost updates the word ends up with either
meaning 3 (both succeeded) or meaning 2 (the second one ran first and got
meaning_not_found). Use --delay to make the first writer hold the lock.`,
		Args: cobra.NoArgs,
		RunE: runStress,
	}
)

func init() {
	key := "word"
	stressTestCmd.Flags().String(key, "apple", util.WrapString("The word to modify"))
	key = "meanings"
	stressTestCmd.Flags().StringSlice(key, []string{
		"A classic dessert ingredient",
		"major technology company",
		"A type of fruit",
	}, util.WrapString("The three meanings used by the chained updates (comma separated)"))
}

// stressOutcome is the result of one writer
type stressOutcome struct {
	name string
	resp *common.Response
	err  error
	took time.Duration
}

func runStress(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	word := viper.GetString("word")
	meanings := viper.GetStringSlice("meanings")
	if len(meanings) != 3 {
		return fmt.Errorf("exactly three meanings are required, got %d", len(meanings))
	}

	fmt.Printf("--- Starting concurrent write test on word: '%s' ---\n", word)

	// make sure the first meaning is present
	if err := prepareStressWord(word, meanings[0]); err != nil {
		return err
	}

	// one connection per writer, a shared connection would serialize the requests
	configs := stressWriterConfigs(*util.GetClientConfig())
	writers := make([]client.IDictionary, len(configs))
	for i := range writers {
		c, err := newDictClient(&configs[i])
		if err != nil {
			return err
		}
		defer c.Close()
		writers[i] = c
	}

	registry := gometrics.NewRegistry()
	timer := gometrics.GetOrRegisterTimer("stress.update", registry)

	outcomes := make([]stressOutcome, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			oldMeaning, newMeaning := meanings[i], meanings[i+1]
			name := fmt.Sprintf("writer-%d", i+1)
			fmt.Printf("%s: sending request to update '%s' to '%s'\n", name, oldMeaning, newMeaning)

			<-start
			t0 := time.Now()
			resp, err := writers[i].UpdateMeaning(word, oldMeaning, newMeaning)
			timer.UpdateSince(t0)
			outcomes[i] = stressOutcome{name: name, resp: resp, err: err, took: time.Since(t0)}
		}()
	}
	close(start)
	wg.Wait()

	for _, o := range outcomes {
		if o.err != nil {
			fmt.Printf("%s: error after %s: %v\n", o.name, o.took, o.err)
			continue
		}
		fmt.Printf("%s: [%s] %s (%s)\n", o.name, o.resp.Status, o.resp.Message, o.took)
	}
	fmt.Printf("latency: mean=%s max=%s\n", time.Duration(timer.Mean()), time.Duration(timer.Max()))

	fmt.Println("\n--- All writers have completed. Verifying final state... ---")
	resp, err := rpcDict.Query(word)
	if err != nil {
		return err
	}
	printResponse(word, resp)
	return nil
}

// stressWriterConfigs returns the client configs of both writers.
// Only the first writer forwards the delay.
func stressWriterConfigs(config common.ClientConfig) []common.ClientConfig {
	second := config
	second.DelayMillisecond = 0
	return []common.ClientConfig{config, second}
}

// prepareStressWord adds word or the meaning to it if necessary
func prepareStressWord(word, meaning string) error {
	resp, err := rpcDict.Query(word)
	if err != nil {
		return err
	}

	switch {
	case !resp.OK():
		resp, err = rpcDict.Add(word, []string{meaning})
	case !slices.Contains(resp.Meanings, meaning):
		resp, err = rpcDict.AddMeaning(word, meaning)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("failed to prepare '%s': %s", word, resp.Message)
	}
	return nil
}
