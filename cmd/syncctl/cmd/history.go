package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gitsyncd/gitsyncd/internal/api"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sync attempts from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient()
		resp, err := client.Get(fmt.Sprintf("/api/v1/history?limit=%d", historyLimit))
		if err != nil {
			return fmt.Errorf("error fetching history: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return CheckResponse(resp)
		}

		var apiResp struct {
			Data []api.AttemptSummary `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return fmt.Errorf("error decoding response: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "STARTED\tSTAGE\tSUCCESS\tCOMMIT\tERROR")
		for _, attempt := range apiResp.Data {
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
				attempt.StartedAt.Format(time.RFC3339),
				attempt.Stage,
				attempt.Success,
				shortHash(attempt.CommitHash),
				attempt.Error,
			)
		}
		w.Flush()
		return nil
	},
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of attempts to list")
	rootCmd.AddCommand(historyCmd)
}
