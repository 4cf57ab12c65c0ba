package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gitsyncd/gitsyncd/internal/api"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon running statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient()
		resp, err := client.Get("/api/v1/status")
		if err != nil {
			return fmt.Errorf("error fetching status: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return CheckResponse(resp)
		}

		var apiResp struct {
			Data api.DaemonStatus `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return fmt.Errorf("error decoding response: %v", err)
		}

		PrintJSON(apiResp.Data)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
