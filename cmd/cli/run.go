package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var runInput string

var runCmd = &cobra.Command{
	Use:   "run <functionId>",
	Short: "Runs a function synchronously and prints its result",
	Long:  `Dispatches a job for the function and blocks until the worker's result arrives or the gateway's wait deadline passes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := json.RawMessage(runInput)
		if !json.Valid(input) {
			return fmt.Errorf("--input must be valid JSON")
		}

		payload, err := json.Marshal(map[string]json.RawMessage{
			"functionId": json.RawMessage(`"` + args[0] + `"`),
			"inputData":  input,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, gatewayURL()+"/run", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", apiKey())

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("run request failed: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		fmt.Println(string(body))

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limited, %s of %s requests remaining",
				resp.Header.Get("X-RateLimit-Remaining"),
				resp.Header.Get("X-RateLimit-Limit"))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("run rejected with status %d", resp.StatusCode)
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	runCmd.Flags().StringVarP(&runInput, "input", "i", "{}", "JSON input passed to the function")
	rootCmd.AddCommand(runCmd)
}
