package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	uploadRuntime     string
	uploadDescription string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Uploads a function code archive to the gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f); err != nil {
			return err
		}
		if uploadRuntime != "" {
			if err := mw.WriteField("runtime", uploadRuntime); err != nil {
				return err
			}
		}
		if uploadDescription != "" {
			if err := mw.WriteField("description", uploadDescription); err != nil {
				return err
			}
		}
		if err := mw.Close(); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, gatewayURL()+"/upload", &body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("x-api-key", apiKey())

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("upload request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		fmt.Println(string(respBody))
		if resp.StatusCode >= 300 {
			return fmt.Errorf("upload rejected with status %d", resp.StatusCode)
		}
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	uploadCmd.Flags().StringVarP(&uploadRuntime, "runtime", "r", "", "Runtime for the function (default nodejs18)")
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "Description stored with the function")
	rootCmd.AddCommand(uploadCmd)
}
