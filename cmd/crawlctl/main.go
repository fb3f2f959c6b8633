// crawlctl is an operator CLI for a running news-rag server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:   "crawlctl",
		Short: "Operate a running news-rag server",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "base URL of the news-rag server")

	root.AddCommand(crawlCmd(), statsCmd(), healthCmd(), askCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func crawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Trigger a crawl cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/crawl", nil)
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show crawler and vector-store stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/stats")
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/health")
		},
	}
}

func askCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against the indexed articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/ask", map[string]string{
				"question": args[0],
				"user_id":  userID,
				"username": "crawlctl",
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "cli", "user id attached to the question")
	return cmd
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func getAndPrint(path string) error {
	resp, err := httpClient().Get(serverURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printJSON(resp)
}

func postAndPrint(path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	resp, err := httpClient().Post(serverURL+path, "application/json", reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printJSON(resp)
}

func printJSON(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
	} else {
		fmt.Println(pretty.String())
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
