// Command api-gateway is an OpenAI-compatible chat-completions gateway that
// fails over between upstream LLM providers.
//
// Usage:
//
//	# Start the server with configuration from the environment and .env
//	api-gateway serve
//
//	# Print the effective provider and route table
//	api-gateway routes
//
//	# Show version information
//	api-gateway version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/llm-gateway/internal/observability"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "api-gateway",
	Short: "LLM failover gateway",
	Long: `api-gateway accepts OpenAI-compatible chat-completion requests and forwards
each one to an upstream provider chosen by round-robin over the model's route.
Rate-limited providers are cooled down and the next candidate is tried.
Optional server-side sessions carry conversation history between requests.`,
	SilenceUsage: true,
	Version:      Version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func initLogger() (*zap.Logger, error) {
	return observability.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}
