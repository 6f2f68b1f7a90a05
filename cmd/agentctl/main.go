package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/config"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/api"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/chat"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/credentials"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/kibana"
	"golang.org/x/term"
)

var version = "dev"

var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agentctl",
		Short: "CLI for the Kibana Agent Builder API",
		Long: `agentctl is a thin client for the Kibana Agent Builder API.

It lists configured agents, sends one-shot converse requests, and runs an
interactive chat session with /elastic-* meta-commands.

Examples:
  agentctl list-agents
  agentctl chat
  agentctl converse --agent-id elastic-ai-agent --input "hello"
  agentctl serve --port 8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}

			level, _ := zerolog.ParseLevel(cfg.LogLevel)
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().
				Timestamp().
				Logger()

			return nil
		},
	}

	rootCmd.AddCommand(listAgentsCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(converseCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func newClient() (*kibana.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return kibana.NewClient(cfg, logger), nil
}

func printJSON(data any) error {
	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}

func listAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-agents",
		Short: "List Agent Builder agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			agents, err := client.ListAgents(context.Background())
			if err != nil {
				return err
			}
			return printJSON(agents)
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with /elastic-* commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigChan
				fmt.Println("\nBye!")
				cancel()
				os.Exit(0)
			}()

			shell := chat.NewShell(client, cfg.DefaultAgentID, os.Stdin, os.Stdout, logger)
			return shell.Run(ctx)
		},
	}
}

func converseCmd() *cobra.Command {
	var (
		agentID        string
		input          string
		conversationID string
		connectorID    string
		overridesJSON  string
		promptsJSON    string
	)

	cmd := &cobra.Command{
		Use:   "converse",
		Short: "Send a single converse request",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseJSONObject("--configuration-overrides", overridesJSON)
			if err != nil {
				return err
			}
			prompts, err := parseJSONObject("--prompts", promptsJSON)
			if err != nil {
				return err
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			data, err := client.Converse(context.Background(), kibana.ConverseRequest{
				Input:                  input,
				AgentID:                agentID,
				ConversationID:         conversationID,
				ConnectorID:            connectorID,
				ConfigurationOverrides: overrides,
				Prompts:                prompts,
			})
			if err != nil {
				return err
			}
			return printJSON(data)
		},
	}

	cmd.Flags().StringVar(&agentID, "agent-id", "", "Agent to converse with")
	cmd.Flags().StringVar(&input, "input", "", "User input text")
	cmd.Flags().StringVar(&conversationID, "conversation-id", "", "Continue an existing conversation")
	cmd.Flags().StringVar(&connectorID, "connector-id", "", "Connector to use for the turn")
	cmd.Flags().StringVar(&overridesJSON, "configuration-overrides", "", "JSON object of configuration overrides")
	cmd.Flags().StringVar(&promptsJSON, "prompts", "", "JSON object of prompt overrides")
	cmd.MarkFlagRequired("agent-id")
	cmd.MarkFlagRequired("input")

	return cmd
}

func parseJSONObject(flag, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON for %s: %w", flag, err)
	}
	return obj, nil
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local REST facade over the Agent Builder API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			if port > 0 {
				cfg.ServerPort = port
			}
			server := api.NewServer(client, cfg.ServerPort, logger)
			return server.Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default: 8080)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agentctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage connection settings stored in the OS keychain",
		Long: `Manage Kibana connection settings stored securely in your OS keychain.

Settings are stored in:
  - macOS: Keychain Access
  - Windows: Credential Manager
  - Linux: Secret Service (GNOME Keyring)

Examples:
  agentctl config setup          # Interactive setup
  agentctl config show           # Show configured settings
  agentctl config clear          # Remove all stored settings`,
	}

	cmd.AddCommand(configSetupCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configClearCmd())

	return cmd
}

func configSetupCmd() *cobra.Command {
	var apiKey, baseURL, spaceID string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure Kibana connection settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			if baseURL == "" {
				fmt.Print("Kibana URL (press Enter to skip): ")
				u, _ := reader.ReadString('\n')
				baseURL = strings.TrimSpace(u)
			}

			if apiKey == "" {
				fmt.Print("Kibana API Key (press Enter to skip): ")
				key, _ := readPassword()
				apiKey = strings.TrimSpace(key)
			}

			if spaceID == "" {
				fmt.Print("Kibana space id (press Enter to skip): ")
				space, _ := reader.ReadString('\n')
				spaceID = strings.TrimSpace(space)
			}

			if err := credentials.Setup(apiKey, baseURL, spaceID); err != nil {
				return fmt.Errorf("failed to store settings: %w", err)
			}

			fmt.Println("\nSettings stored securely in OS keychain.")
			fmt.Println("You can now run agentctl without setting environment variables.")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Kibana API key")
	cmd.Flags().StringVar(&baseURL, "url", "", "Kibana base URL")
	cmd.Flags().StringVar(&spaceID, "space-id", "", "Kibana space id")

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show configured settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			configured := credentials.ListConfigured()

			fmt.Println("Setting status (stored in OS keychain):")
			fmt.Println("=======================================")

			status := func(ok bool) string {
				if ok {
					return "configured"
				}
				return "not set"
			}

			fmt.Printf("  Kibana API Key: %s\n", status(configured[credentials.KeyAPIKey]))
			fmt.Printf("  Kibana URL:     %s\n", status(configured[credentials.KeyBaseURL]))

			if configured[credentials.KeySpaceID] {
				space, _ := credentials.Get(credentials.KeySpaceID)
				fmt.Printf("  Space id:       %s\n", space)
			} else {
				fmt.Printf("  Space id:       not set\n")
			}

			fmt.Println("\nNote: Environment variables override keychain values.")
			return nil
		},
	}
}

func configClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("Are you sure you want to clear all stored settings? [y/N]: ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))

			if response != "y" && response != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}

			if err := credentials.ClearAll(); err != nil {
				fmt.Printf("Warning: some settings may not have been cleared: %v\n", err)
			}

			fmt.Println("All settings cleared from keychain.")
			return nil
		},
	}
}

func readPassword() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		return string(bytes), err
	}
	reader := bufio.NewReader(os.Stdin)
	return reader.ReadString('\n')
}
