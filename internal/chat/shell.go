package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vectorpilot87/elastic-agent-builder-openclaw-skill/internal/kibana"
)

// API is the slice of the Kibana client the shell needs.
type API interface {
	ListAgents(ctx context.Context) ([]any, error)
	Converse(ctx context.Context, req kibana.ConverseRequest) (any, error)
}

// Shell is a synchronous line-oriented chat loop. Slash commands are
// intercepted; everything else is forwarded as a conversational turn.
type Shell struct {
	client  API
	session Session
	in      *bufio.Reader
	out     io.Writer
	logger  zerolog.Logger
}

func NewShell(client API, defaultAgentID string, in io.Reader, out io.Writer, logger zerolog.Logger) *Shell {
	return &Shell{
		client:  client,
		session: NewSession(defaultAgentID),
		in:      bufio.NewReader(in),
		out:     out,
		logger:  logger.With().Str("chat_session", uuid.New().String()).Logger(),
	}
}

// Session exposes the current state, mainly for tests.
func (s *Shell) Session() Session {
	return s.session
}

func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Connected to Kibana")
	s.printHelp()
	fmt.Fprintf(s.out, "Current agent: %s (%s)\n", s.session.AgentName, s.session.AgentID)

	for {
		fmt.Fprint(s.out, "you> ")
		line, err := s.in.ReadString('\n')
		eof := err != nil

		input := strings.TrimSpace(line)
		if input == "" {
			if eof {
				return nil
			}
			continue
		}

		switch strings.ToLower(input) {
		case "/exit", "/quit":
			fmt.Fprintln(s.out, "Bye!")
			return nil
		case "/elastic-help":
			s.printHelp()
		case "/elastic-new":
			s.session.NewConversation()
			fmt.Fprintln(s.out, "(Started new conversation)")
		case "/elastic-agent":
			fmt.Fprintf(s.out, "Current agent: %s (%s)\n", s.session.AgentName, s.session.AgentID)
		case "/elastic-agents":
			s.chooseAgent(ctx)
		default:
			s.turn(ctx, input)
		}

		if eof {
			return nil
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:\n"+
		"  /elastic-agents  List agents and choose one\n"+
		"  /elastic-agent   Show current agent\n"+
		"  /elastic-new     Start a new conversation\n"+
		"  /elastic-help    Show this help\n"+
		"  /exit            Quit")
}

func (s *Shell) turn(ctx context.Context, input string) {
	data, err := s.client.Converse(ctx, kibana.ConverseRequest{
		Input:          input,
		AgentID:        s.session.AgentID,
		ConversationID: s.session.ConversationID,
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("converse turn failed")
		fmt.Fprintln(s.out, "agent> [chat failed]")
		fmt.Fprintln(s.out, err)
		return
	}

	s.session.ObserveConversationID(kibana.ConversationID(data))

	if msg, ok := kibana.AssistantMessage(data); ok {
		fmt.Fprintf(s.out, "agent> %s\n", msg)
		return
	}

	fmt.Fprintln(s.out, "agent> [no response.message found; dumping full response]")
	pretty, _ := json.MarshalIndent(data, "", "  ")
	fmt.Fprintln(s.out, string(pretty))
}

func (s *Shell) chooseAgent(ctx context.Context) {
	agents, err := s.client.ListAgents(ctx)
	if err != nil {
		fmt.Fprintln(s.out, "agent> [failed to list agents]")
		fmt.Fprintln(s.out, err)
		return
	}
	if len(agents) == 0 {
		fmt.Fprintln(s.out, "No agents found from /api/agent_builder/agents")
		return
	}

	rows := make([]kibana.AgentRow, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, kibana.FormatAgentRow(a))
	}

	fmt.Fprintln(s.out, "Available agents:")
	for i, row := range rows {
		desc := truncate(row.Description, 80)
		if desc != "" {
			fmt.Fprintf(s.out, "  [%d] %s (%s) - %s\n", i+1, row.Name, row.ID, desc)
		} else {
			fmt.Fprintf(s.out, "  [%d] %s (%s)\n", i+1, row.Name, row.ID)
		}
	}

	for {
		fmt.Fprint(s.out, "Pick agent number (Enter to cancel): ")
		line, err := s.in.ReadString('\n')
		eof := err != nil

		raw := strings.TrimSpace(line)
		if raw == "" {
			fmt.Fprintln(s.out, "(No change)")
			return
		}

		n, convErr := strconv.Atoi(raw)
		switch {
		case convErr != nil:
			fmt.Fprintln(s.out, "Please enter a number")
		case n < 1 || n > len(rows):
			fmt.Fprintf(s.out, "Choose a number between 1 and %d\n", len(rows))
		case rows[n-1].ID == "":
			fmt.Fprintln(s.out, "Selected agent has no id, choose another")
		default:
			row := rows[n-1]
			s.session.SetAgent(row.ID, row.Name)
			fmt.Fprintf(s.out, "(Selected agent: %s (%s); conversation reset)\n", row.Name, row.ID)
			return
		}

		if eof {
			return
		}
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
