package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/ragdesk/internal/core/domain"
	"github.com/kirillkom/ragdesk/internal/core/usecase"
)

const (
	quitCommand  = "/quit"
	clearCommand = "/clear"
)

// NewChatCommand sends one question, or reads questions line by line from
// standard input when no question is given.
func NewChatCommand(opts *RootOptions) *cobra.Command {
	var noRetrieval bool
	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask questions, grounded in the knowledge base by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			session := usecase.NewChatSession(svc.Chat)
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				added, err := session.Submit(cmd.Context(), strings.Join(args, " "), !noRetrieval)
				if err != nil {
					return err
				}
				printReplies(out, added)
				return nil
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			if svc.Username != "" {
				fmt.Fprintf(out, "Signed in as %s.\n", svc.Username)
			}
			fmt.Fprintf(out, "Type a question, %s to start over, %s to exit.\n> ", clearCommand, quitCommand)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case quitCommand:
					return nil
				case clearCommand:
					session.Reset()
					fmt.Fprint(out, "Conversation cleared.\n> ")
					continue
				}
				added, err := session.Submit(cmd.Context(), line, !noRetrieval)
				if err != nil {
					return err
				}
				printReplies(out, added)
				fmt.Fprint(out, "> ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&noRetrieval, "no-retrieval", false, "send the question without knowledge base context")
	return cmd
}

func printReplies(w io.Writer, turns []domain.ChatTurn) {
	for _, turn := range turns {
		if turn.Role != domain.RoleAssistant {
			continue
		}
		fmt.Fprintln(w, turn.Text)
		if len(turn.Citations) == 0 {
			continue
		}
		fmt.Fprintln(w, "\nReferences:")
		for _, c := range turn.Citations {
			fmt.Fprintf(w, "  [%d] %s\n", c.SourceIndex+1, c.Snippet)
		}
	}
}

func NewRetrieveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Preview knowledge base passages for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.Services(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Chat.Retrieve(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search knowledge base: %s", domain.Detail(err))
			}
			if result.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching passages in the knowledge base.")
				return nil
			}
			for i, passage := range result.Passages {
				fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s\n\n", i+1, passage)
			}
			return nil
		},
	}
}
