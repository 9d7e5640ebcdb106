package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Chative-multiagent/server/internal/agent/model"
	logx "github.com/Chative-multiagent/server/pkg/logger"
)

const chatHelp = "Commands: /title shows the session title, /clear forgets the session, /exit quits."

func newChatCommand(a *app) *cobra.Command {
	var (
		sessionID string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session with history and a generated title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := a.buildRuntime(ctx, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			out := cmd.OutOrStdout()
			r := newResultRenderer(plain)

			fmt.Fprintln(out, dimStyle.Render("session "+sessionID))
			fmt.Fprintln(out, dimStyle.Render(chatHelp))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				if ctx.Err() != nil {
					return nil
				}

				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				case "/help":
					fmt.Fprintln(out, chatHelp)
					continue
				case "/title":
					title, err := rt.sessions.Title(ctx, sessionID)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, titleStyle.Render(title))
					continue
				case "/clear":
					if err := rt.sessions.Clear(ctx, sessionID); err != nil {
						return err
					}
					fmt.Fprintln(out, dimStyle.Render("session cleared"))
					continue
				}

				history, err := rt.sessions.History(ctx, sessionID)
				if err != nil {
					return err
				}
				res := rt.engine.Run(ctx, model.QueryInput{Query: line, History: history})
				r.Render(out, "", res)

				title, err := rt.sessions.Record(ctx, sessionID, line, res)
				if err != nil {
					logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to record turn")
					continue
				}
				if title != "" {
					fmt.Fprintln(out, dimStyle.Render("titled: ")+titleStyle.Render(title))
				}
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "resume this session id (default: new session)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print responses without markdown rendering")
	return cmd
}
