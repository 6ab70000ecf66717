package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/model"
)

func newPlayCmd() *cobra.Command {
	var (
		name   string
		choice string
		path   string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Queue for a match and play one round",
		Long: `Connect to the realtime endpoint, wait for an opponent, submit a choice
and print the result.

Progress messages go to stderr so --output json stays machine readable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := model.ParseChoice(choice)
			if err != nil {
				return err
			}

			url, err := cfg.WebsocketURL(path)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			result, err := Play(ctx, url, name, parsed, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&choice, "choice", "", "rock, paper or scissors")
	cmd.Flags().StringVar(&path, "path", "/gamehub", "Realtime endpoint path")
	_ = cmd.MarkFlagRequired("choice")

	return cmd
}

// errServerRejected wraps Error events received from the server
var errServerRejected = errors.New("server rejected request")

// Play runs one round against the server at url. Progress lines go to status.
func Play(ctx context.Context, url, name string, choice model.Choice, status io.Writer) (PlayResult, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return PlayResult{}, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock reads when the context ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := send(conn, model.EventJoinQueue, model.JoinQueuePayload{Name: name}); err != nil {
		return PlayResult{}, err
	}
	_, _ = fmt.Fprintln(status, "Waiting for an opponent...")

	for {
		var env struct {
			Event   model.EventName `json:"event"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return PlayResult{}, fmt.Errorf("gave up waiting: %w", ctx.Err())
			}
			return PlayResult{}, fmt.Errorf("read: %w", err)
		}

		switch env.Event {
		case model.EventOpponentFound:
			_, _ = fmt.Fprintf(status, "Opponent found, playing %s\n", choice)
			if err := send(conn, model.EventSubmitChoice, model.SubmitChoicePayload{Choice: string(choice)}); err != nil {
				return PlayResult{}, err
			}

		case model.EventGameResult:
			var p model.GameResultPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				return PlayResult{}, fmt.Errorf("decode result: %w", err)
			}
			return PlayResult{
				PlayerChoice:   string(p.PlayerChoice),
				OpponentChoice: string(p.OpponentChoice),
				Result:         string(p.Result),
			}, nil

		case model.EventOpponentLeft:
			var p model.OpponentLeftPayload
			_ = json.Unmarshal(env.Payload, &p)
			return PlayResult{OpponentLeft: true, Reason: p.Reason}, nil

		case model.EventError:
			var p model.ErrorPayload
			_ = json.Unmarshal(env.Payload, &p)
			return PlayResult{}, fmt.Errorf("%w: %s (%s)", errServerRejected, p.Message, p.Code)
		}
	}
}

func send(conn *websocket.Conn, event model.EventName, payload any) error {
	if err := conn.WriteJSON(map[string]any{"event": event, "payload": payload}); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}
