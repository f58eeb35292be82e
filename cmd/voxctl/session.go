package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxlingua/voxlingua/client"
)

func init() {
	sessionCmd := &cobra.Command{Use: "session", Short: "Realtime conversation sessions"}

	var situationID, promptOverride, audioPath string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start a conversation and stream turns to stdout until Ctrl-C",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			var audio client.AudioSource = client.NewSilenceSource()
			if audioPath != "" {
				src, err := client.NewFileSource(audioPath)
				if err != nil {
					return err
				}
				audio = src
			}

			// The event callback needs the conversation handle, so build the
			// conversation first and start it separately.
			var conv *client.Conversation
			conv = c.NewConversation(client.ConversationConfig{
				SituationID:    situationID,
				PromptOverride: promptOverride,
				Audio:          audio,
				OnState: func(s client.State, msg string) {
					fmt.Fprintf(os.Stderr, "[%s] %s\n", s, msg)
				},
				OnEvent: func(ev client.Event) {
					switch ev.Kind {
					case client.KindTextDone:
						printLastTurn(conv, "assistant")
					case client.KindTranscript:
						fmt.Fprintf(os.Stdout, "you: %s\n", ev.Transcript)
					case client.KindError:
						fmt.Fprintf(os.Stderr, "remote error: %s\n", ev.Message)
					}
				},
			})
			if err := conv.Start(context.Background()); err != nil {
				return err
			}

			fmt.Fprintln(os.Stderr, "type a line to send text, Ctrl-C to stop")
			go readStdinLoop(conv)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			conv.Stop()
			fmt.Fprintf(os.Stderr, "session closed, %ds remaining today\n", conv.Remaining())
			return nil
		},
	}
	runCmd.Flags().StringVarP(&situationID, "situation", "s", "", "situation ID (required)")
	runCmd.Flags().StringVar(&promptOverride, "prompt-override", "", "extra instructions layered on the situation prompt")
	runCmd.Flags().StringVar(&audioPath, "audio", "", "Ogg Opus file streamed as the microphone (silence when unset)")
	_ = runCmd.MarkFlagRequired("situation")
	sessionCmd.AddCommand(runCmd)

	rootCmd.AddCommand(sessionCmd)
}

func printLastTurn(c *client.Conversation, role string) {
	if c == nil {
		return
	}
	turns := c.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == role {
			fmt.Fprintf(os.Stdout, "tutor: %s\n", turns[i].Text)
			return
		}
	}
}

func readStdinLoop(conv *client.Conversation) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := conv.SendText(line); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}
}
