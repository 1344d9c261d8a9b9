package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newChatCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			s, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.close()

			return chatLoop(cmd.Context(), s)
		},
	}
	return cmd
}

func chatLoop(ctx context.Context, s *session) error {
	s.out.Header("Model: %s  Project: %s", s.cfg.Model, s.cfg.ProjectDir)
	s.out.Info("Type /clear to reset the conversation, /quit to exit (Ctrl-C cancels a turn).")

	// stdin reader goroutine -> lines into channel, so Ctrl-C is not stuck
	// behind a blocking read.
	inputCh := make(chan string)
	scanner := bufio.NewScanner(os.Stdin)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

	for {
		fmt.Print("You: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case line, ok = <-inputCh:
			if !ok {
				if err := scanner.Err(); err != nil {
					s.out.Warn("stdin read error: %v", err)
				}
				return nil
			}
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			s.run.History().Clear()
			if s.store != nil {
				if err := s.store.Clear(ctx); err != nil {
					s.out.Warn("could not clear stored conversation: %v", err)
				}
			}
			s.out.Info("Conversation cleared.")
			continue
		}

		if err := s.runTurn(ctx, input); err != nil {
			s.out.Error("%v", err)
		}
	}
}
