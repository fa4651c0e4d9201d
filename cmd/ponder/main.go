package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ponder"
	"github.com/m-mizutani/ponder/llm/claude"
	"github.com/m-mizutani/ponder/llm/gemini"
	"github.com/m-mizutani/ponder/llm/gpt"
	"github.com/m-mizutani/ponder/tools/calc"
	"github.com/m-mizutani/ponder/tools/search"
	"github.com/m-mizutani/ponder/tools/webpage"
	"github.com/urfave/cli/v3"
)

func main() {
	// .env is optional. Missing file is fine.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "ponder",
		Usage: "Conversational reasoning agent with web search, page fetch and arithmetic tools",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "model",
				Value:   "gpt",
				Sources: cli.EnvVars("PONDER_MODEL"),
				Usage:   "Model backend: gpt, claude or gemini",
			},
			&cli.StringFlag{
				Name:    "gemini-project",
				Sources: cli.EnvVars("PONDER_GEMINI_PROJECT"),
				Usage:   "Google Cloud project ID for the gemini backend",
			},
			&cli.StringFlag{
				Name:    "gemini-location",
				Value:   "us-central1",
				Sources: cli.EnvVars("PONDER_GEMINI_LOCATION"),
				Usage:   "Google Cloud location for the gemini backend",
			},
			&cli.IntFlag{
				Name:    "max-steps",
				Value:   ponder.DefaultLoopLimit,
				Sources: cli.EnvVars("PONDER_MAX_STEPS"),
				Usage:   "Maximum reasoning iterations per question",
			},
			&cli.DurationFlag{
				Name:    "tool-timeout",
				Value:   ponder.DefaultToolTimeout,
				Sources: cli.EnvVars("PONDER_TOOL_TIMEOUT"),
				Usage:   "Timeout per tool invocation",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print raw model responses and debug logs",
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	client, err := newLLMClient(ctx, cmd)
	if err != nil {
		return err
	}

	options := []ponder.Option{
		ponder.WithTools(search.New(), webpage.New(), calc.New()),
		ponder.WithLoopLimit(int(cmd.Int("max-steps"))),
		ponder.WithToolTimeout(cmd.Duration("tool-timeout")),
		ponder.WithToolCallback(func(ctx context.Context, call ponder.ToolCall) error {
			fmt.Printf("⚡ %s(%s)\n", call.Name, call.Input)
			return nil
		}),
	}

	if cmd.Bool("verbose") {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		options = append(options,
			ponder.WithLogger(logger),
			ponder.WithMsgCallback(func(ctx context.Context, msg string) error {
				fmt.Printf("🤖 %s\n", msg)
				return nil
			}),
		)
	}

	agent := ponder.New(client, options...)

	var history []ponder.Exchange
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Ask a question (empty line to quit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		start := time.Now()
		result, err := agent.Ask(ctx, question, ponder.WithPriorExchanges(history...))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Printf("\n%s\n(%s)\n\n", result.Answer, time.Since(start).Round(time.Millisecond))
		history = append(history, ponder.Exchange{Question: question, Answer: result.Answer})
	}

	return scanner.Err()
}

func newLLMClient(ctx context.Context, cmd *cli.Command) (ponder.LLMClient, error) {
	switch cmd.String("model") {
	case "gpt":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, goerr.New("OPENAI_API_KEY is not set")
		}
		return gpt.New(ctx, apiKey)

	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, goerr.New("ANTHROPIC_API_KEY is not set")
		}
		return claude.New(ctx, apiKey)

	case "gemini":
		projectID := cmd.String("gemini-project")
		if projectID == "" {
			return nil, goerr.New("--gemini-project is required for the gemini backend")
		}
		return gemini.New(ctx, projectID, cmd.String("gemini-location"))

	default:
		return nil, goerr.New("unknown model backend", goerr.V("model", cmd.String("model")))
	}
}
