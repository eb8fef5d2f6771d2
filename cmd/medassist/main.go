// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/medassist"
	"github.com/poiesic/medassist/ai"
	"github.com/poiesic/medassist/ai/openai"
	"github.com/poiesic/medassist/chat"
	"github.com/poiesic/medassist/index/qdrant"
	"github.com/poiesic/medassist/observability"
	"github.com/poiesic/medassist/reembed"
)

func main() {
	app := &cli.App{
		Name:  "medassist",
		Usage: "Retrieval-augmented medical question answering over MedlinePlus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Fetch documents for search terms and add them to the index",
				ArgsUsage: "TERM [TERM...]",
				Action:    ingestCommand,
				Flags:     append(indexFlags(), assistantFlags()...),
			},
			{
				Name:      "ask",
				Usage:     "Ask a single question",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags:     append(indexFlags(), assistantFlags()...),
			},
			{
				Name:   "chat",
				Usage:  "Interactive question answering session",
				Action: chatCommand,
				Flags:  append(indexFlags(), assistantFlags()...),
			},
			{
				Name:   "clear-history",
				Usage:  "Delete the conversation history of a thread",
				Action: clearHistoryCommand,
				Flags:  append(indexFlags(), assistantFlags()...),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute all stored vectors with the current embedding model",
				Action: reembedCommand,
				Flags: append(indexFlags(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func indexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "qdrant-host",
			Usage: "Qdrant server host",
			Value: "localhost",
		},
		&cli.IntFlag{
			Name:  "qdrant-port",
			Usage: "Qdrant gRPC port",
			Value: 6334,
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Qdrant collection name",
			Value: "medline",
		},
		&cli.Uint64Flag{
			Name:  "vector-size",
			Usage: "Embedding vector dimensions",
			Value: 384,
		},
	}
}

func assistantFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to conversation history database directory",
			Value:   "./medassist_db",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "all-minilm",
		},
		&cli.StringFlag{
			Name:  "llm-host",
			Usage: "Chat completion service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "llm-model",
			Usage: "Chat model name",
			Value: "llama3.1",
		},
		&cli.Float64Flag{
			Name:  "temperature",
			Usage: "Chat completion sampling temperature",
			Value: 0.6,
		},
		&cli.StringFlag{
			Name:    "thread",
			Aliases: []string{"t"},
			Usage:   "Conversation thread ID",
			Value:   "default",
		},
		&cli.StringFlag{
			Name:  "otlp-endpoint",
			Usage: "OTLP gRPC endpoint for tracing (disabled when empty)",
		},
	}
}

func openIndex(ctx context.Context, c *cli.Context) (*qdrant.Index, error) {
	idx, err := qdrant.New(ctx, qdrant.Config{
		Host:       c.String("qdrant-host"),
		Port:       c.Int("qdrant-port"),
		Collection: c.String("collection"),
		VectorSize: c.Uint64("vector-size"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}
	return idx, nil
}

func openAssistant(ctx context.Context, c *cli.Context) (*medassist.Assistant, error) {
	idx, err := openIndex(ctx, c)
	if err != nil {
		return nil, err
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatHost(c.String("llm-host")),
		ai.WithChatModel(c.String("llm-model")),
		ai.WithTemperature(c.Float64("temperature")),
	)
	if err := aiConfig.Validate(); err != nil {
		idx.Close()
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	a, err := medassist.New(c.String("db"),
		medassist.WithIndex(idx),
		medassist.WithAIConfig(aiConfig),
	)
	if err != nil {
		idx.Close()
		return nil, err
	}
	return a, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one search term is required")
	}
	ctx := context.Background()

	a, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, term := range c.Args().Slice() {
		result, err := a.Ingest(ctx, term)
		if err != nil {
			return fmt.Errorf("ingesting %q: %w", term, err)
		}
		fmt.Printf("Ingested %d documents for %q\n", result.Count, term)
		for _, doc := range result.Documents {
			fmt.Printf("  - %s (%s)\n", doc.Title, doc.URL)
		}
	}
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}
	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "medassist",
		OTLPEndpoint: c.String("otlp-endpoint"),
		SampleRate:   1.0,
	})
	if err != nil {
		return err
	}
	defer tp.Shutdown(ctx)

	a, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.Join(c.Args().Slice(), " ")
	monitor := observability.NewAnswerMonitor(ctx, tp.Tracer())
	fmt.Println(a.AnswerWithMonitor(ctx, c.String("thread"), question, monitor))
	return nil
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "medassist",
		OTLPEndpoint: c.String("otlp-endpoint"),
		SampleRate:   1.0,
	})
	if err != nil {
		return err
	}
	defer tp.Shutdown(ctx)

	a, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	threadID := c.String("thread")
	fmt.Printf("Chatting on thread %q. Type 'exit' to quit.\n", threadID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		var monitor chat.Monitor = observability.NewAnswerMonitor(ctx, tp.Tracer())
		fmt.Println(a.AnswerWithMonitor(ctx, threadID, question, monitor))
		fmt.Println()
	}
	return scanner.Err()
}

func clearHistoryCommand(c *cli.Context) error {
	ctx := context.Background()

	a, err := openAssistant(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	threadID := c.String("thread")
	if err := a.ClearHistory(ctx, threadID); err != nil {
		return fmt.Errorf("clearing thread %q: %w", threadID, err)
	}
	fmt.Printf("Cleared history of thread %q\n", threadID)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	idx, err := openIndex(ctx, c)
	if err != nil {
		return err
	}
	defer idx.Close()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(idx, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Collection: %s\n", c.String("collection"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
