package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"herbalbot/handler"
	"herbalbot/internal/domain"
	"herbalbot/internal/integrations/paramstore"
	"herbalbot/internal/repository"
	"herbalbot/internal/usecase"
)

const (
	sourceEmbedded = "embedded"
	sourceFile     = "file"
	sourceSSM      = "ssm"
	sourceDynamoDB = "dynamodb"
)

var (
	flagSource string
	flagHerbs  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "herbalbot",
		Short:         "Rule-based herbal remedy chatbot for the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&flagSource, "source", "", "herb catalog source: embedded, file, ssm or dynamodb (env HERB_SOURCE)")
	cmd.PersistentFlags().StringVar(&flagHerbs, "herbs", "", "JSON or YAML herb catalog file; implies --source=file (env HERB_FILE)")

	cmd.AddCommand(newSeedCmd())
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-dynamodb",
		Short: "Copy the embedded or --herbs catalog into the HERB_TABLE DynamoDB table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := localSource()
			if err != nil {
				return err
			}
			herbs, err := src.LoadHerbs(ctx)
			if err != nil {
				return err
			}
			client, err := dynamoClient(ctx)
			if err != nil {
				return err
			}
			if err := client.PutHerbs(ctx, herbs); err != nil {
				slog.Error("failed to seed herb table", "err", err)
				return err
			}
			slog.Info("herb table seeded", "herbs", len(herbs))
			return nil
		},
	}
}

func runChat(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Configuration (read only here) ----
	delayMin := time.Duration(envInt("REPLY_DELAY_MIN_MS", 800)) * time.Millisecond
	delayMax := time.Duration(envInt("REPLY_DELAY_MAX_MS", 0)) * time.Millisecond
	absorbGreetings := envBool("ABSORB_GREETINGS", false)

	// ---- Catalog ----
	src, err := catalogSource(ctx)
	if err != nil {
		slog.Error("failed to configure herb catalog", "err", err)
		return err
	}
	herbs, err := src.LoadHerbs(ctx)
	if err != nil {
		slog.Error("failed to load herb catalog", "err", err)
		return err
	}
	slog.Info("herb catalog loaded", "herbs", len(herbs))

	// ---- App ----
	responder, err := usecase.NewResponder(herbs, usecase.RandomChooser)
	if err != nil {
		slog.Error("failed to create responder", "err", err)
		return err
	}
	replies := make(chan domain.Message, 8)
	app, err := usecase.NewApp(responder, usecase.AppOptions{
		Conversation: usecase.ConversationOptions{
			Delay:           &usecase.DelayPolicy{Min: delayMin, Max: delayMax},
			AbsorbGreetings: absorbGreetings,
			OnReply: func(m domain.Message) {
				select {
				case replies <- m:
				default:
					slog.Warn("reply dropped, terminal is not reading")
				}
			},
		},
	})
	if err != nil {
		slog.Error("failed to create app", "err", err)
		return err
	}
	defer app.Logout()

	h, err := handler.NewHandler(app, replies)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		return err
	}
	if err := h.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("terminal session failed", "err", err)
		return err
	}
	return nil
}

func catalogSource(ctx context.Context) (repository.Source, error) {
	switch resolveSource() {
	case sourceEmbedded, sourceFile:
		return localSource()
	case sourceSSM:
		name := mustEnv("HERB_PARAM")
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
		if err != nil {
			return nil, err
		}
		return paramstore.NewHerbSource(ssmClient, name)
	case sourceDynamoDB:
		return dynamoClient(ctx)
	default:
		return nil, fmt.Errorf("unknown herb source %q", resolveSource())
	}
}

// localSource returns the --herbs/HERB_FILE catalog, or the embedded one.
func localSource() (repository.Source, error) {
	if path := herbFile(); path != "" {
		return repository.NewFileSource(path)
	}
	if resolveSource() == sourceFile {
		return nil, fmt.Errorf("herb source %q needs --herbs or HERB_FILE", sourceFile)
	}
	return repository.EmbeddedSource{}, nil
}

func dynamoClient(ctx context.Context) (*repository.Client, error) {
	table := mustEnv("HERB_TABLE")
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return repository.New(awsdynamodb.NewFromConfig(cfg), table)
}

func resolveSource() string {
	if flagSource != "" {
		return strings.ToLower(flagSource)
	}
	if v := os.Getenv("HERB_SOURCE"); v != "" {
		return strings.ToLower(v)
	}
	if herbFile() != "" {
		return sourceFile
	}
	return sourceEmbedded
}

func herbFile() string {
	if flagHerbs != "" {
		return flagHerbs
	}
	return os.Getenv("HERB_FILE")
}

func setupLogging() {
	envErr := godotenv.Load()
	level := slog.LevelWarn
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = slog.LevelWarn
	}
	// stdout belongs to the chat; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	if envErr != nil {
		slog.Debug("no .env file found, using environment variables")
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
