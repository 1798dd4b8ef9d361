// Package cli implementa advisorctl, el CLI de operacion del servicio.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/app"
	"crowdfund-advisor/internal/config"
	"crowdfund-advisor/internal/db"
	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/service"
)

// NewRootCmd crea el comando raiz con todos los subcomandos.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "advisorctl",
		Short:         "Operational CLI for the crowdfunding advisor service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newPredictionsCmd())

	return rootCmd
}

func newLogger(cmd *cobra.Command) *zap.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	return zap.NewNop()
}

// withApp carga configuracion, arma el App y lo cierra al terminar fn.
func withApp(cmd *cobra.Command, migrate bool, fn func(ctx context.Context, a *app.App) error) error {
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cmd)
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logger, migrate)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
				fmt.Fprint(cmd.OutOrStdout(), db.Schema())
				return nil
			}
			return withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), upStyle.Render("schema applied"))
				return nil
			})
		},
	}
	cmd.Flags().Bool("print", false, "Print the schema instead of applying it")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify predictions older than the configured minimum age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				summary, err := a.Verification.Run(ctx)
				if err != nil {
					return fmt.Errorf("verification failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), RenderSummary(summary))
				return nil
			})
		},
	}
}

func newPredictionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predictions",
		Short: "List stored predictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := predictionFilterFromFlags(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				items, err := a.Predictions.List(ctx, filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, labelStyle.Render("no predictions"))
					return nil
				}
				for _, p := range items {
					fmt.Fprintln(out, RenderPrediction(p))
				}
				return nil
			})
		},
	}
	cmd.Flags().String("symbol", "", "Filter by ticker symbol")
	cmd.Flags().String("user", "", "Filter by user id")
	cmd.Flags().String("verified", "", "Filter by verification state (true|false)")
	cmd.Flags().Int("limit", 20, "Maximum number of rows")
	return cmd
}

func predictionFilterFromFlags(cmd *cobra.Command) (domain.PredictionFilter, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	userID, _ := cmd.Flags().GetString("user")
	verifiedRaw, _ := cmd.Flags().GetString("verified")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := domain.PredictionFilter{Symbol: symbol, UserID: userID, Limit: limit}
	if verifiedRaw != "" {
		v, err := strconv.ParseBool(verifiedRaw)
		if err != nil {
			return domain.PredictionFilter{}, fmt.Errorf("invalid --verified value %q", verifiedRaw)
		}
		filter.Verified = &v
	}
	return filter, nil
}

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the advisor from the terminal as an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			sessionID, _ := cmd.Flags().GetString("session")
			return withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				if _, err := a.Users.GetByID(ctx, userID); err != nil {
					return fmt.Errorf("user %s: %w", userID, err)
				}
				return chatLoop(ctx, a.Advisor, userID, sessionID, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().String("user", "", "User id to chat as")
	cmd.Flags().String("session", "", "Resume an existing session")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// chatClient es lo que necesita el loop interactivo.
type chatClient interface {
	Chat(ctx context.Context, in service.ChatInput) (service.ChatReply, error)
}

func chatLoop(ctx context.Context, advisor chatClient, userID, sessionID string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, titleStyle.Render("Stock advisor")+labelStyle.Render(" (empty line or /quit to exit)"))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text == "/quit" {
			return nil
		}

		reply, err := advisor.Chat(ctx, service.ChatInput{UserID: userID, SessionID: sessionID, Message: text})
		if err != nil {
			if errors.Is(err, service.ErrRateLimited) {
				fmt.Fprintln(out, downStyle.Render("rate limited, wait a minute"))
				continue
			}
			return err
		}
		sessionID = reply.SessionID
		fmt.Fprintln(out, RenderReply(reply))
		fmt.Fprintln(out)
	}
}
