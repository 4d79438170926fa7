package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atlantislabs/atlantis/internal/config"
	"github.com/atlantislabs/atlantis/internal/database"
	"github.com/atlantislabs/atlantis/internal/repository"
	"github.com/atlantislabs/atlantis/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func SessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage chat sessions",
		Long:  "List, inspect, and delete chat sessions",
	}

	cmd.AddCommand(SessionListCmd())
	cmd.AddCommand(SessionShowCmd())
	cmd.AddCommand(SessionDeleteCmd())

	return cmd
}

func SessionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		Long:  "List all chat sessions, newest first",
		RunE:  runSessionList,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runSessionList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	sessionSvc := newSessionService(pool)

	sessions, err := sessionSvc.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(sessions))
		for i, s := range sessions {
			data[i] = map[string]interface{}{
				"id":         s.ID,
				"created_at": s.CreatedAt,
			}
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(sessions) == 0 {
			fmt.Println("No sessions found")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	return nil
}

func SessionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session",
		Long:  "Show a session with its document chunk status counts",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionShow,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	sessionSvc := newSessionService(pool)
	chunkRepo := repository.NewChunkRepository(pool)

	session, err := sessionSvc.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	ready, pending, err := chunkRepo.CountByStatus(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":             session.ID,
			"created_at":     session.CreatedAt,
			"chunks_ready":   ready,
			"chunks_pending": pending,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Session: %s\n", session.ID)
		fmt.Printf("Created: %s\n", session.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Chunks:  %d ready, %d pending\n", ready, pending)
	}

	return nil
}

func SessionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Long:  "Delete a session along with its messages and document chunks",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionDelete,
	}
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	sessionSvc := newSessionService(pool)

	if err := sessionSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Printf("Session deleted: %s\n", id)
	return nil
}

func newSessionService(pool *pgxpool.Pool) *service.SessionService {
	return service.NewSessionService(
		repository.NewSessionRepository(pool),
		repository.NewMessageRepository(pool),
	)
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}

	return pool, nil
}
