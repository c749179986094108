package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/contest-api/internal/config"
	"github.com/yourusername/contest-api/internal/domain/repository"
)

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the leaderboard cache",
	}

	var contestID, userID uint
	flush := &cobra.Command{
		Use:   "flush",
		Short: "Drop cached leaderboard pages of a contest and optionally a user's history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if contestID == 0 && userID == 0 {
				return fmt.Errorf("--contest or --user is required")
			}
			application, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			// In-memory кеш живет в процессе API, сбросить его отсюда нельзя
			if application.Config.Cache.Driver != config.CacheDriverRedis {
				return fmt.Errorf("cache driver %q is process-local, flush is only supported for redis", application.Config.Cache.Driver)
			}
			return flushCache(cmd.Context(), cmd, application.Cache, contestID, userID)
		},
	}
	flush.Flags().UintVar(&contestID, "contest", 0, "contest ID")
	flush.Flags().UintVar(&userID, "user", 0, "user ID")
	cmd.AddCommand(flush)

	return cmd
}

// flushCache инвалидирует пространства имен и возвращает первую ошибку кеша
func flushCache(ctx context.Context, cmd *cobra.Command, cache repository.CacheRepository, contestID, userID uint) error {
	if contestID != 0 {
		if err := cache.InvalidateNamespace(ctx, repository.LeaderboardNamespace(contestID)); err != nil {
			return fmt.Errorf("failed to flush leaderboard cache of contest #%d: %w", contestID, err)
		}
		cmd.Printf("leaderboard cache of contest #%d flushed\n", contestID)
	}
	if userID != 0 {
		if err := cache.InvalidateNamespace(ctx, repository.HistoryNamespace(userID)); err != nil {
			return fmt.Errorf("failed to flush history cache of user #%d: %w", userID, err)
		}
		cmd.Printf("history cache of user #%d flushed\n", userID)
	}
	return nil
}
