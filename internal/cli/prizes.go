package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/contest-api/internal/service"
)

// newPrizesCmd присуждает призы без HTTP, например из cron после окончания конкурса
func newPrizesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prizes",
		Short: "Manage contest prizes",
	}

	var contestID uint
	award := &cobra.Command{
		Use:   "award",
		Short: "Award prizes of an ended contest to its top participants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if contestID == 0 {
				return fmt.Errorf("--contest is required")
			}
			application, err := openApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer application.Close()

			awarded, err := application.PrizeService.AwardContestPrizes(cmd.Context(), service.System(), contestID)
			if err != nil {
				return err
			}
			if len(awarded) == 0 {
				cmd.Println("all prizes were already awarded")
				return nil
			}
			for _, a := range awarded {
				cmd.Printf("rank %d: %s (user #%d, score %d) - %s\n",
					a.Prize.Rank, a.Winner.Username, a.Winner.UserID, a.Winner.Score, a.Prize.PrizeDetails)
			}
			return nil
		},
	}
	award.Flags().UintVar(&contestID, "contest", 0, "contest ID")
	cmd.AddCommand(award)

	return cmd
}
