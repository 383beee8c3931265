package accounts

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Maulana-anjari/account-service/internal/config"
	"github.com/Maulana-anjari/account-service/internal/database"
	"github.com/Maulana-anjari/account-service/internal/domain"
	"github.com/Maulana-anjari/account-service/internal/tools/common"
	"github.com/Maulana-anjari/account-service/internal/tools/ui"
	"gorm.io/gorm"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account maintenance tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newListCommand(opts),
		newPruneTokensCommand(opts),
	)
	return cmd
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "accounts list", func(ctx context.Context) ([]string, error) {
				db, err := openDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()

				var users []domain.User
				if err := db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
					return nil, fmt.Errorf("list users: %w", err)
				}
				details := make([]string, 0, len(users)+1)
				details = append(details, fmt.Sprintf("%d account(s)", len(users)))
				for _, u := range users {
					state := "unverified"
					if u.Verified {
						state = "verified"
					}
					details = append(details, fmt.Sprintf("#%d %s (%s)", u.ID, u.Email, state))
				}
				return details, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "accounts list", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

// newPruneTokensCommand sweeps expired token records offline. Expired
// verification tokens also take their still-unverified owner with them,
// mirroring what the request path does lazily on validation.
func newPruneTokensCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-tokens",
		Short: "Delete expired token records and abandoned signups",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "accounts prune-tokens", func(ctx context.Context) ([]string, error) {
				db, err := openDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()

				now := time.Now()
				var expired []domain.TokenRecord
				if err := db.WithContext(ctx).Where("expires_at < ?", now).Find(&expired).Error; err != nil {
					return nil, fmt.Errorf("find expired tokens: %w", err)
				}

				abandoned := 0
				for _, rec := range expired {
					if rec.Kind != domain.TokenKindVerification {
						continue
					}
					res := db.WithContext(ctx).
						Where("id = ? AND verified = ?", rec.UserID, false).
						Delete(&domain.User{})
					if res.Error != nil {
						return nil, fmt.Errorf("delete abandoned signup: %w", res.Error)
					}
					abandoned += int(res.RowsAffected)
				}

				res := db.WithContext(ctx).Where("expires_at < ?", now).Delete(&domain.TokenRecord{})
				if res.Error != nil {
					return nil, fmt.Errorf("delete expired tokens: %w", res.Error)
				}

				return []string{
					fmt.Sprintf("expired token records removed: %d", res.RowsAffected),
					fmt.Sprintf("abandoned signups removed: %d", abandoned),
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "accounts prune-tokens", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}

func openDB(envFile string) (*gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Open(cfg)
}
