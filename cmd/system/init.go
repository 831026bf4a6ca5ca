package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/arvanehlab/ravan_backend/config"
	redispkg "github.com/arvanehlab/ravan_backend/pkg/redis"
)

// NewInitCommand verifies the infrastructure this service depends on is
// reachable before the first deploy: the Redis snapshot store and the NATS
// event bus.
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Verify infrastructure connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
			if err != nil {
				return fmt.Errorf("failed to build redis client: %w", err)
			}
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
			}
			fmt.Println("Redis OK.")

			nc, err := nats.Connect(cfg.Nats.URL, nats.Timeout(10*time.Second))
			if err != nil {
				return fmt.Errorf("nats unreachable at %s: %w", cfg.Nats.URL, err)
			}
			nc.Close()
			fmt.Println("NATS OK.")

			return nil
		},
	}

	return cmd
}
