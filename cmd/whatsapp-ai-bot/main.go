package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Davidgelis/whatsapp-ai-bot/internal/config"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/db"
)

func main() {
	root := &cobra.Command{
		Use:           "whatsapp-ai-bot",
		Short:         "Multi-tenant WhatsApp to OpenAI relay service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return db.Migrate(cfg.Postgres.URL())
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
