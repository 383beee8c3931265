package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/Maulana-anjari/account-service/internal/tools/accounts"
	"github.com/Maulana-anjari/account-service/internal/tools/migrate"
)

func main() {
	root := &cobra.Command{
		Use:   "accountctl",
		Short: "Operational tooling for the account service",
	}
	root.AddCommand(
		migrate.NewRootCommand(),
		accounts.NewRootCommand(),
	)
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
