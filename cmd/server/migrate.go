package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"sabohub/internal/config"
	"sabohub/internal/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: cfg.LogStdout})

			db, err := config.OpenDB(cfg, logger.NewGormLogger())
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			fmt.Printf("Migrating %s on %s:%s\n", cfg.DBName, cfg.DBHost, cfg.DBPort)
			if err := config.Migrate(db); err != nil {
				fmt.Printf("  %s\n", color.New(color.FgRed).Sprint("FAILED"))
				return err
			}
			for _, m := range config.Models() {
				stmt := &gorm.Statement{DB: db}
				name := fmt.Sprintf("%T", m)
				if err := stmt.Parse(m); err == nil {
					name = stmt.Schema.Table
				}
				fmt.Printf("  %s %s\n", color.New(color.FgGreen).Sprint("OK     "), name)
			}
			return nil
		},
	}
}
