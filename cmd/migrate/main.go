package main

import (
	"embed"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rentledger/rentledger/internal/config"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	time.Local = time.UTC
	_ = godotenv.Load()
}

func main() {
	command := flag.String("command", "up", "goose command: up, down, status")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.L.Fatalf("failed to load config: %v", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		logger.L.Fatalf("failed to create logger: %v", err)
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	switch *command {
	case "up":
		err = goose.Up(db.DB.DB, "migrations")
	case "down":
		err = goose.Down(db.DB.DB, "migrations")
	case "status":
		err = goose.Status(db.DB.DB, "migrations")
	default:
		log.Fatalf("unknown command %q", *command)
	}
	if err != nil {
		log.Fatalf("migration %s failed: %v", *command, err)
	}

	log.Infof("migration %s complete", *command)
}
