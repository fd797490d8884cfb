package db

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookchat/internal/config"
	"bookchat/internal/transcript"
)

var DB *gorm.DB

// Init opens the transcript database and migrates its models. An empty DSN
// leaves DB nil and transcript recording disabled.
func Init(cfg *config.Config) error {
	if cfg.Database.DSN == "" {
		log.Printf("[DB] no database configured, transcripts disabled")
		return nil
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&transcript.Conversation{}, &transcript.Message{}); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}
