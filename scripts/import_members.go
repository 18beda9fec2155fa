package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type MembersFile struct {
	Members []models.Member `yaml:"members"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		membersPath = flag.String("members", "configs/members.yaml", "path to a yaml file with a members list")
		driver      = flag.String("driver", config.DriverSQLite, "database driver: sqlite3 or pgx")
		dbPath      = flag.String("db", "./data/slotbook.db", "path to sqlite db")
		dsn         = flag.String("dsn", "", "postgres dsn for the pgx driver")
		capacity    = flag.Int("capacity", models.DefaultDailyCapacity, "daily slot capacity used when creating the schema")
	)
	flag.Parse()

	data, err := os.ReadFile(*membersPath)
	if err != nil {
		return fmt.Errorf("read members: %w", err)
	}
	var file MembersFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse members: %w", err)
	}
	if len(file.Members) == 0 {
		return fmt.Errorf("no members in yaml")
	}
	if err = config.ValidateMembers(file.Members); err != nil {
		return err
	}

	db, err := database.NewDB(config.DatabaseConfig{Driver: *driver, Path: *dbPath, DSN: *dsn}, *capacity, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created := 0
	updated := 0
	for i := range file.Members {
		m := &file.Members[i]
		_, err = db.GetMemberByName(ctx, m.Name)
		switch {
		case err == nil:
			updated++
		case errors.Is(err, database.ErrMemberNotFound):
			created++
		default:
			return fmt.Errorf("get %s: %w", m.Name, err)
		}
		if err = db.UpsertMember(ctx, m); err != nil {
			return fmt.Errorf("upsert %s: %w", m.Name, err)
		}
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
