// Command seed loads a YAML timetable into the class schedule.
package main

import (
	"context"
	"flag"
	"os"

	"classbook/internal/db"
	"classbook/internal/logger"
	"classbook/internal/schedule"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	file := flag.String("file", "timetable.yaml", "timetable to load")
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "postgres connection string")
	migrations := flag.String("migrations", "migrations", "migrations directory")
	flag.Parse()

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("Failed to open timetable: %v", err)
	}
	defer f.Close()

	tt, err := ParseTimetable(f)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	database, err := db.Connect(*dsn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, *migrations); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	created, err := Apply(context.Background(), schedule.NewService(schedule.NewRepository(database)), tt)
	if err != nil {
		logger.Fatalf("Seeding stopped after %d classes: %v", created, err)
	}
	logger.Info("Timetable loaded", "file", *file, "classes", len(tt.Classes), "created", created)
}
