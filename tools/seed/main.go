package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"

	billing "ecometer/internal/billing/domain"
)

type config struct {
	dsn       string
	username  string
	password  string
	startDate string
	months    int
	startKWh  float64
	kWhPerDay float64
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}
	if cfg.months <= 0 {
		log.Fatal("months must be > 0")
	}

	start, err := parseStartDate(cfg.startDate)
	if err != nil {
		log.Fatalf("invalid start-date: %v", err)
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	userID, err := seedUser(ctx, db, cfg.username, cfg.password)
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}
	log.Printf("seeded user %s (%s)", cfg.username, userID)

	if err := seedConfig(ctx, db, userID); err != nil {
		log.Fatalf("seed config: %v", err)
	}
	log.Printf("seeded default tariff config")

	count, err := seedReadings(ctx, db, userID, start, cfg.months, cfg.startKWh, cfg.kWhPerDay)
	if err != nil {
		log.Fatalf("seed readings: %v", err)
	}
	log.Printf("seeded %d monthly readings from %s", count, start.Format("2006-01-02"))
	log.Printf("seed completed")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.username, "username", envOrDefault("SEED_USERNAME", "demo"), "demo username")
	flag.StringVar(&cfg.password, "password", envOrDefault("SEED_PASSWORD", "demo-password"), "demo password")
	flag.StringVar(&cfg.startDate, "start-date", envOrDefault("START_DATE", ""), "first reading date (YYYY-MM-DD)")
	flag.IntVar(&cfg.months, "months", envOrInt("MONTHS", 12), "number of monthly readings")
	flag.Float64Var(&cfg.startKWh, "start-kwh", envOrFloat("START_KWH", 10000), "meter counter at the first reading")
	flag.Float64Var(&cfg.kWhPerDay, "kwh-per-day", envOrFloat("KWH_PER_DAY", 3.4), "average daily consumption")
	flag.Parse()
	return cfg
}

func parseStartDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year()-1, now.Month(), 1, 9, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 9, 0, 0, 0, time.UTC), nil
}

func seedUser(ctx context.Context, db *sql.DB, username, password string) (string, error) {
	var existing string
	err := db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, role, created_at)
VALUES ($1, $2, $3, 'user', $4)`,
		id, username, string(hash), time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

func seedConfig(ctx context.Context, db *sql.DB, userID string) error {
	config := billing.DefaultTariffConfig(userID)
	_, err := db.ExecContext(ctx, `
INSERT INTO tariff_configs (user_id, base_price_gross, energy_price_gross,
	energy_tax_per_unit, vat_rate, monthly_advance, additional_credit,
	due_day, lead_time_days, meter_identifier, reference_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)
ON CONFLICT (user_id) DO NOTHING`,
		config.UserID, config.BasePriceGross, config.EnergyPriceGross,
		config.EnergyTaxPerUnit, config.VATRate, config.MonthlyAdvance,
		config.AdditionalCredit, config.DueDay, config.LeadTimeDays,
		config.MeterIdentifier)
	return err
}

func seedReadings(ctx context.Context, db *sql.DB, userID string, start time.Time, months int, startKWh, kWhPerDay float64) (int, error) {
	const insertSQL = `
INSERT INTO meter_readings (id, user_id, kwh_reading, reading_ts)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	count := 0
	for month := 0; month < months; month++ {
		ts := start.AddDate(0, month, 0)
		days := ts.Sub(start).Hours() / 24
		value := startKWh + days*kWhPerDay
		id := fmt.Sprintf("seed-%s-%s", userID[:8], ts.Format("20060102"))
		if _, err := stmt.ExecContext(ctx, id, userID, value, ts); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, err
		}
		count++
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envOrFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
