package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"queue-backend/internal/config"
	"queue-backend/internal/models"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// export dumps one day's tokens and stats to a JSON file for offline
// record-keeping. The engine itself only keeps current-day operational
// state; this tool is how a day gets archived before it is superseded.

type dayExport struct {
	Date       string             `json:"date"`
	Tokens     []models.Token     `json:"tokens"`
	Stats      *models.DailyStats `json:"stats,omitempty"`
	ExportedAt time.Time          `json:"exported_at"`
}

func main() {
	date := flag.String("date", time.Now().Format("2006-01-02"), "Day to export (YYYY-MM-DD)")
	out := flag.String("out", "", "Output file (default queue-export-<date>.json)")
	flag.Parse()

	if _, err := time.Parse("2006-01-02", *date); err != nil {
		log.Fatalf("Invalid -date %q: %v", *date, err)
	}

	godotenv.Load()
	cfg := config.Load()

	dbConn, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer dbConn.Close()

	export := dayExport{Date: *date, ExportedAt: time.Now()}

	rows, err := dbConn.Query(`
		SELECT id, number, status, created_at, updated_at, served_at, served_by_counter_id
		FROM tokens
		WHERE created_at >= $1::date AND created_at < $1::date + INTERVAL '1 day'
		ORDER BY number ASC
	`, *date)
	if err != nil {
		log.Fatalf("Failed to read tokens: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Token
		var status string
		if err := rows.Scan(&t.ID, &t.Number, &status, &t.CreatedAt, &t.UpdatedAt, &t.ServedAt, &t.ServedByCounterID); err != nil {
			log.Fatalf("Failed to scan token: %v", err)
		}
		t.Status = models.TokenStatus(status)
		export.Tokens = append(export.Tokens, t)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to read tokens: %v", err)
	}

	var stats models.DailyStats
	err = dbConn.QueryRow(`
		SELECT stat_date, tokens_served_today, peak_queue_size, total_wait_minutes, tokens_processed
		FROM daily_stats WHERE stat_date = $1::date
	`, *date).Scan(&stats.StatDate, &stats.TokensServed, &stats.PeakQueueSize, &stats.TotalWaitMinutes, &stats.TokensProcessed)
	if err == nil {
		export.Stats = &stats
	} else if err != sql.ErrNoRows {
		log.Fatalf("Failed to read stats: %v", err)
	}

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("queue-export-%s.json", *date)
	}

	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", filename, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}

	log.Printf("Exported %d token(s) for %s to %s", len(export.Tokens), *date, filename)
}
