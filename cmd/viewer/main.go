// Viewer renders the stored message log of one channel as a table,
// opening the database read-only so it can run next to the daemon.
package main

import (
	"betstream/domain"
	"betstream/repositories"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH"`
	Channel        string `envconfig:"CHANNEL" default:"general"`
}

func main() {
	_ = godotenv.Load()
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	dbPath := flag.String("db", cfg.BadgerFilepath, "Path to badger DB")
	channel := flag.String("channel", cfg.Channel, "Channel to dump")
	flag.Parse()

	// BypassLockGuard allows opening while the daemon holds the lock
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	messages, err := repositories.NewMessageRepository(db, slog.Default()).GetMessages(domain.ChannelID(*channel))
	if err != nil {
		log.Fatalf("Failed to load messages: %v", err)
	}

	header := fmt.Sprintf("  ====== channel %q — %d messages ======", *channel, len(messages))
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Type", "Content"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, m := range messages {
		content := m.Content
		if m.Type == domain.MessageTypeImage && m.ImageURL != nil {
			content = *m.ImageURL
		}
		table.Append([]string{
			m.CreatedAt.Format("2006-01-02 15:04:05"),
			m.SenderID,
			string(m.Type),
			content,
		})
	}
	table.Render()
}
