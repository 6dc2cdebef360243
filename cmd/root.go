// Package cmd defines the booksanon CLI: searching OpenLibrary, submitting
// books with reviews, and running the submission worker.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/alexk49/booksanon/internal/app"
	"github.com/alexk49/booksanon/internal/config"
	"github.com/alexk49/booksanon/internal/models"
)

// CLI is the complete command structure for the booksanon application.
type CLI struct {
	// Global flags
	DatabaseDSN string `help:"Postgres connection string" placeholder:"DSN"`
	Contact     string `help:"Contact email sent in the OpenLibrary User-Agent"`
	Debug       bool   `help:"Enable debug logging"`

	Search SearchCmd `cmd:"" help:"Search OpenLibrary for book candidates"`
	Add    AddCmd    `cmd:"" help:"Submit a book with a review and process it"`
	Worker WorkerCmd `cmd:"" help:"Process queued submissions"`
	Recent RecentCmd `cmd:"" help:"List the most recently added books"`
	InitDB InitDBCmd `cmd:"" name:"initdb" help:"Create the database schema and the anon user"`
}

// SearchCmd searches OpenLibrary, free text or by field.
type SearchCmd struct {
	Query     string `arg:"" optional:"" help:"Free-text search query"`
	Title     string `help:"Search by title"`
	Author    string `help:"Search by author"`
	Subject   string `help:"Search by subject"`
	Publisher string `help:"Search by publisher"`
	Limit     int    `help:"Maximum number of candidates" default:"10"`
}

// AddCmd enqueues a submission and triggers the worker for it, mirroring
// the post-form task trigger of the web layer.
type AddCmd struct {
	WorkID   string `arg:"" help:"OpenLibrary work id (OL45804W or /works/OL45804W)"`
	Review   string `short:"r" required:"" help:"Review text to store with the book"`
	Username string `help:"Submitting identity" default:"anon"`
}

// WorkerCmd processes one submission or drains pending ones.
type WorkerCmd struct {
	Submission int64 `help:"Process a single submission id"`
	Limit      int   `help:"Maximum pending submissions to process" default:"20"`
}

// RecentCmd lists recently added books.
type RecentCmd struct {
	Limit int `help:"Number of books to list" default:"20"`
}

// InitDBCmd creates the schema.
type InitDBCmd struct{}

// Execute runs the Kong-based CLI.
func Execute() {
	initLogging(false)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("booksanon"),
		kong.Description("Anonymous book recommendations: aggregate OpenLibrary metadata and queue review submissions."),
		kong.UsageOnError(),
	)

	if cli.Debug {
		initLogging(true)
	}
	applyFlags(&cli)

	application, cleanup, err := startApp()
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := ctx.Run(application); err != nil {
		slog.Error("Command failed", "error", err)
		cleanup()
		os.Exit(1)
	}
}

// applyFlags maps global CLI flags over the config file values.
func applyFlags(cli *CLI) {
	if cli.DatabaseDSN != "" {
		viper.Set("database.dsn", cli.DatabaseDSN)
	}
	if cli.Contact != "" {
		viper.Set("client.contact", cli.Contact)
	}
}

func startApp() (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	application := app.New(cfg)
	if err := application.Startup(context.Background()); err != nil {
		return nil, nil, err
	}
	return application, application.Shutdown, nil
}

// Run methods for each command

func (s *SearchCmd) Run(application *app.App) error {
	ctx := context.Background()

	fields := map[string]string{}
	if s.Title != "" {
		fields["title"] = s.Title
	}
	if s.Author != "" {
		fields["author"] = s.Author
	}
	if s.Subject != "" {
		fields["subject"] = s.Subject
	}
	if s.Publisher != "" {
		fields["publisher"] = s.Publisher
	}

	var books []models.Book
	var err error
	switch {
	case len(fields) > 0:
		books, err = application.Caller.SearchFields(ctx, fields, s.Limit)
	case s.Query != "":
		books, err = application.Search(ctx, s.Query, s.Limit)
	default:
		return fmt.Errorf("provide a query or at least one of --title/--author/--subject/--publisher")
	}
	if err != nil {
		return err
	}

	for _, book := range books {
		fmt.Printf("%s — %s (%d) [%s]\n", book.Title, book.AuthorDisplay(), book.FirstPublishYear, book.WorkKey)
	}
	slog.Info("search finished", "results", len(books))
	return nil
}

func (a *AddCmd) Run(application *app.App) error {
	ctx := context.Background()

	id, err := application.EnqueueSubmission(ctx, a.WorkID, a.Review, a.Username)
	if err != nil {
		return err
	}
	slog.Info("submission enqueued", "submission_id", id, "work_id", a.WorkID)

	return application.ProcessSubmission(ctx, id)
}

func (w *WorkerCmd) Run(application *app.App) error {
	ctx := context.Background()
	if w.Submission > 0 {
		return application.ProcessSubmission(ctx, w.Submission)
	}
	return application.Worker.ProcessPending(ctx, w.Limit)
}

func (r *RecentCmd) Run(application *app.App) error {
	books, err := application.MostRecentBooks(context.Background(), r.Limit)
	if err != nil {
		return err
	}
	for _, book := range books {
		fmt.Printf("%s — %s [%s]\n", book.Title, book.AuthorDisplay(), book.WorkKey)
	}
	return nil
}

func (i *InitDBCmd) Run(application *app.App) error {
	if err := application.InitSchema(context.Background()); err != nil {
		return err
	}
	slog.Info("schema created, anon user ready")
	return nil
}

func initLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{Level: level})
	slog.SetDefault(slog.New(handler))
}
