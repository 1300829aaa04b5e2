package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/qagen"
	"github.com/fwojciec/qagen/gemini"
	"github.com/fwojciec/qagen/goquery"
	qahttp "github.com/fwojciec/qagen/http"
	"github.com/fwojciec/qagen/pipeline"
	"github.com/fwojciec/qagen/readability"
	"github.com/fwojciec/qagen/rod"
	qaslog "github.com/fwojciec/qagen/slog"
	"github.com/fwojciec/qagen/sqlite"
	"github.com/fwojciec/qagen/trafilatura"

	"github.com/fwojciec/qagen/htmltomarkdown"
	"google.golang.org/genai"
)

func main() {
	// Ctrl-C cancels the running job cooperatively; the job is recorded
	// as cancelled, not abandoned.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	JobService    qagen.JobService
	QAPairService qagen.QAPairService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("qagen"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'qagen --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set QAGEN_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.JobService = sqlite.NewJobService(m.DB)
	m.QAPairService = sqlite.NewQAPairService(m.DB)
	deps.DB = m.DB
	deps.Jobs = m.JobService
	deps.Pairs = m.QAPairService

	// The run command needs the full scrape-and-generate stack.
	if cmd == "run" {
		// API key is read once at startup; services receive explicit
		// configuration, never ambient environment lookups.
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set")
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		var fetcher qagen.Fetcher
		if cli.Run.Render {
			f, err := rod.NewFetcher()
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --render")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = f
		} else {
			fetcher = qahttp.NewFetcher(
				qahttp.WithTimeout(time.Duration(cli.Run.Timeout) * time.Second),
			)
		}
		defer fetcher.Close()

		var generator qagen.Generator = gemini.NewGenerator(client,
			gemini.WithModel(cli.Run.Model),
			gemini.WithQuestionsPerSegment(cli.Run.Questions),
			gemini.WithMinConfidence(cli.Run.MinConfidence),
		)

		var extractor qagen.Extractor = trafilatura.NewExtractor()
		if cli.Run.Extractor == "readability" {
			extractor = readability.NewExtractor()
		}

		var sitemaps qagen.SitemapService = qahttp.NewSitemapService(nil)

		if cli.Debug {
			logger := slog.New(slog.NewTextHandler(stderr, nil))
			fetcher = qaslog.NewLoggingFetcher(fetcher, logger)
			generator = qaslog.NewLoggingGenerator(generator, logger)
			sitemaps = qaslog.NewLoggingSitemapService(sitemaps, logger)
		}

		var tokens qagen.TokenCounter
		if cli.Run.MaxTokens > 0 {
			tc, err := gemini.NewTokenCounter(cli.Run.Model)
			if err != nil {
				fmt.Fprintln(stderr, "Hint: --max-tokens needs a tokenizer for the selected model")
				return fmt.Errorf("failed to load tokenizer for %s: %w", cli.Run.Model, err)
			}
			tokens = tc
		}

		deps.Coordinator = &pipeline.Coordinator{
			Jobs:      m.JobService,
			Pairs:     m.QAPairService,
			Fetcher:   fetcher,
			Extractor: extractor,
			Converter: htmltomarkdown.NewConverter(),
			Generator: generator,
			Sitemaps:  sitemaps,
			Links:     goquery.NewLinkExtractor(),
			Robots:    qahttp.NewRobotsChecker(nil),
			Limiter:   pipeline.NewDomainLimiter(1.0),
			Tokens:    tokens,
		}
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("QAGEN_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "qagen.db"
	}
	dir := filepath.Join(home, ".qagen")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "qagen.db")
}
