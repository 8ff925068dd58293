package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/colly"
	"github.com/fwojciec/docpipe/config"
	"github.com/fwojciec/docpipe/convert"
	"github.com/fwojciec/docpipe/docx"
	"github.com/fwojciec/docpipe/exec"
	"github.com/fwojciec/docpipe/fs"
	"github.com/fwojciec/docpipe/gemini"
	"github.com/fwojciec/docpipe/goquery"
	"github.com/fwojciec/docpipe/htmltomarkdown"
	dphttp "github.com/fwojciec/docpipe/http"
	"github.com/fwojciec/docpipe/minio"
	"github.com/fwojciec/docpipe/pdf"
	dpslog "github.com/fwojciec/docpipe/slog"
	"github.com/fwojciec/docpipe/sqlite"
	"github.com/fwojciec/docpipe/trafilatura"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is loaded from the --config flag during Run unless set before.
	Config *config.Config

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	DocumentService docpipe.DocumentService
	SiteService     docpipe.SiteService
	ResultCache     docpipe.ResultCache
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
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
		kong.Name("docpipe"),
		kong.Description("Incremental document pipeline: scrape, convert, ingest, reorganize, analyze."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'docpipe --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	if m.Config == nil {
		cfg, err := config.Load(cli.Config)
		if err != nil {
			return err
		}
		m.Config = cfg
	}
	cfg := m.Config

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).With("cmd", cmd)

	// Storage failures are the only fatal errors of a run.
	m.DB = sqlite.NewDB(cfg.StorePath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set DOCPIPE_STORE_PATH or store_path to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cfg.StorePath, err)
	}
	defer m.Close()

	cache, err := m.openCache(ctx, cfg)
	if err != nil {
		return err
	}

	m.DocumentService = sqlite.NewDocumentService(m.DB)
	m.SiteService = sqlite.NewSiteService(m.DB)
	m.ResultCache = dpslog.NewLoggingResultCache(cache, logger)

	deps.Logger = logger
	deps.Config = cfg
	deps.ConfigPath = cli.Config
	deps.Documents = m.DocumentService
	deps.Sites = m.SiteService
	deps.Cache = m.ResultCache
	deps.Detector = fs.NewChangeDetector(m.DocumentService, cfg.Extensions)
	deps.Resolver = docpipe.NewSiteResolver(cfg.DataDir, cfg.SiteDefinitions())

	switch cmd {
	case "run":
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
		deps.Executable = exe
		deps.Runner = dpslog.NewLoggingStageRunner(exec.NewRunner(), logger)

	case "scrape":
		s := colly.NewScraper(cfg.DataDir, cfg.Extensions)
		s.MaxDepth = cfg.Scraper.MaxDepth
		s.Delay = cfg.Scraper.Delay
		s.Parallelism = cfg.Scraper.Parallelism
		s.SavePages = cfg.Scraper.SavePages
		if cfg.Scraper.UserAgent != "" {
			s.UserAgent = cfg.Scraper.UserAgent
		}
		if cfg.Scraper.Timeout > 0 {
			s.Timeout = cfg.Scraper.Timeout
		}
		if cfg.Scraper.Sitemaps {
			sitemaps := dphttp.NewSitemapService(&http.Client{Timeout: s.Timeout})
			sitemaps.UserAgent = s.UserAgent
			s.Sitemaps = sitemaps
			s.SitemapPages = cfg.Scraper.SitemapPages
		}
		s.Logger = logger
		deps.Scraper = s

	case "convert":
		c := convert.NewConverter(trafilatura.NewExtractor(), htmltomarkdown.NewConverter())
		c.Source = goquery.CanonicalURL
		deps.Converter = c

		w := convert.NewWordConverter(pdf.NewExtractor())
		w.MinTextLength = cfg.Analysis.MinTextLength
		w.Logger = logger
		deps.WordConverter = w

	case "analyze":
		classifier, err := newClassifier(ctx, cfg, stderr)
		if err != nil {
			return err
		}
		deps.Classifier = dpslog.NewLoggingClassifier(classifier, logger)
		deps.Extractor = dpslog.NewLoggingTextExtractor(newExtractorRegistry(cfg), logger)
		deps.Limiter = rate.NewLimiter(rate.Limit(cfg.Analysis.RequestsPerSecond), 1)
	}

	return kongCtx.Run(deps)
}

// openCache returns the S3 result cache when an endpoint is configured and
// the JSON file cache otherwise.
func (m *Main) openCache(ctx context.Context, cfg *config.Config) (docpipe.ResultCache, error) {
	if m.ResultCache != nil {
		return m.ResultCache, nil
	}

	s3 := cfg.Cache.S3
	if s3.Endpoint == "" {
		if dir := filepath.Dir(cfg.Cache.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create result cache directory: %w", err)
			}
		}
		return fs.NewResultCache(cfg.Cache.Path), nil
	}

	cache, err := minio.NewResultCache(minio.Config{
		Endpoint:        s3.Endpoint,
		Bucket:          s3.Bucket,
		Object:          s3.Object,
		AccessKeyID:     s3.AccessKeyID,
		SecretAccessKey: s3.SecretAccessKey,
		UseSSL:          s3.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := cache.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach result cache %s: %w", cache.Location(), err)
	}
	return cache, nil
}

func newClassifier(ctx context.Context, cfg *config.Config, stderr io.Writer) (*gemini.Classifier, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	classifier := gemini.NewClassifier(client, cfg.Analysis.Model)
	classifier.MaxChars = cfg.Analysis.MaxChars
	return classifier, nil
}

// newExtractorRegistry registers an extractor for every supported file type.
func newExtractorRegistry(cfg *config.Config) *docpipe.ExtractorRegistry {
	reg := docpipe.NewExtractorRegistry()
	reg.MinTextLength = cfg.Analysis.MinTextLength
	reg.Register(".pdf", pdf.NewExtractor())
	reg.Register(".docx", docx.NewExtractor())
	text := fs.NewTextExtractor()
	reg.Register(".md", text)
	reg.Register(".txt", text)
	return reg
}
