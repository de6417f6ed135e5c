package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/coderag/internal/completion"
	"github.com/dshills/coderag/internal/config"
	"github.com/dshills/coderag/internal/corpus"
	"github.com/dshills/coderag/internal/embedder"
	"github.com/dshills/coderag/internal/index"
	"github.com/dshills/coderag/internal/lexical"
	"github.com/dshills/coderag/internal/logger"
	"github.com/dshills/coderag/internal/prompt"
	"github.com/dshills/coderag/internal/searcher"
)

// app carries the state shared by every command: the resolved config
// and the logger built from it
type app struct {
	configPath string
	corpusPath string
	cachePath  string
	debug      bool
	logJSON    bool

	cfg *config.Config
	log *slog.Logger

	// newEmbedder is swapped in tests
	newEmbedder func(cfg *config.Config) (embedder.Embedder, error)
}

func newApp() *app {
	return &app{newEmbedder: embedderFromConfig}
}

// load resolves the config file, applies flag overrides and builds the logger
func (a *app) load(cmd *cobra.Command) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
		path = a.configPath
	} else {
		cfg, path, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("corpus") {
		cfg.CorpusPath = a.corpusPath
	}
	if cmd.Flags().Changed("cache") {
		cfg.CachePath = a.cachePath
	}
	if a.debug {
		cfg.Log.Debug = true
	}
	if a.logJSON {
		cfg.Log.JSON = true
	}

	a.cfg = cfg
	a.log = logger.New(
		logger.WithDebug(cfg.Log.Debug),
		logger.WithJSON(cfg.Log.JSON),
		logger.WithPretty(cfg.Log.Pretty || !cfg.Log.JSON),
		logger.WithWriter(cmd.ErrOrStderr()),
	)
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		// kept open for the life of the process
		a.log = logger.Multi(a.log, logger.New(
			logger.WithDebug(cfg.Log.Debug),
			logger.WithJSON(true),
			logger.WithSource(true),
			logger.WithWriter(f),
		))
	}
	if path != "" {
		a.log.Debug("config loaded", "path", path)
	}
	return nil
}

func embedderFromConfig(cfg *config.Config) (embedder.Embedder, error) {
	provider := cfg.Embedder.Provider
	if provider == "" {
		provider = embedder.DetectProvider()
	}
	return embedder.New(embedder.Config{
		Provider:  provider,
		Model:     cfg.Embedder.Model,
		BaseURL:   cfg.Embedder.BaseURL,
		APIKey:    cfg.EmbedderAPIKey(),
		CacheSize: cfg.Embedder.CacheSize,
	})
}

func (a *app) indexOptions(force bool) index.Options {
	return index.Options{
		ForceRebuild:   force,
		RebuildOnStale: a.cfg.RebuildOnStale,
		BatchSize:      a.cfg.Embedder.BatchSize,
		Workers:        a.cfg.Embedder.Workers,
		Logger:         a.log,
	}
}

// openSearcher loads the corpus and wires both indexes behind a Searcher.
// The returned close func releases the embedder.
func (a *app) openSearcher() (*searcher.Searcher, func(), error) {
	c, err := corpus.Load(a.cfg.CorpusPath, corpus.WithLogger(a.log))
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug("corpus loaded", "path", a.cfg.CorpusPath, "fragments", c.Len())

	emb, err := a.newEmbedder(a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	lazy := index.NewLazy(c, emb, a.cfg.CachePath, a.indexOptions(false))
	s := searcher.New(lazy, lexical.New(c), searcher.Config{Logger: a.log})
	return s, func() { _ = emb.Close() }, nil
}

func (a *app) template() (prompt.Template, error) {
	t, err := prompt.Lookup(a.cfg.PromptLocale)
	if err != nil {
		return prompt.Template{}, err
	}
	t.MaxLines = a.cfg.MaxPromptLines
	return t, nil
}

func (a *app) completionClient() (completion.Client, error) {
	c := a.cfg.Completion
	return completion.New(completion.Config{
		Provider:     c.Provider,
		BaseURL:      c.BaseURL,
		Model:        c.Model,
		FolderID:     c.FolderID,
		Temperature:  *c.Temperature,
		MaxTokens:    c.MaxTokens,
		SystemPrompt: c.SystemPrompt,
		Timeout:      time.Duration(c.TimeoutSecs) * time.Second,
	})
}

func (a *app) completionToken() (string, error) {
	token := a.cfg.CompletionAPIKey()
	if token == "" {
		return "", fmt.Errorf("no completion credential: set $%s", a.cfg.Completion.APIKeyEnv)
	}
	return token, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
