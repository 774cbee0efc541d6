package main

import (
	"context"
	"fmt"
	"log"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/calebhart/jobsift/internal/config"
	"github.com/calebhart/jobsift/internal/extract"
	"github.com/calebhart/jobsift/internal/gemini"
	"github.com/calebhart/jobsift/internal/mailbox"
	"github.com/calebhart/jobsift/internal/pipeline"
	"github.com/calebhart/jobsift/internal/sheet"
)

// runPipeline builds the collaborators, executes one run and records
// it in the local ledger. Construction performs every fatal pre-run
// check (credentials, labels, sheet headers) before anything is
// touched.
func runPipeline(ctx context.Context, cfg *config.Config) error {
	runner, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}

	res, runErr := runner.Run(ctx)

	if l, lerr := openLedger(); lerr != nil {
		log.Printf("ledger unavailable: %v", lerr)
	} else {
		if _, rerr := l.RecordRun(res, runErr); rerr != nil {
			log.Printf("recording run: %v", rerr)
		}
		l.Close()
	}

	if runErr != nil {
		return runErr
	}
	if jsonOutput {
		printJSON(res)
	}
	return nil
}

func buildRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient, err := oauthClient(ctx, cfg, false)
	if err != nil {
		return nil, err
	}

	gmailSrv, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Gmail service: %w", err)
	}
	source, err := mailbox.NewGmailSource(ctx, gmailSrv, cfg.Gmail.PendingLabel)
	if err != nil {
		return nil, err
	}

	sheetsSrv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Sheets service: %w", err)
	}
	store, err := sheet.NewSheetStore(ctx, sheetsSrv, cfg.Sheet.SpreadsheetID,
		cfg.Sheet.RecordsTab, cfg.Sheet.ErrorsTab, cfg.Sheet.ErrorRowsTerminal)
	if err != nil {
		return nil, err
	}

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	return &pipeline.Runner{
		Source:       source,
		Store:        store,
		Extractor:    extractor,
		PendingLabel: cfg.Gmail.PendingLabel,
		DoneLabel:    cfg.Gmail.DoneLabel,
		Budget: pipeline.Budget{
			MaxConversations: cfg.Run.MaxConversations,
			MaxMessages:      cfg.Run.MaxMessages,
			MaxRuntime:       time.Duration(cfg.Run.MaxRuntimeSeconds) * time.Second,
		},
		MessagePause:      time.Duration(cfg.Run.MessagePauseMS) * time.Millisecond,
		MessageJitter:     time.Duration(cfg.Run.MessageJitterMS) * time.Millisecond,
		ConversationPause: time.Duration(cfg.Run.ConversationPauseMS) * time.Millisecond,
	}, nil
}

// buildExtractor composes the extraction chain. Without an API key
// (fallback-only mode) the chain has no primary and the deterministic
// patterns carry the run.
func buildExtractor(cfg *config.Config) (extract.Extractor, error) {
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	chain := &extract.Chain{Fallback: extract.NewPatternExtractor()}
	if key != "" {
		client := gemini.NewClient(key, cfg.GeminiTimeout())
		chain.Primary = extract.NewGeminiExtractor(client, cfg.Gemini.Model)
	} else {
		log.Printf("no Gemini API key; running on pattern extraction only")
	}
	return chain, nil
}

// checkSetup exercises the fatal pre-run checks and reports what it
// found, writing nothing.
func checkSetup(ctx context.Context, cfg *config.Config) error {
	if _, err := buildRunner(ctx, cfg); err != nil {
		return err
	}
	if jsonOutput {
		printJSON(map[string]any{"ok": true})
	} else {
		fmt.Println("Config, credentials, labels and sheet headers all check out.")
	}
	return nil
}
