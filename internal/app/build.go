package app

import (
	"context"
	"fmt"

	"github.com/KiranJulakanti/chatagent/internal/account"
	"github.com/KiranJulakanti/chatagent/internal/auth"
	"github.com/KiranJulakanti/chatagent/internal/catalog"
	"github.com/KiranJulakanti/chatagent/internal/completion"
	"github.com/KiranJulakanti/chatagent/internal/config"
	"github.com/KiranJulakanti/chatagent/internal/dialogue"
	"github.com/KiranJulakanti/chatagent/internal/httpapi"
	"github.com/KiranJulakanti/chatagent/internal/intent"
	"github.com/KiranJulakanti/chatagent/internal/observability"
	"github.com/KiranJulakanti/chatagent/internal/session"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

type BuildResult struct {
	Config     config.Config
	API        *httpapi.Server
	Sessions   *session.Manager
	Dispatcher *dialogue.Dispatcher
	Metrics    *observability.Metrics
	Tracker    telemetry.Tracker

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	sink, err := telemetry.NewSink(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("telemetry sink init failed: %w", err)
	}
	tracker := telemetry.NewService(sink, metrics)

	client, err := completion.NewClient(cfg, tracker, metrics)
	if err != nil {
		_ = sink.Close()
		return nil, fmt.Errorf("completion client init failed: %w", err)
	}
	classifier := intent.NewClassifier(client, tracker, metrics)

	var products dialogue.ProductSource
	if cfg.CatalogAPIURL != "" {
		var tokens auth.TokenProvider
		if cfg.CatalogTokenURL != "" {
			tokens = auth.NewClientCredentialsProvider(cfg.CatalogTokenURL, cfg.CatalogClientID, cfg.CatalogClientSecret, cfg.CatalogScope)
		} else {
			tokens = auth.NewStaticTokenProvider(cfg.CatalogAuthToken)
		}
		products = catalog.New(cfg.CatalogAPIURL, tokens, cfg.CatalogTimeout, tracker, metrics)
	}

	var accounts dialogue.AccountCreator
	if cfg.AccountAPIURL != "" {
		tokens := auth.NewStaticTokenProvider(cfg.AccountAuthToken)
		accounts = account.New(cfg.AccountAPIURL, tokens, cfg.AccountTimeout, tracker, metrics)
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	dispatcher := dialogue.New(dialogue.Options{
		Classifier: classifier,
		Products:   products,
		Accounts:   accounts,
		Sessions:   sessions,
		Tracker:    tracker,
		Metrics:    metrics,
		CatalogQuery: catalog.Query{
			BigID:    cfg.CatalogBigID,
			SKUID:    cfg.CatalogSKUID,
			Market:   cfg.CatalogMarket,
			Language: cfg.CatalogLanguage,
		},
		HistoryRetention: cfg.HistoryRetention,
	})

	api := httpapi.New(cfg, sessions, dispatcher, metrics)

	cleanup := func() error {
		return sink.Close()
	}

	return &BuildResult{
		Config:     cfg,
		API:        api,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Tracker:    tracker,
		Cleanup:    cleanup,
	}, nil
}
