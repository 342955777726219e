// Package main implements the SecScore enrichment service: an HTTP API that
// fetches CVE metadata from NVD, blends in EPSS, CISA KEV, ExploitDB, and OSV
// signals, and returns an Asymmetric-Laplace-derived threat score.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gotaskflow "github.com/noneback/go-taskflow"
	"github.com/secscore-io/secscore/pkg/cache"
	"github.com/secscore-io/secscore/pkg/captcha"
	"github.com/secscore-io/secscore/pkg/common"
	"github.com/secscore-io/secscore/pkg/cve/remote"
	"github.com/secscore-io/secscore/pkg/enrich"
	"github.com/secscore-io/secscore/pkg/exploitdb"
	"github.com/secscore-io/secscore/pkg/kev"
	"github.com/secscore-io/secscore/pkg/ratelimit"
	"github.com/secscore-io/secscore/pkg/secscore"
)

func main() {
	config := common.LoadConfig()
	setLogLevel(config.LogLevel)
	common.Info("secscore %s starting", common.Version)

	catalog, err := kev.NewCatalog(config.KEVCachePath, config.KEVFallbackPath, config.KEVFeedURL, common.DefaultKEVFetchTimeout)
	if err != nil {
		common.Error("failed to open KEV catalog: %v", err)
		os.Exit(1)
	}
	defer catalog.Close()
	catalog.EnsureBootstrapped()

	scheduler := kev.NewScheduler(catalog, config.KEVRefreshInterval, config.KEVSchedulerDisabled)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler.Arm(ctx)
	defer scheduler.Stop()

	exploits := exploitdb.New(config.ExploitDBPath)

	params, err := secscore.LoadParamTable(config.ALParamsPath)
	if err != nil {
		common.Warn("falling back to bundled AL parameter table: %v", err)
		params = secscore.BundledParamTable()
	}

	nvdFetcher, err := remote.NewFetcher(config.NVDAPIKey, common.DefaultUpstreamTimeout)
	if err != nil {
		common.Error("failed to build NVD fetcher: %v", err)
		os.Exit(1)
	}
	epssFetcher, err := remote.NewEPSSFetcher(common.DefaultUpstreamTimeout)
	if err != nil {
		common.Error("failed to build EPSS fetcher: %v", err)
		os.Exit(1)
	}
	osvFetcher, err := remote.NewOSVFetcher(common.DefaultUpstreamTimeout)
	if err != nil {
		common.Error("failed to build OSV fetcher: %v", err)
		os.Exit(1)
	}

	metaCache, err := cache.New[secscore.Metadata](config.CacheCapacity, config.CacheTTL, secscore.ModelVersion)
	if err != nil {
		common.Error("failed to build metadata cache: %v", err)
		os.Exit(1)
	}
	enrichCache, err := cache.New[secscore.Response](config.CacheCapacity, config.CacheTTL, secscore.ModelVersion)
	if err != nil {
		common.Error("failed to build enrichment cache: %v", err)
		os.Exit(1)
	}

	orchestrator := &enrich.Orchestrator{
		NVD:         nvdFetcher,
		EPSS:        epssFetcher,
		OSV:         osvFetcher,
		KEV:         catalog,
		ExploitDB:   exploits,
		Params:      params,
		MetaCache:   metaCache,
		EnrichCache: enrichCache,
		Executor:    gotaskflow.NewExecutor(enrich.DefaultExecutorWorkers),
	}

	var verifier captcha.Verifier = captcha.NoopVerifier{}
	if config.CaptchaEnabled {
		verifier = captcha.NewTurnstileVerifier(config.CaptchaSecret, common.DefaultUpstreamTimeout)
		common.Info("captcha verification enabled")
	}

	app := &App{
		Orchestrator:    orchestrator,
		KEVCatalog:      catalog,
		Config:          config,
		CaptchaVerifier: verifier,
	}

	limiter := ratelimit.NewClientLimiter(config.RateLimitPerHour, time.Hour)
	router := setupRouter(app, limiter)

	srv := &http.Server{
		Addr:    config.ListenAddr,
		Handler: router,
	}

	go func() {
		common.Info("listening on %s", config.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.Error("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	common.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), common.DefaultShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.Error("forced shutdown: %v", err)
		os.Exit(1)
	}
	common.Info("secscore stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		common.SetLevel(common.DebugLevel)
	case "warn":
		common.SetLevel(common.WarnLevel)
	case "error":
		common.SetLevel(common.ErrorLevel)
	default:
		common.SetLevel(common.InfoLevel)
	}
}
