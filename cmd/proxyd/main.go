package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/bnema/gordon/internal/admission"
	"github.com/bnema/gordon/internal/certstore"
	"github.com/bnema/gordon/internal/cidrguard"
	"github.com/bnema/gordon/internal/config"
	"github.com/bnema/gordon/internal/dispatch"
	"github.com/bnema/gordon/internal/httperr"
	"github.com/bnema/gordon/internal/proxyengine"
	"github.com/bnema/gordon/internal/ratelimit"
	"github.com/bnema/gordon/internal/route"
	"github.com/bnema/gordon/internal/routedoc"
	"github.com/bnema/gordon/internal/server"
	"github.com/bnema/gordon/internal/wsproxy"
	"github.com/bnema/gordon/pkg/logger"
)

func main() {
	logger.GetLogger().ConfigureFromEnv()

	cfg := config.Load()

	certs, err := certstore.LoadFromDisk(cfg.SSLDir)
	if err != nil {
		logger.Warn("certificate store loaded with errors", "error", err)
	}
	if domains := autocertDomains(cfg.AutocertDomainsCSV); len(domains) > 0 {
		certs.SetAutocert(&autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(domains...),
			Cache:      autocert.DirCache(cfg.SSLDir + "/autocert-cache"),
		})
		logger.Info("autocert enabled", "domains", domains)
	}

	doc, err := routedoc.Load(cfg.PathFile, cfg.PathsDir)
	if err != nil {
		logger.Fatal("failed to load route document", "error", err)
	}
	table := route.NewTable(doc.Keys, doc.Specs)

	bodies := routedoc.LoadResponses(cfg.ResponsesDir)
	errs := httperr.NewStore(bodies)

	blacklist := cidrguard.NewBlacklist(cfg.SSLDir + "/blacklist.yml")

	limiter := ratelimit.New(cfg.MaxCallsPerSecond)
	defer limiter.Stop()
	soft := ratelimit.NewSoftMonitor(cfg.MaxCallsPerSecond)

	pipeline := admission.New(table, limiter, soft, blacklist)
	dispatcher := dispatch.New(proxyengine.New(), wsproxy.New())

	srv := server.New(pipeline, dispatcher, errs, certs, cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("listener failed", "error", err)
		}
	case <-sig:
		logger.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}

func autocertDomains(csv string) []string {
	if csv == "" {
		return nil
	}
	var domains []string
	for _, d := range strings.Split(csv, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}
