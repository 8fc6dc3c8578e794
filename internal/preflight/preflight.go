package preflight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bananadb/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the free space below which the upload directory check fails.
const minFreeBytes = 256 << 20

// RunServerChecks executes the checks that matter before serving: storage
// directories, free space, and the vision model when a key is configured.
func RunServerChecks(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir),
		CheckFreeSpace("Upload free space", cfg.Paths.UploadDir, minFreeBytes),
	}
	if cfg.GetVision().APIKey != "" {
		results = append(results, CheckVision(ctx, "Vision model", cfg.GetVision()))
	}
	return results
}

// RunAll executes every check, including the collector endpoint the capture
// host posts to and the native messaging manifest. The network checks run
// concurrently; results keep a stable order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var (
		server    []Result
		collector Result
		manifest  Result
	)
	var g errgroup.Group
	g.Go(func() error {
		server = RunServerChecks(ctx, cfg)
		return nil
	})
	g.Go(func() error {
		collector = CheckCollector(ctx, cfg.Collector.URL, cfg.Paths.APIToken)
		return nil
	})
	g.Go(func() error {
		manifest = CheckHostManifestFromConfig(cfg)
		return nil
	})
	_ = g.Wait()

	results := server
	if cfg.GetVision().APIKey == "" {
		results = append(results, Result{Name: "Vision model", Detail: "API key missing (images get placeholder analysis)"})
	}
	return append(results, collector, manifest)
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
