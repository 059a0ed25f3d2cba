/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/backend"
	"github.com/valpere/uxtran/internal/batch"
	"github.com/valpere/uxtran/internal/detector"
	"github.com/valpere/uxtran/internal/itemio"
	"github.com/valpere/uxtran/internal/orchestrator"
	"github.com/valpere/uxtran/internal/report"
	"github.com/valpere/uxtran/internal/retry"
	"github.com/valpere/uxtran/internal/store"
	"github.com/valpere/uxtran/internal/validator"
)

// pipeline is everything one command needs to run jobs.
type pipeline struct {
	store  *store.Store
	client *batch.Client
	orch   *orchestrator.Orchestrator
}

func (p *pipeline) Close() {
	if p.store != nil {
		p.store.Close()
	}
}

// pinger is implemented by backends that can check reachability up front.
type pinger interface {
	Ping(ctx context.Context) error
}

// buildPipeline constructs the backend, batch client, retry driver and
// orchestrator from the loaded configuration. A session store is opened when
// memory is requested or a glossary file is given; its glossary always feeds
// translate requests, so terms added later in the session apply too.
func buildPipeline(ctx context.Context, useMemory bool, glossaryFile string) (*pipeline, error) {
	b, err := backend.New(ctx, cfg.Backend)
	if err != nil {
		return nil, err
	}
	switch b.Name() {
	case backend.ProviderOpenAI, backend.ProviderGemini:
		if cfg.Backend.ResolveAPIKey() == "" {
			logger.Warn("no credential configured, every chunk will fall back", "provider", b.Name())
		}
	}
	if pb, ok := b.(pinger); ok {
		if err := pb.Ping(ctx); err != nil {
			logger.Warn("backend not reachable, chunks will fall back until it is", "provider", b.Name(), "err", err)
		}
	}

	p := &pipeline{}
	det := detector.New()
	clientOpts := []batch.Option{
		batch.WithDetector(det),
		batch.WithValidator(validator.New(det)),
		batch.WithLogger(logger),
	}
	orchOpts := []orchestrator.Option{orchestrator.WithLogger(logger)}

	if useMemory || glossaryFile != "" {
		st, err := store.NewSession()
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		p.store = st
		clientOpts = append(clientOpts, batch.WithGlossary(st))
		orchOpts = append(orchOpts, orchestrator.WithJobLog(st))
	}
	if useMemory {
		orchOpts = append(orchOpts, orchestrator.WithMemory(p.store))
	}
	if glossaryFile != "" {
		if err := loadGlossary(ctx, p.store, glossaryFile); err != nil {
			p.Close()
			return nil, err
		}
	}

	p.client = batch.New(b, cfg.Batch(), clientOpts...)
	driver := retry.New(cfg.Retry, cfg.Breaker, logger)
	p.orch = orchestrator.New(p.client, driver, cfg.Orchestrator(), orchOpts...)
	return p, nil
}

func loadGlossary(ctx context.Context, st *store.Store, path string) error {
	terms, err := itemio.ReadGlossary(path)
	if err != nil {
		return err
	}
	for _, t := range terms {
		if _, err := st.AddGlossaryTerm(ctx, t.SourceLang, t.TargetLang, t.Source, t.Target); err != nil {
			return fmt.Errorf("failed to load glossary term %q: %w", t.Source, err)
		}
	}
	logger.Info("glossary loaded", "file", path, "terms", len(terms))
	return nil
}

// runJob reads items, runs them through the pipeline and writes the outcome.
// Ctrl+C cancels at the next chunk boundary; completed entries are still written.
func runJob(cmd *cobra.Command, p *pipeline, mode internal.Mode, input, output, reportFile string) error {
	if input != "-" && input == output {
		return fmt.Errorf("input file and output file cannot be the same")
	}

	items, err := itemio.ReadItems(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	progress := newProgressPrinter(os.Stderr)
	outcome, err := p.orch.Run(ctx, items, mode, progress.Print)
	if err != nil {
		return err
	}

	if err := itemio.WriteOutcome(output, outcome); err != nil {
		return err
	}
	if reportFile != "" {
		if err := report.Write(reportFile, outcome); err != nil {
			return err
		}
	}

	progress.Summary(outcome)
	return nil
}
