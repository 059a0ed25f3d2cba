package mcpserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/store"
)

var itemsSchema = map[string]interface{}{
	"type":        "array",
	"description": "Text items in display order. Ids must be unique; missing ids default to the 1-based position.",
	"items": map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"id":      map[string]interface{}{"type": "string"},
			"content": map[string]interface{}{"type": "string"},
		},
	},
}

// OutputJob is the result of a translate or rewrite job.
type OutputJob struct {
	JobID     string           `json:"job_id"`
	Cancelled bool             `json:"cancelled"`
	Degraded  int              `json:"degraded"`
	Entries   []internal.Entry `json:"entries"`
}

func newOutputJob(o *internal.Outcome) OutputJob {
	return OutputJob{
		JobID:     o.JobID,
		Cancelled: o.Cancelled,
		Degraded:  o.DegradedCount(),
		Entries:   o.Entries(),
	}
}

func normalizeItems(items []internal.TextItem) ([]internal.TextItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("items is required")
	}
	out := make([]internal.TextItem, len(items))
	for i, it := range items {
		if it.ID == "" {
			it.ID = strconv.Itoa(i + 1)
		}
		out[i] = it
	}
	return out, nil
}

func (s *Server) run(ctx context.Context, req *mcp.CallToolRequest, items []internal.TextItem, mode internal.Mode) (OutputJob, error) {
	items, err := normalizeItems(items)
	if err != nil {
		return OutputJob{}, err
	}
	outcome, err := s.orch.Run(ctx, items, mode, s.progressReporter(ctx, req))
	if err != nil {
		return OutputJob{}, err
	}
	return newOutputJob(outcome), nil
}

// MetadataTranslateTexts describes the translate_texts tool.
var MetadataTranslateTexts = &mcp.Tool{
	Name: "translate_texts",
	Description: "Translate UI text items into a target language. Items are sent to the model in chunks; " +
		"chunks that keep failing come back prefixed with a language tag such as [EN] and marked degraded.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"items", "target_lang"},
		"properties": map[string]interface{}{
			"items": itemsSchema,
			"target_lang": map[string]interface{}{
				"type":        "string",
				"description": "Target language code, e.g. en, ja, zh, es, fr, de.",
			},
		},
	},
}

type InputTranslateTexts struct {
	Items      []internal.TextItem `json:"items"`
	TargetLang string              `json:"target_lang"`
}

func (s *Server) TranslateTexts(ctx context.Context, req *mcp.CallToolRequest, input InputTranslateTexts) (*mcp.CallToolResult, OutputJob, error) {
	if strings.TrimSpace(input.TargetLang) == "" {
		return nil, OutputJob{}, fmt.Errorf("target_lang is required")
	}
	out, err := s.run(ctx, req, input.Items, internal.Translate(input.TargetLang))
	if err != nil {
		return nil, OutputJob{}, err
	}
	return nil, out, nil
}

// MetadataRewriteTexts describes the rewrite_texts tool.
var MetadataRewriteTexts = &mcp.Tool{
	Name: "rewrite_texts",
	Description: "Rewrite UI text items for clarity and consistency in their own language. " +
		"With with_reason set, every entry also carries a short explanation of the change.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"items"},
		"properties": map[string]interface{}{
			"items": itemsSchema,
			"with_reason": map[string]interface{}{
				"type":        "boolean",
				"description": "Return a reason for each rewrite.",
			},
		},
	},
}

type InputRewriteTexts struct {
	Items      []internal.TextItem `json:"items"`
	WithReason bool                `json:"with_reason"`
}

func (s *Server) RewriteTexts(ctx context.Context, req *mcp.CallToolRequest, input InputRewriteTexts) (*mcp.CallToolResult, OutputJob, error) {
	mode := internal.Rewrite()
	if input.WithReason {
		mode = internal.RewriteWithReason()
	}
	out, err := s.run(ctx, req, input.Items, mode)
	if err != nil {
		return nil, OutputJob{}, err
	}
	return nil, out, nil
}

// MetadataImproveText describes the improve_text tool.
var MetadataImproveText = &mcp.Tool{
	Name:        "improve_text",
	Description: "Rewrite a single UI text. Unlike rewrite_texts there is no retry or fallback: backend errors are returned as-is.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]interface{}{
			"text":        map[string]interface{}{"type": "string"},
			"with_reason": map[string]interface{}{"type": "boolean"},
		},
	},
}

type InputImproveText struct {
	Text       string `json:"text"`
	WithReason bool   `json:"with_reason"`
}

func (s *Server) ImproveText(ctx context.Context, _ *mcp.CallToolRequest, input InputImproveText) (*mcp.CallToolResult, internal.ImprovementResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, internal.ImprovementResult{}, fmt.Errorf("text is required")
	}
	res, err := s.client.ImproveOne(ctx, input.Text, input.WithReason)
	if err != nil {
		return nil, internal.ImprovementResult{}, err
	}
	return nil, res, nil
}

// MetadataAddGlossaryTerm describes the add_glossary_term tool.
var MetadataAddGlossaryTerm = &mcp.Tool{
	Name:        "add_glossary_term",
	Description: "Add a term that translations into target_lang must use. Terms last for the server session.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"target_lang", "source", "target"},
		"properties": map[string]interface{}{
			"source_lang": map[string]interface{}{
				"type":        "string",
				"description": "Source language code. Empty matches any source language.",
			},
			"target_lang": map[string]interface{}{"type": "string"},
			"source":      map[string]interface{}{"type": "string"},
			"target":      map[string]interface{}{"type": "string"},
		},
	},
}

type InputAddGlossaryTerm struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Source     string `json:"source"`
	Target     string `json:"target"`
}

type OutputAddGlossaryTerm struct {
	ID string `json:"id"`
}

func (s *Server) AddGlossaryTerm(ctx context.Context, _ *mcp.CallToolRequest, input InputAddGlossaryTerm) (*mcp.CallToolResult, OutputAddGlossaryTerm, error) {
	if strings.TrimSpace(input.TargetLang) == "" {
		return nil, OutputAddGlossaryTerm{}, fmt.Errorf("target_lang is required")
	}
	id, err := s.store.AddGlossaryTerm(ctx, input.SourceLang, input.TargetLang, input.Source, input.Target)
	if err != nil {
		return nil, OutputAddGlossaryTerm{}, err
	}
	return nil, OutputAddGlossaryTerm{ID: id}, nil
}

// MetadataListGlossaryTerms describes the list_glossary_terms tool.
var MetadataListGlossaryTerms = &mcp.Tool{
	Name:        "list_glossary_terms",
	Description: "List glossary terms, optionally filtered by language pair.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"source_lang": map[string]interface{}{"type": "string"},
			"target_lang": map[string]interface{}{"type": "string"},
		},
	},
}

type InputListGlossaryTerms struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// GlossaryTerm is a glossary entry as returned by the tools.
type GlossaryTerm struct {
	ID         string `json:"id"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	SourceTerm string `json:"source_term"`
	TargetTerm string `json:"target_term"`
	CreatedAt  string `json:"created_at"`
}

type OutputListGlossaryTerms struct {
	Terms []GlossaryTerm `json:"terms"`
}

func (s *Server) ListGlossaryTerms(ctx context.Context, _ *mcp.CallToolRequest, input InputListGlossaryTerms) (*mcp.CallToolResult, OutputListGlossaryTerms, error) {
	terms, err := s.store.ListGlossaryTerms(ctx, input.SourceLang, input.TargetLang)
	if err != nil {
		return nil, OutputListGlossaryTerms{}, err
	}
	out := make([]GlossaryTerm, len(terms))
	for i, e := range terms {
		out[i] = GlossaryTerm{
			ID:         e.ID,
			SourceLang: e.SourceLang,
			TargetLang: e.TargetLang,
			SourceTerm: e.SourceTerm,
			TargetTerm: e.TargetTerm,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		}
	}
	return nil, OutputListGlossaryTerms{Terms: out}, nil
}

// MetadataDeleteGlossaryTerm describes the delete_glossary_term tool.
var MetadataDeleteGlossaryTerm = &mcp.Tool{
	Name:        "delete_glossary_term",
	Description: "Delete a glossary term by the id add_glossary_term returned.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"required":   []string{"id"},
		"properties": map[string]interface{}{"id": map[string]interface{}{"type": "string"}},
	},
}

type InputDeleteGlossaryTerm struct {
	ID string `json:"id"`
}

type OutputDeleteGlossaryTerm struct {
	Deleted bool `json:"deleted"`
}

func (s *Server) DeleteGlossaryTerm(ctx context.Context, _ *mcp.CallToolRequest, input InputDeleteGlossaryTerm) (*mcp.CallToolResult, OutputDeleteGlossaryTerm, error) {
	if input.ID == "" {
		return nil, OutputDeleteGlossaryTerm{}, fmt.Errorf("id is required")
	}
	if err := s.store.DeleteGlossaryTerm(ctx, input.ID); err != nil {
		return nil, OutputDeleteGlossaryTerm{}, err
	}
	return nil, OutputDeleteGlossaryTerm{Deleted: true}, nil
}

// MetadataListJobs describes the list_jobs tool.
var MetadataListJobs = &mcp.Tool{
	Name:        "list_jobs",
	Description: "List the jobs run in this session, newest first.",
	InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
}

type InputListJobs struct{}

// Job is a finished job as returned by list_jobs.
type Job struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	TargetLang string `json:"target_lang,omitempty"`
	Items      int    `json:"items"`
	Chunks     int    `json:"chunks"`
	Degraded   int    `json:"degraded"`
	Cancelled  bool   `json:"cancelled"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
}

type OutputListJobs struct {
	Jobs []Job `json:"jobs"`
}

func (s *Server) ListJobs(ctx context.Context, _ *mcp.CallToolRequest, _ InputListJobs) (*mcp.CallToolResult, OutputListJobs, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, OutputListJobs{}, err
	}
	out := make([]Job, len(jobs))
	for i, j := range jobs {
		out[i] = Job{
			ID:         j.ID,
			Mode:       j.Mode,
			TargetLang: j.TargetLang,
			Items:      j.Items,
			Chunks:     j.Chunks,
			Degraded:   j.Degraded,
			Cancelled:  j.Cancelled,
			StartedAt:  j.StartedAt.Format(time.RFC3339),
			DurationMS: j.FinishedAt.Sub(j.StartedAt).Milliseconds(),
		}
	}
	return nil, OutputListJobs{Jobs: out}, nil
}

// MetadataMemoryStats describes the memory_stats tool.
var MetadataMemoryStats = &mcp.Tool{
	Name:        "memory_stats",
	Description: "Report how many results the session remembers and how often they were reused.",
	InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
}

type InputMemoryStats struct{}

func (s *Server) MemoryStats(ctx context.Context, _ *mcp.CallToolRequest, _ InputMemoryStats) (*mcp.CallToolResult, store.MemoryStats, error) {
	stats, err := s.store.MemoryStats(ctx)
	if err != nil {
		return nil, store.MemoryStats{}, err
	}
	return nil, *stats, nil
}
