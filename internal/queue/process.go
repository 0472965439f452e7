package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/graphloom/graphloom/internal/storage"
	"github.com/graphloom/graphloom/internal/util"
	"github.com/graphloom/graphloom/pkg/ai"
	"github.com/graphloom/graphloom/pkg/graph"
	"github.com/graphloom/graphloom/pkg/logger"
	"github.com/graphloom/graphloom/pkg/store"
	storepgx "github.com/graphloom/graphloom/pkg/store/pgx"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// IngestMessage requests indexing of one source document.
type IngestMessage struct {
	SourceID    string `json:"source_id"`
	DocumentKey string `json:"document_key"`
	DomainHint  string `json:"domain_hint,omitempty"`
}

// DeleteMessage requests removal of everything stored for a source.
type DeleteMessage struct {
	SourceID string `json:"source_id"`
}

// ProcessIngestMessage runs the full construction pipeline for one
// document: fetch, chunked extraction, graph assembly, optimization,
// validation and best-effort export. Prior state for the source is
// replaced.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *s3.Client,
	aiClient ai.GraphAIClient,
	conn storepgx.Conn,
	body string,
) error {
	var msg IngestMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("invalid ingest message: %w", err)
	}
	if msg.SourceID == "" || msg.DocumentKey == "" {
		return fmt.Errorf("ingest message missing source_id or document_key")
	}

	document, err := storage.GetDocument(ctx, s3Client, msg.DocumentKey)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(string(document))
	if text == "" {
		logger.Warn("Document is empty, nothing to index", "source", msg.SourceID)
		return nil
	}

	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
		AIClient:            aiClient,
		Workers:             int(util.GetEnvNumeric("EXTRACT_WORKERS", 4)),
		MaxRetries:          int(util.GetEnvNumeric("EXTRACT_MAX_RETRIES", 3)),
		ChunkSize:           int(util.GetEnvNumeric("CHUNK_SIZE", 1000)),
		Overlap:             int(util.GetEnvNumeric("CHUNK_OVERLAP", 200)),
		ConfidenceThreshold: 0.5,
		DomainHint:          msg.DomainHint,
	})
	if err != nil {
		return err
	}

	extraction, err := client.ExtractFromText(ctx, text, msg.SourceID)
	if err != nil {
		return err
	}
	logger.Info(
		"Extraction complete",
		"source", msg.SourceID,
		"entities", len(extraction.Entities),
		"relations", len(extraction.Relations),
		"failed_chunks", extraction.FailedChunks,
	)

	constructor, err := graph.NewConstructor(graph.NewConstructorParams{
		AIClient:       aiClient,
		ChunkThreshold: int(util.GetEnvNumeric("CHUNK_THRESHOLD", 1000)),
		ChunkSize:      int(util.GetEnvNumeric("CHUNK_SIZE", 1000)),
		Overlap:        int(util.GetEnvNumeric("CHUNK_OVERLAP", 200)),
	})
	if err != nil {
		return err
	}

	kg, err := constructor.BuildGraph(
		ctx,
		extraction.Entities,
		extraction.Relations,
		extraction.Attributes,
		text,
		msg.SourceID,
	)
	if err != nil {
		return err
	}

	kg = graph.OptimizeGraph(kg)

	validation := graph.ValidateGraph(kg)
	for _, e := range validation.Errors {
		logger.Error("Graph validation error", "source", msg.SourceID, "err", e)
	}
	for _, w := range validation.Warnings {
		logger.Warn("Graph validation warning", "source", msg.SourceID, "warning", w)
	}
	logger.Info(
		"Graph validated",
		"source", msg.SourceID,
		"valid", validation.Valid,
		"nodes", validation.Statistics.TotalNodes,
		"edges", validation.Statistics.TotalEdges,
		"isolated", validation.Statistics.IsolatedNodes,
	)

	graphStorage := storepgx.NewGraphDBStorageWithConnection(conn)
	if err := graphStorage.DeleteSource(ctx, msg.SourceID); err != nil {
		return fmt.Errorf("failed to clear previous state for %s: %w", msg.SourceID, err)
	}

	report := store.StoreGraph(ctx, graphStorage, kg)
	logger.Info("Graph export finished", "source", msg.SourceID, "stored", report.Stored, "total", report.Total)

	if report.Stored == 0 && report.Total > 0 {
		return fmt.Errorf("no records stored for %s", msg.SourceID)
	}
	return nil
}

// ProcessDeleteMessage removes all stored state for a source document.
func ProcessDeleteMessage(
	ctx context.Context,
	conn storepgx.Conn,
	body string,
) error {
	var msg DeleteMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("invalid delete message: %w", err)
	}
	if msg.SourceID == "" {
		return fmt.Errorf("delete message missing source_id")
	}

	graphStorage := storepgx.NewGraphDBStorageWithConnection(conn)
	if err := graphStorage.DeleteSource(ctx, msg.SourceID); err != nil {
		return err
	}
	logger.Info("Deleted source", "source", msg.SourceID)
	return nil
}
