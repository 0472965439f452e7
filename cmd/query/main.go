package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/graphloom/graphloom/internal/util"
	"github.com/graphloom/graphloom/pkg/ai"
	ollamaai "github.com/graphloom/graphloom/pkg/ai/ollama"
	openaiai "github.com/graphloom/graphloom/pkg/ai/openai"
	"github.com/graphloom/graphloom/pkg/logger"
	"github.com/graphloom/graphloom/pkg/logger/console"
	"github.com/graphloom/graphloom/pkg/query"
	storepgx "github.com/graphloom/graphloom/pkg/store/pgx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

func main() {
	util.LoadEnv()

	topK := flag.Int("top-k", 10, "maximum number of results")
	threshold := flag.Float64("threshold", 0.5, "similarity threshold")
	depth := flag.Int("depth", 2, "graph expansion depth")
	graphContext := flag.Bool("graph-context", true, "include graph context")
	modesFlag := flag.String("modes", "", "comma-separated search modes (entities,documents,attributes,relations)")
	flag.Parse()

	queryText := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if queryText == "" {
		fmt.Fprintln(os.Stderr, "usage: query [flags] <question>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(console.New(console.Params{Debug: debug}))

	adapter := util.GetEnv("AI_ADAPTER")
	var aiClient ai.GraphAIClient

	switch adapter {
	case "ollama":
		client, err := ollamaai.NewGraphOllamaClient(ollamaai.NewGraphOllamaClientParams{
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		aiClient = client
	default:
		aiClient = openaiai.NewGraphOpenAIClient(openaiai.NewGraphOpenAIClientParams{
			ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
		})
	}

	pgConfig, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid database configuration", "err", err)
	}
	pgConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pgConn, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	trace := &query.CollectingTracer{}
	retriever, err := query.NewRetriever(query.NewRetrieverParams{
		Storage:  storepgx.NewGraphDBStorageWithConnection(pgConn),
		AIClient: aiClient,
		Trace:    trace,
	})
	if err != nil {
		logger.Fatal("Could not create retriever", "err", err)
	}

	results, err := retriever.Retrieve(ctx, queryText, query.RetrieveParams{
		TopK:                *topK,
		SimilarityThreshold: *threshold,
		GraphExpansionDepth: *depth,
		IncludeGraphContext: *graphContext,
		SearchModes:         parseModes(*modesFlag),
	})
	if err != nil {
		logger.Fatal("Retrieval failed", "err", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return
	}

	for i, r := range results {
		fmt.Printf("%2d. [%.3f] (%s) %s\n", i+1, r.Score, r.Mode, r.Content)
	}

	if failed := trace.FailedModes(); len(failed) > 0 {
		logger.Warn("Some search modes failed", "modes", strings.Join(failed, ","))
	}
}

func parseModes(s string) []query.SearchMode {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var modes []query.SearchMode
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		modes = append(modes, query.SearchMode(part))
	}
	return modes
}
