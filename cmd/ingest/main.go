package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/graphloom/graphloom/internal/queue"
	"github.com/graphloom/graphloom/internal/util"
	"github.com/graphloom/graphloom/pkg/logger"
	"github.com/graphloom/graphloom/pkg/logger/console"
)

// Publishes ingest or delete requests onto the work queues consumed by the
// worker.
func main() {
	util.LoadEnv()

	sourceID := flag.String("source", "", "source document id")
	documentKey := flag.String("key", "", "S3 object key of the document text")
	domainHint := flag.String("domain", "", "optional domain hint for extraction")
	remove := flag.Bool("delete", false, "delete everything stored for the source instead of ingesting")
	flag.Parse()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(console.New(console.Params{Debug: debug}))

	if *sourceID == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -source <id> -key <s3-key> [-domain <hint>] [-delete]")
		os.Exit(2)
	}

	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if *remove {
		body, err := json.Marshal(queue.DeleteMessage{SourceID: *sourceID})
		if err != nil {
			logger.Fatal("Failed to encode message", "err", err)
		}
		if err := queue.PublishFIFO(ch, queue.DeleteQueue, body); err != nil {
			logger.Fatal("Failed to publish delete request", "err", err)
		}
		logger.Info("Delete request queued", "source", *sourceID)
		return
	}

	if *documentKey == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -source <id> -key <s3-key> [-domain <hint>] [-delete]")
		os.Exit(2)
	}

	body, err := json.Marshal(queue.IngestMessage{
		SourceID:    *sourceID,
		DocumentKey: *documentKey,
		DomainHint:  *domainHint,
	})
	if err != nil {
		logger.Fatal("Failed to encode message", "err", err)
	}
	if err := queue.PublishFIFO(ch, queue.IngestQueue, body); err != nil {
		logger.Fatal("Failed to publish ingest request", "err", err)
	}
	logger.Info("Ingest request queued", "source", *sourceID, "key", *documentKey)
}
