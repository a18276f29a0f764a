// kgload ingests extracted knowledge-graph JSON files into the fact store.
// Usage: kgload -dir path/to/json_output
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spacebio/kgsearch/internal/config"
	dbRedis "github.com/spacebio/kgsearch/internal/db/redis"
	"github.com/spacebio/kgsearch/internal/ingest"
	logpkg "github.com/spacebio/kgsearch/internal/logger"
	factsrepo "github.com/spacebio/kgsearch/internal/repository/facts"
)

const kgFileSuffix = "_kg.json"

func main() {
	dir := flag.String("dir", "json_output", "directory of *_kg.json extraction files")
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	repo := factsrepo.New(store, cfg.Storage.KeyPrefix)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatal("Failed to read input directory", zap.String("dir", *dir), zap.Error(err))
	}

	var processed, failed int
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, kgFileSuffix) {
			continue
		}

		docID := strings.TrimSuffix(name, kgFileSuffix)
		if err := loadFile(ctx, repo, filepath.Join(*dir, name), docID, cfg.Corpus.SubEntityDelimiter); err != nil {
			logger.Error("Failed to ingest file", zap.String("file", name), zap.Error(err))
			failed++
			continue
		}

		processed++
		if processed%10 == 0 {
			logger.Info("Ingestion progress", zap.Int("processed", processed))
		}
	}

	logger.Info("Ingestion complete",
		zap.String("dir", *dir),
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)
}

func loadFile(ctx context.Context, repo *factsrepo.Repo, path, docID, delim string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return err
	}

	ex, err := ingest.Parse(data)
	if err != nil {
		return err
	}

	for _, sf := range ingest.Facts(docID, ex, delim) {
		if err := repo.Add(ctx, sf.Subject, sf.Facts); err != nil {
			return err
		}
	}
	return nil
}
