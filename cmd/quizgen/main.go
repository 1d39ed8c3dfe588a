package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pdf-quiz/internal/adapter"
	"pdf-quiz/internal/adapter/document"
	"pdf-quiz/internal/adapter/quizgen"
	"pdf-quiz/internal/cache"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/domain"
	"pdf-quiz/internal/logger"
	"pdf-quiz/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	output := pflag.StringP("output", "o", "", "write the quiz JSON to this file instead of stdout")
	useCache := pflag.Bool("cache", false, "reuse and store quizzes in Redis when redis.address is configured")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.pdf>\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	pdfPath := pflag.Arg(0)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		// Logger might not be initialized yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger; stdout carries the quiz
	cfg.Logger.Output = "stderr"
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	log := logger.Get().With(zap.String("file", pdfPath))
	log.Info("Quiz generation starting up...")

	var quizCache service.QuizCacheService
	generator, err := quizgen.NewFromConfig(ctx, cfg, logger.Get())
	if err != nil {
		log.Fatal("Failed to initialize QuizGenerator", zap.Error(err))
	}
	if *useCache && cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize Redis Client", zap.Error(err))
		}
		defer redisClient.Close()
		quizCache = service.NewQuizCacheService(adapter.NewRedisCacheAdapter(redisClient), cfg.QuizTTL(), quizgen.CacheSettings(cfg.Quiz)...)
		log.Info("Redis Cache initialized successfully.")
	} else {
		quizCache = service.NewQuizCacheService(nil, 0)
	}

	ingestor, err := document.NewPDFIngestor(cfg.Document.UploadPath, cfg.Document.PageSeparator, cfg.Quiz.MaxPages, logger.Get())
	if err != nil {
		log.Fatal("Failed to initialize PDF ingestor", zap.Error(err))
	}

	file, err := os.Open(pdfPath)
	if err != nil {
		log.Fatal("Failed to open PDF", zap.Error(err))
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		log.Fatal("Failed to stat PDF", zap.Error(err))
	}

	doc, err := ingestor.Ingest(ctx, domain.Upload{
		Filename: filepath.Base(pdfPath),
		Size:     info.Size(),
		Content:  file,
	})
	if err != nil {
		log.Fatal("Failed to extract text", zap.Error(err))
	}
	log.Info("Document extracted", zap.Int("pages", len(doc.Pages)), zap.Int("characters", len(doc.Context)))

	quiz, err := quizCache.GetOrGenerate(ctx, doc, func(ctx context.Context) (*domain.Quiz, error) {
		return generator.GenerateFromDocument(ctx, doc)
	})
	if err != nil {
		log.Fatal("Quiz generation failed", zap.Error(err))
	}
	if quiz.IsEmpty() {
		log.Fatal("Quiz generation failed", zap.String("reason", "model returned no questions"))
	}

	data, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		log.Fatal("Failed to encode quiz", zap.Error(err))
	}
	data = append(data, '\n')

	if *output == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatal("Failed to write quiz", zap.Error(err))
		}
	} else if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatal("Failed to write quiz", zap.Error(err), zap.String("output", *output))
	}

	log.Info("Quiz generation completed successfully.",
		zap.Int("groups", len(quiz.Groups)),
		zap.Int("questions", quiz.TotalQuestions()))
}
