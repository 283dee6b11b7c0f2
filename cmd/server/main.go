package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/roastlab/roast-arena/internal/api"
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/config"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/realtime"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/roastlab/roast-arena/internal/repository/postgres"
	"github.com/roastlab/roast-arena/internal/service"
	"github.com/roastlab/roast-arena/internal/show"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Environment == "development" {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}

	repos := postgres.NewRepositories(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedSubjects(ctx, repos); err != nil {
		logger.Fatalf("failed to seed subject roster: %v", err)
	}

	bridge, err := realtime.NewBridge(cfg.RedisAddr, cfg.RedisDB, cfg.SnapshotChannel, logger)
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	defer bridge.Close()

	audioStore, err := collab.NewAudioStore(cfg.MediaDir)
	if err != nil {
		logger.Fatalf("failed to open media dir: %v", err)
	}
	generator := collab.NewGenerator(cfg.GeneratorURL, cfg.GeneratorAPIKey, cfg.GeneratorModel)
	synth := collab.NewSynthesizer(cfg.SynthURL, cfg.SynthAPIKey)
	transcriber := collab.NewTranscriber(cfg.TranscribeURL)

	services := service.NewServices(repos, cfg, logger, transcriber, audioStore)

	hub := realtime.NewHub(repos.RoundState, repos.Snapshot, bridge, logger)
	go hub.Run()
	go hub.ListenSideChannel(ctx)

	engine := show.NewEngine(
		repos, generator, synth, audioStore, bridge,
		func(ctx context.Context, sessionID uuid.UUID) error {
			_, err := services.Completion.Complete(ctx, sessionID)
			return err
		},
		cfg, logger,
	)
	go engine.Run(ctx)
	go services.Lifecycle.Run(ctx)

	router := api.NewRouter(services, hub, repos, cfg.MediaDir, logger)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	engine.Shutdown(shutdownCtx)
	hub.Stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}

	logger.Info("server stopped")
}

// seedSubjects fills an empty roster so the first round can pick a target.
func seedSubjects(ctx context.Context, repos *repository.Repositories) error {
	n, err := repos.Subject.Count(ctx)
	if err != nil || n > 0 {
		return err
	}

	seeds := []domain.Subject{
		{Name: "Captain Obvious", AvatarURL: "/avatars/captain-obvious.png", Persona: []byte(`{"bio":"A superhero whose only power is stating what everyone already knows."}`)},
		{Name: "Deadline Dan", AvatarURL: "/avatars/deadline-dan.png", Persona: []byte(`{"bio":"Has never shipped anything on time, including his own birth."}`)},
		{Name: "Gym Selfie Greg", AvatarURL: "/avatars/gym-greg.png", Persona: []byte(`{"bio":"Spends more time framing the mirror shot than lifting."}`)},
		{Name: "Influencer Ivy", AvatarURL: "/avatars/ivy.png", Persona: []byte(`{"bio":"Will monetize this roast before it is over."}`)},
		{Name: "Reply-All Rita", AvatarURL: "/avatars/rita.png", Persona: []byte(`{"bio":"Has CC'd the entire company at least twice this week."}`)},
		{Name: "Vinyl Vince", AvatarURL: "/avatars/vince.png", Persona: []byte(`{"bio":"You've probably never heard the pressing he has."}`)},
	}
	for i := range seeds {
		if err := repos.Subject.Upsert(ctx, &seeds[i]); err != nil {
			return err
		}
	}
	return nil
}
