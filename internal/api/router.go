package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/roastlab/roast-arena/internal/api/handlers"
	"github.com/roastlab/roast-arena/internal/api/middleware"
	"github.com/roastlab/roast-arena/internal/realtime"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/roastlab/roast-arena/internal/service"
	"github.com/sirupsen/logrus"
)

func NewRouter(services *service.Services, hub *realtime.Hub, repos *repository.Repositories, mediaDir string, log *logrus.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	submissionHandler := handlers.NewSubmissionHandler(services.Submission)
	roundHandler := handlers.NewRoundHandler(services.Lifecycle, services.Completion, repos)
	archiveHandler := handlers.NewArchiveHandler(services.Archive)
	subjectHandler := handlers.NewSubjectHandler(repos.Subject)
	wsHandler := handlers.NewWebSocketHandler(hub, log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/roasts", submissionHandler.Submit)

		r.Route("/round", func(r chi.Router) {
			r.Get("/", roundHandler.Get)
			r.Post("/tick", roundHandler.Tick)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{id}", roundHandler.GetSession)
			r.Post("/{id}/complete", roundHandler.Complete)
		})

		r.Route("/archive", func(r chi.Router) {
			r.Get("/", archiveHandler.List)
			r.Get("/{id}", archiveHandler.Replay)
		})

		r.Get("/subjects", subjectHandler.GetAll)

		r.Get("/ws", wsHandler.Handle)
	})

	// Synthesized and submitted audio clips.
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir)))
	r.Get("/media/*", fileServer.ServeHTTP)

	return r
}
