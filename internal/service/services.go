package service

import (
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/config"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Lifecycle  *LifecycleService
	Completion *CompletionService
	Submission *SubmissionService
	Archive    *ArchiveService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log *logrus.Logger, transcriber *collab.Transcriber, audioStore *collab.AudioStore) *Services {
	return &Services{
		Lifecycle:  NewLifecycleService(repos, cfg, log),
		Completion: NewCompletionService(repos, cfg, log),
		Submission: NewSubmissionService(repos, transcriber, audioStore, log),
		Archive:    NewArchiveService(repos),
	}
}
