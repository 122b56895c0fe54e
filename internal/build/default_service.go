package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/coursebuilder/internal/bundle"
	"git.home.luguber.info/inful/coursebuilder/internal/config"
	"git.home.luguber.info/inful/coursebuilder/internal/course"
	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/git"
	"git.home.luguber.info/inful/coursebuilder/internal/lint"
	"git.home.luguber.info/inful/coursebuilder/internal/logfields"
	"git.home.luguber.info/inful/coursebuilder/internal/manifest"
	"git.home.luguber.info/inful/coursebuilder/internal/metrics"
	"git.home.luguber.info/inful/coursebuilder/internal/quiz"
	"git.home.luguber.info/inful/coursebuilder/internal/workspace"
)

// DefaultService is the standard implementation of Service. It orchestrates
// the full pipeline: workspace → repo sync → discovery → lint → extraction →
// manifest → bundle.
type DefaultService struct {
	gitClientFactory func(workspaceDir string) *git.Client
	recorder         metrics.Recorder
}

// NewService creates a DefaultService with default factories.
func NewService() *DefaultService {
	return &DefaultService{
		gitClientFactory: func(dir string) *git.Client {
			return git.NewClient(dir)
		},
		recorder: metrics.NoopRecorder{},
	}
}

// WithGitClientFactory injects a custom git client factory (for testing).
func (s *DefaultService) WithGitClientFactory(f func(workspaceDir string) *git.Client) *DefaultService {
	s.gitClientFactory = f
	return s
}

// WithRecorder injects a metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Run executes the complete validation pipeline.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	result := &Result{
		RunID:          req.RunID,
		StartTime:      start,
		StageDurations: make(map[string]time.Duration),
	}
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}

	if req.Config == nil {
		return s.fail(result, "config", ferrors.ConfigError("config required").Build())
	}
	cfg := req.Config

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Directory
	}
	if outputDir == "" {
		outputDir = "./bundle"
	}

	// Stage: sync. Local content mode needs no workspace at all.
	repoPaths, err := s.syncRepositories(ctx, cfg, req.RepoCacheDir, result)
	if err != nil {
		return s.fail(result, "sync", err)
	}

	// Stage: discover.
	stageStart := time.Now()
	files, err := s.discoverLessons(cfg, repoPaths)
	if err != nil {
		return s.fail(result, "discover", err)
	}
	result.StageDurations["discover"] = time.Since(stageStart)
	s.recorder.ObserveStageDuration("discover", result.StageDurations["discover"])
	s.recorder.IncStageResult("discover", metrics.ResultSuccess)

	if len(files) == 0 {
		slog.Warn("No lessons found", logfields.Course(cfg.Course.Name))
	}

	// Stage: load. Parse frontmatter and order the course.
	stageStart = time.Now()
	lessons, err := course.LoadLessons(files)
	if err != nil {
		return s.fail(result, "load", err)
	}
	course.OrderLessons(lessons)
	result.CourseLessons = lessons
	result.StageDurations["load"] = time.Since(stageStart)
	s.recorder.ObserveStageDuration("load", result.StageDurations["load"])
	s.recorder.SetLessonCount(len(lessons))

	if req.Options.DiscoverOnly {
		result.Status = StatusSuccess
		return s.finish(result)
	}

	contentHash, err := course.ComputeContentHash(files)
	if err != nil {
		return s.fail(result, "load", err)
	}
	configHash := ConfigHash(cfg)

	if req.Options.SkipIfUnchanged && !req.Options.LintOnly {
		if prev := readPreviousManifest(outputDir); prev != nil &&
			prev.Inputs.ContentHash == contentHash && prev.Inputs.ConfigHash == configHash {
			slog.Info("Content unchanged, skipping run",
				logfields.RunID(result.RunID),
				slog.String("content_hash", contentHash))
			result.Status = StatusSkipped
			result.Skipped = true
			result.SkipReason = "no_changes"
			return s.finish(result)
		}
	}

	// Stage: lint.
	stageStart = time.Now()
	lintResult, err := s.lintLessons(cfg, files)
	if err != nil {
		return s.fail(result, "lint", err)
	}
	result.LintResult = lintResult
	result.StageDurations["lint"] = time.Since(stageStart)
	s.recorder.ObserveStageDuration("lint", result.StageDurations["lint"])
	s.recordRuleIssues(lintResult)

	// Stage: extract. Quiz records per lesson; also feeds the manifest.
	stageStart = time.Now()
	lessonQuizzes, reports, entries, err := s.extractLessons(cfg, lessons, lintResult)
	if err != nil {
		return s.fail(result, "extract", err)
	}
	result.Lessons = reports
	result.StageDurations["extract"] = time.Since(stageStart)
	s.recorder.ObserveStageDuration("extract", result.StageDurations["extract"])

	if lintResult.HasErrors() {
		s.recorder.IncStageResult("lint", metrics.ResultFatal)
		return s.fail(result, "lint", ferrors.ContentError("lint found errors").
			WithContext("errors", fmt.Sprintf("%d", lintResult.ErrorCount())).
			WithContext("warnings", fmt.Sprintf("%d", lintResult.WarningCount())).
			WithContext("action", "fix reported lint errors, or run with --fix").
			UserAction().
			Build())
	}
	s.recorder.IncStageResult("lint", metrics.ResultSuccess)

	m := &manifest.CourseManifest{
		ID:        result.RunID,
		Course:    cfg.Course.Name,
		Timestamp: time.Now().UTC(),
		Inputs: manifest.Inputs{
			Repos:       manifestRepos(result.Repos),
			ConfigHash:  configHash,
			ContentHash: contentHash,
		},
		Lessons: entries,
		Status:  manifest.StatusSuccess,
	}
	m.ComputeTotals()
	for id, slugs := range m.DuplicateQuizIDs() {
		slog.Warn("Quiz id used by multiple lessons",
			logfields.QuizID(id),
			slog.Any("lessons", slugs))
	}
	result.Manifest = m

	if result.ManifestHash, err = m.Hash(); err != nil {
		return s.fail(result, "manifest", err)
	}

	if req.Options.LintOnly {
		result.Status = StatusSuccess
		return s.finish(result)
	}

	// Stage: bundle.
	stageStart = time.Now()
	outCfg := cfg.Output
	outCfg.Directory = outputDir
	m.Duration = time.Since(start).Milliseconds()
	bundleResult, err := bundle.NewWriter(outCfg).Write(m, lessonQuizzes)
	if err != nil {
		s.recorder.IncStageResult("bundle", metrics.ResultFatal)
		return s.fail(result, "bundle", err)
	}
	result.Bundle = bundleResult
	result.StageDurations["bundle"] = time.Since(stageStart)
	s.recorder.ObserveStageDuration("bundle", result.StageDurations["bundle"])
	s.recorder.IncStageResult("bundle", metrics.ResultSuccess)

	result.Status = StatusSuccess
	return s.finish(result)
}

func (s *DefaultService) finish(result *Result) (*Result, error) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveRunDuration(result.Duration)
	switch result.Status {
	case StatusSkipped:
		s.recorder.IncRunOutcome("skipped")
	default:
		s.recorder.IncRunOutcome("success")
	}
	return result, nil
}

func (s *DefaultService) fail(result *Result, stage string, err error) (*Result, error) {
	result.Status = StatusFailed
	result.Stage = stage
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveRunDuration(result.Duration)
	s.recorder.IncRunOutcome("failed")
	return result, err
}

// syncRepositories clones or updates all configured repositories into the
// repo cache (or a throwaway workspace) and returns name → checkout path.
// Individual repo failures are recorded but do not abort the run as long as
// at least one repository synced.
func (s *DefaultService) syncRepositories(ctx context.Context, cfg *config.Config, cacheDir string, result *Result) (map[string]string, error) {
	if len(cfg.Repositories) == 0 {
		return nil, nil
	}

	stageStart := time.Now()

	var ws *workspace.Manager
	if cacheDir != "" {
		ws = workspace.NewPersistentManager(cacheDir, "repositories")
	} else {
		ws = workspace.NewManager("")
	}
	if err := ws.Create(); err != nil {
		s.recorder.IncStageResult("sync", metrics.ResultFatal)
		return nil, ferrors.FileSystemError("failed to create sync workspace").WithCause(err).Build()
	}
	if cacheDir == "" {
		defer func() {
			if err := ws.Cleanup(); err != nil {
				slog.Warn("Failed to clean up sync workspace", logfields.Error(err))
			}
		}()
	}

	client := s.gitClientFactory(ws.GetPath())
	if cfg.Daemon != nil {
		client = client.WithSyncConfig(&cfg.Daemon.Sync)
	}

	repoPaths := make(map[string]string, len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		select {
		case <-ctx.Done():
			s.recorder.IncStageResult("sync", metrics.ResultCanceled)
			result.Status = StatusCancelled
			return nil, ctx.Err()
		default:
		}

		repoStart := time.Now()
		sync := RepoSync{Name: repo.Name, URL: repo.URL, Branch: repo.Branch}

		path, err := client.UpdateRepository(repo)
		sync.Duration = time.Since(repoStart)
		if err != nil {
			sync.Err = err
			slog.Error("Failed to sync repository",
				logfields.Repository(repo.Name),
				logfields.Error(err))
			s.recorder.ObserveSyncRepoDuration(repo.Name, sync.Duration, false)
			s.recorder.IncSyncRepoResult(false)
			result.Repos = append(result.Repos, sync)
			continue
		}

		sync.Path = path
		if head, herr := git.ReadRepoHead(path); herr == nil {
			sync.Commit = head
		}
		s.recorder.ObserveSyncRepoDuration(repo.Name, sync.Duration, true)
		s.recorder.IncSyncRepoResult(true)
		repoPaths[repo.Name] = path
		result.Repos = append(result.Repos, sync)

		slog.Info("Repository synced",
			logfields.Repository(repo.Name),
			logfields.Path(path),
			slog.String("commit", sync.Commit))
	}

	result.StageDurations["sync"] = time.Since(stageStart)
	s.recorder.ObserveStageDuration("sync", result.StageDurations["sync"])

	if len(repoPaths) == 0 {
		s.recorder.IncStageResult("sync", metrics.ResultFatal)
		return nil, ferrors.GitError("all repositories failed to sync").
			WithContext("repositories", fmt.Sprintf("%d", len(cfg.Repositories))).
			Build()
	}
	s.recorder.IncStageResult("sync", metrics.ResultSuccess)
	return repoPaths, nil
}

func (s *DefaultService) discoverLessons(cfg *config.Config, repoPaths map[string]string) ([]course.LessonFile, error) {
	if len(repoPaths) > 0 {
		return course.NewDiscovery(cfg.Repositories).DiscoverLessons(repoPaths)
	}
	if cfg.Course.ContentDir == "" {
		return nil, ferrors.ConfigError("no repositories configured and course.content_dir is empty").
			WithContext("action", "set course.content_dir or configure repositories").
			UserAction().
			Build()
	}
	return course.NewDiscovery(nil).DiscoverPath(cfg.Course.ContentDir)
}

func (s *DefaultService) lintLessons(cfg *config.Config, files []course.LessonFile) (*lint.Result, error) {
	paths := make([]string, len(files))
	for i := range files {
		paths[i] = files[i].Path
	}
	linter := lint.NewLinter(&lint.Config{
		DefaultPoints:  cfg.Lint.EffectiveDefaultPoints(),
		ExtraLanguages: cfg.Lint.ExtraLanguages,
		Severity:       cfg.Lint.Severity,
	})
	return linter.LintFiles(paths)
}

func (s *DefaultService) recordRuleIssues(result *lint.Result) {
	counts := make(map[[2]string]int)
	for _, issue := range result.Issues {
		counts[[2]string{issue.Rule, issue.Severity.String()}]++
	}
	for key, n := range counts {
		s.recorder.AddRuleIssues(key[0], key[1], n)
	}
}

// extractLessons parses quizzes out of every lesson, producing the bundle
// payload, the per-lesson reports, and the manifest lesson entries in course
// order.
func (s *DefaultService) extractLessons(cfg *config.Config, lessons []course.Lesson, lintResult *lint.Result) ([]bundle.LessonQuizzes, []LessonReport, []manifest.LessonEntry, error) {
	issuesByPath := make(map[string][2]int) // path → {errors, warnings}
	for _, issue := range lintResult.Issues {
		c := issuesByPath[issue.FilePath]
		switch issue.Severity {
		case lint.SeverityError:
			c[0]++
		case lint.SeverityWarning:
			c[1]++
		}
		issuesByPath[issue.FilePath] = c
	}

	defaultPoints := cfg.Lint.EffectiveDefaultPoints()

	payload := make([]bundle.LessonQuizzes, 0, len(lessons))
	reports := make([]LessonReport, 0, len(lessons))
	entries := make([]manifest.LessonEntry, 0, len(lessons))

	for i := range lessons {
		lesson := &lessons[i]
		doc, err := quiz.ParseLesson(lesson.Doc)
		if err != nil {
			return nil, nil, nil, ferrors.ContentError("failed to parse lesson quizzes").
				WithCause(err).
				WithContext("lesson", lesson.File.Path).
				Build()
		}

		records := quiz.Records(doc)
		slug := lesson.File.Slug()

		summaries := make([]manifest.QuizSummary, 0, len(records))
		for _, rec := range records {
			points := rec.Points
			if points == 0 {
				points = defaultPoints
			}
			summaries = append(summaries, manifest.QuizSummary{
				ID:     rec.ID,
				Class:  rec.Class,
				Points: points,
			})
		}

		payload = append(payload, bundle.LessonQuizzes{Slug: slug, Records: records})

		counts := issuesByPath[lesson.File.Path]
		reports = append(reports, LessonReport{
			Slug:         slug,
			Path:         lesson.File.RelativePath,
			Repository:   lesson.File.Repository,
			QuizCount:    len(records),
			ErrorCount:   counts[0],
			WarningCount: counts[1],
		})

		entries = append(entries, manifest.LessonEntry{
			Slug:        slug,
			Path:        lesson.File.RelativePath,
			Repository:  lesson.File.Repository,
			Title:       lesson.EffectiveTitle(),
			UID:         lesson.UID,
			Position:    lesson.Position,
			ContentHash: lesson.File.ContentHash(),
			Quizzes:     summaries,
		})
	}

	return payload, reports, entries, nil
}

func manifestRepos(repos []RepoSync) []manifest.RepoInput {
	out := make([]manifest.RepoInput, 0, len(repos))
	for _, r := range repos {
		if r.Err != nil {
			continue
		}
		out = append(out, manifest.RepoInput{
			Name:   r.Name,
			URL:    r.URL,
			Branch: r.Branch,
			Commit: r.Commit,
		})
	}
	return out
}

// readPreviousManifest loads the manifest from an existing bundle directory.
// Any failure (missing bundle, unreadable or corrupt manifest) just means no
// skip is possible.
func readPreviousManifest(outputDir string) *manifest.CourseManifest {
	data, err := os.ReadFile(filepath.Join(outputDir, "manifest.json"))
	if err != nil {
		return nil
	}
	m, err := manifest.FromJSON(data)
	if err != nil {
		return nil
	}
	return m
}
