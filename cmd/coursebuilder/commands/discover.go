package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/coursebuilder/internal/build"
	"git.home.luguber.info/inful/coursebuilder/internal/course"
)

// DiscoverCmd implements the 'discover' command: sync repositories (when
// configured), list the lessons that would make up the course, and stop.
type DiscoverCmd struct {
	Repository string `short:"r" help:"Limit discovery to one configured repository"`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	if d.Repository != "" {
		found := false
		for i := range cfg.Repositories {
			if cfg.Repositories[i].Name == d.Repository {
				cfg.Repositories = cfg.Repositories[i : i+1]
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("repository %q not found in configuration", d.Repository)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting lesson discovery",
		slog.Int("repositories", len(cfg.Repositories)))

	result, err := build.NewService().Run(ctx, build.Request{
		Config:  cfg,
		Options: build.Options{DiscoverOnly: true},
	})
	if err != nil {
		return err
	}

	printDiscovered(result.CourseLessons)
	return nil
}

func printDiscovered(lessons []course.Lesson) {
	byRepo := make(map[string][]course.Lesson)
	var repoOrder []string
	for i := range lessons {
		repo := lessons[i].File.Repository
		if repo == "" {
			repo = "local"
		}
		if _, seen := byRepo[repo]; !seen {
			repoOrder = append(repoOrder, repo)
		}
		byRepo[repo] = append(byRepo[repo], lessons[i])
	}

	fmt.Printf("Discovered %d lessons\n", len(lessons))
	for _, repo := range repoOrder {
		fmt.Printf("\n%s (%d lessons):\n", repo, len(byRepo[repo]))
		for i := range byRepo[repo] {
			lesson := &byRepo[repo][i]
			fmt.Printf("  %3d  %-40s %s\n",
				lesson.Position, lesson.File.Slug(), lesson.EffectiveTitle())
		}
	}
}
