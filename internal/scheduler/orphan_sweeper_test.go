package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/logger"
)

func sweepTargets(services map[domain.Kind]*content.Service) []*content.Service {
	out := make([]*content.Service, 0, len(services))
	for _, k := range domain.Kinds {
		out = append(out, services[k])
	}
	return out
}

func TestOrphanSweeper_Sweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	services, objects := newServices(now)
	ctx := background()

	// a live blog with its body
	if _, err := services[domain.KindBlog].Create(ctx, content.CreateInput{
		Frontmatter: domain.Frontmatter{Title: "Kept"},
		Content:     "body",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// old orphan, fresh orphan, and a key outside the naming scheme
	objects.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })
	for _, key := range []string{"mdx/old-orphan.mdx", "mdx/nested/dir.mdx", "projects/gone.html"} {
		if _, err := objects.Put(ctx, key, []byte("x"), "text/plain", nil); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	objects.SetClock(func() time.Time { return now.Add(-time.Hour) })
	if _, err := objects.Put(ctx, "mdx/in-flight.mdx", []byte("x"), "text/plain", nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	sweeper := NewOrphanSweeper(sweepTargets(services), nil, logger.New("error", false), time.Hour, 24*time.Hour, false)
	sweeper.now = func() time.Time { return now }

	report, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if report.Count() != 2 {
		t.Errorf("Expected 2 orphans swept, got %d (%v)", report.Count(), report.Orphans)
	}
	if objects.Exists(ctx, "mdx/old-orphan.mdx") {
		t.Error("Old blog orphan was not removed")
	}
	if objects.Exists(ctx, "projects/gone.html") {
		t.Error("Old project orphan was not removed")
	}
	if !objects.Exists(ctx, "mdx/in-flight.mdx") {
		t.Error("Blob younger than the grace period was incorrectly removed")
	}
	if !objects.Exists(ctx, "mdx/kept.mdx") {
		t.Error("Blob with a record was incorrectly removed")
	}
	if !objects.Exists(ctx, "mdx/nested/dir.mdx") {
		t.Error("Key outside the naming scheme was incorrectly removed")
	}
}

func TestOrphanSweeper_DryRun(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	services, objects := newServices(now)
	ctx := background()

	objects.SetClock(func() time.Time { return now.Add(-72 * time.Hour) })
	if _, err := objects.Put(ctx, "services/old.html", []byte("x"), "text/html", nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	sweeper := NewOrphanSweeper(sweepTargets(services), nil, logger.New("error", false), 0, 0, true)
	sweeper.now = func() time.Time { return now }

	report, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if !report.DryRun || report.Count() != 1 {
		t.Errorf("report = %+v, want one orphan in dry-run", report)
	}
	if !objects.Exists(ctx, "services/old.html") {
		t.Error("Dry run deleted a blob")
	}
}

func TestOrphanSweeper_ListFailureContinues(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	services, objects := newServices(now)
	objects.FailOn("list", errListDown)

	sweeper := NewOrphanSweeper(sweepTargets(services), nil, logger.New("error", false), 0, 0, false)
	report, err := sweeper.Sweep(background())
	if err == nil {
		t.Error("Sweep should report the list failure")
	}
	if report == nil || report.Count() != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestOrphanSweeper_StartDisabled(t *testing.T) {
	services, objects := newServices(time.Now())
	sweeper := NewOrphanSweeper(sweepTargets(services), nil, logger.New("error", false), 0, 0, false)

	if err := sweeper.Start(background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if objects.Calls("list") != 0 {
		t.Error("Disabled sweeper listed objects")
	}
}

var errListDown = errors.New("list unavailable")
