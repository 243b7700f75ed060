package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/devure/internal/content"
	"github.com/MrSnakeDoc/devure/internal/domain"
	"github.com/MrSnakeDoc/devure/internal/logger"
	objmemory "github.com/MrSnakeDoc/devure/internal/objectstore/memory"
	"github.com/MrSnakeDoc/devure/internal/store/memory"
)

// newServices builds one service per kind over a shared in-memory object
// store whose clock is fixed at now.
func newServices(now time.Time) (map[domain.Kind]*content.Service, *objmemory.Store) {
	objects := objmemory.New("content", "eu-west-3", "https://cdn.example.com")
	objects.SetClock(func() time.Time { return now })

	layout := map[domain.Kind][2]string{
		domain.KindBlog:    {"mdx", "mdx"},
		domain.KindProject: {"projects", "html"},
		domain.KindService: {"services", "html"},
	}

	services := make(map[domain.Kind]*content.Service, len(layout))
	for kind, l := range layout {
		services[kind] = content.NewService(content.Options{
			Kind:    kind,
			Prefix:  l[0],
			Ext:     l[1],
			Repo:    memory.NewRepository(kind),
			Objects: objects,
			Logger:  logger.Nop(),
			Now:     func() time.Time { return now },
		})
	}
	return services, objects
}

func background() context.Context { return context.Background() }
