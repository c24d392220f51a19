package services

import (
	"context"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/rs/zerolog/log"
)

// GroupDirectory keeps recently fetched groups around so opening a group page
// twice does not hit the network twice. A nil directory caches nothing.
type GroupDirectory struct {
	marshal *marshaler.Marshaler
	ttl     time.Duration
}

func NewGroupDirectory(source store.StoreInterface, ttl time.Duration) *GroupDirectory {
	return &GroupDirectory{
		marshal: marshaler.New(cache.New[any](source)),
		ttl:     ttl,
	}
}

func groupCacheKey(id string) string {
	return fmt.Sprintf("group#%s", id)
}

func (d *GroupDirectory) Get(ctx context.Context, id string) (models.Group, bool) {
	if d == nil {
		return models.Group{}, false
	}
	cached, err := d.marshal.Get(ctx, groupCacheKey(id), new(models.Group))
	if err != nil {
		return models.Group{}, false
	}
	group, ok := cached.(*models.Group)
	if !ok || group.ID != id {
		return models.Group{}, false
	}
	return group.Clone(), true
}

func (d *GroupDirectory) Put(ctx context.Context, group models.Group) {
	if d == nil || len(group.ID) == 0 {
		return
	}
	if err := d.marshal.Set(
		ctx,
		groupCacheKey(group.ID),
		group,
		store.WithExpiration(d.ttl),
		store.WithCost(1),
	); err != nil {
		log.Warn().Err(err).Str("group", group.ID).Msg("Unable to cache group...")
	}
}

func (d *GroupDirectory) Invalidate(ctx context.Context, id string) {
	if d == nil {
		return
	}
	_ = d.marshal.Delete(ctx, groupCacheKey(id))
}
