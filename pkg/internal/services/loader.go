package services

import (
	"context"
	"errors"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Feed is the view a screen renders: visible posts only, filtered and sorted.
// It never touches the network.
func (c *Coordinator) Feed(options FeedOptions) []models.Post {
	visible := VisiblePosts(c.Posts.Posts(), c.Viewer, c.Groups.Lookup())
	return FilterAndSort(visible, options)
}

// GroupFeed is Feed narrowed to the posts of one group.
func (c *Coordinator) GroupFeed(groupID string, options FeedOptions) []models.Post {
	posts := lo.Filter(c.Feed(options), func(item models.Post, _ int) bool {
		return item.GroupID == groupID
	})
	return posts
}

// RefreshFeed reloads recipes and groups from the server, rebuilds the boards
// and returns the new view. It is the only place local state is replaced
// wholesale. Member groups whose recipes fail to load are left out of the
// feed and come back joined in the error, see IsPartialRefresh.
func (c *Coordinator) RefreshFeed(ctx context.Context, options FeedOptions) ([]models.Post, error) {
	data, err := c.fetch(func() (gateway.Result, error) {
		return c.Gateway.ListRecipes(ctx, gateway.RecipeQuery{})
	})
	if err != nil {
		return nil, err
	}
	personal := NormalizePosts(data)

	data, err = c.fetch(func() (gateway.Result, error) {
		return c.Gateway.ListGroups(ctx)
	})
	if err != nil {
		return nil, err
	}
	groups := NormalizeGroups(data)

	var sources []GroupFeedSource
	var failures []error
	for _, group := range groups {
		c.Directory.Put(ctx, group)
		if !ViewerIsMember(&group, c.Viewer) {
			continue
		}
		posts, err := c.groupPosts(ctx, group.ID)
		if err != nil {
			log.Warn().Err(err).Str("group", group.ID).Msg("Unable to load group recipes, skipping...")
			failures = append(failures, c.report(&SourceFailure{GroupID: group.ID, Err: err}))
			continue
		}
		sources = append(sources, GroupFeedSource{Group: group, Posts: posts})
	}

	c.Groups.Replace(groups)
	c.Posts.Replace(ComposeFeed(personal, sources))

	log.Debug().
		Int("posts", c.Posts.Len()).
		Int("groups", len(groups)).
		Int("sources", len(sources)).
		Int("failures", len(failures)).
		Msg("Feed refreshed.")

	return c.Feed(options), errors.Join(failures...)
}

func (c *Coordinator) groupPosts(ctx context.Context, groupID string) ([]models.Post, error) {
	result, err := c.Gateway.ListRecipes(ctx, gateway.RecipeQuery{GroupID: groupID})
	if err = settle(result, err); err != nil {
		return nil, err
	}
	return NormalizePosts(result.Data), nil
}

// LoadGroup returns the group from the board, then the directory, and only
// then asks the server.
func (c *Coordinator) LoadGroup(ctx context.Context, groupID string) (models.Group, error) {
	if group, ok := c.Groups.Get(groupID); ok {
		return group, nil
	}
	if group, ok := c.Directory.Get(ctx, groupID); ok {
		c.Groups.Put(group)
		return group, nil
	}
	return c.fetchGroup(ctx, groupID)
}

func (c *Coordinator) fetchGroup(ctx context.Context, groupID string) (models.Group, error) {
	data, err := c.fetch(func() (gateway.Result, error) {
		return c.Gateway.GetGroup(ctx, groupID)
	})
	if err != nil {
		return models.Group{}, err
	}
	group, ok := GroupFromResponse(data)
	if !ok {
		return models.Group{}, c.report(notFound("group", groupID))
	}
	c.Groups.Put(group)
	c.Directory.Put(ctx, group)
	return group, nil
}

// RefreshGroup reloads the recipes of one group, replacing only that group's
// posts on the board. The group itself comes from the directory while its
// entry is fresh, every group mutation drops the entry.
func (c *Coordinator) RefreshGroup(ctx context.Context, groupID string) (models.Group, []models.Post, error) {
	group, ok := c.Directory.Get(ctx, groupID)
	if ok {
		c.Groups.Put(group)
	} else {
		var err error
		if group, err = c.fetchGroup(ctx, groupID); err != nil {
			return models.Group{}, nil, err
		}
	}

	posts, err := c.groupPosts(ctx, groupID)
	if err != nil {
		return group, nil, c.report(err)
	}
	fresh := ComposeFeed(nil, []GroupFeedSource{{Group: group, Posts: posts}})
	others := lo.Reject(c.Posts.Posts(), func(item models.Post, _ int) bool {
		return item.GroupID == groupID
	})
	c.Posts.Replace(append(others, fresh...))

	return group, c.GroupFeed(groupID, FeedOptions{}), nil
}
