package services

import (
	"context"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

func IsLikedBy(post models.Post, viewer models.Viewer) bool {
	return lo.ContainsBy(post.LikerIDs, viewer.Is)
}

// ToggleLike likes the post when the viewer has not liked it yet, otherwise
// unlikes it. It reports whether the post ends up liked locally.
func (c *Coordinator) ToggleLike(ctx context.Context, postID string) (bool, error) {
	if err := c.requireViewer("like a recipe"); err != nil {
		return false, err
	}

	var liked bool
	err := perform(ctx, c, mutation[[]string]{
		key: flightKey("likes", postID),
		capture: func() ([]string, error) {
			post, err := c.post(postID)
			if err != nil {
				return nil, err
			}
			liked = IsLikedBy(post, c.Viewer)
			return post.LikerIDs, nil
		},
		apply: func(_ []string) {
			c.Posts.Update(postID, func(post *models.Post) {
				if liked {
					post.LikerIDs = lo.Reject(post.LikerIDs, func(item string, _ int) bool {
						return c.Viewer.Is(item)
					})
				} else {
					post.LikerIDs = append(models.CloneLikers(post.LikerIDs), c.Viewer.ID)
				}
			})
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			if liked {
				return c.Gateway.UnlikeRecipe(ctx, postID)
			}
			return c.Gateway.LikeRecipe(ctx, postID)
		},
		reconcile: func(data jsoniter.RawMessage) {
			if likes, ok := LikesFromResponse(data); ok {
				c.Posts.Update(postID, func(post *models.Post) {
					post.LikerIDs = likes
				})
			}
		},
		rollback: func(snapshot []string) {
			c.Posts.Update(postID, func(post *models.Post) {
				post.LikerIDs = snapshot
			})
		},
	})
	if err != nil {
		return liked, err
	}

	post, ok := c.Posts.Get(postID)
	if !ok {
		return !liked, nil
	}
	return IsLikedBy(post, c.Viewer), nil
}
