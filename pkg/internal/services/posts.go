package services

import (
	"context"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// mergeServerPost takes the server's version of a post but keeps the
// provenance and moderation state the client decided when the server is silent
// about them.
func mergeServerPost(local models.Post, server models.Post, raw []byte) models.Post {
	if !HasModerationField(raw) {
		server.ModerationState = local.ModerationState
	}
	if !server.IsGroupPost() && local.IsGroupPost() {
		server.Source = local.Source
		server.GroupID = local.GroupID
		server.GroupName = local.GroupName
	}
	if server.IsGroupPost() && len(server.GroupName) == 0 {
		server.GroupName = local.GroupName
	}
	return server
}

// copyRecipeFields overwrites only what the author can edit. Likes and
// comments have their own actions.
func copyRecipeFields(dst *models.Post, src models.Post) {
	dst.Title = src.Title
	dst.Description = src.Description
	dst.Ingredients = src.Ingredients
	dst.Instructions = src.Instructions
	dst.Image = src.Image
	dst.Category = src.Category
	dst.MeatType = src.MeatType
	dst.PrepTimeMinutes = src.PrepTimeMinutes
	dst.Servings = src.Servings
}

func (c *Coordinator) CanComposeIn(groupID string) bool {
	group, ok := c.Groups.Get(groupID)
	return ok && ViewerCanCompose(&group, c.Viewer)
}

// CreatePost shows the new recipe immediately under a provisional id and swaps
// in the server's record once it is accepted.
func (c *Coordinator) CreatePost(ctx context.Context, draft models.PostDraft) (models.Post, error) {
	if err := c.requireViewer("post a recipe"); err != nil {
		return models.Post{}, err
	}
	form := RecipeFormFromDraft(draft)
	if err := BindAndValidate(&form); err != nil {
		return models.Post{}, c.report(err)
	}
	draft.Title = form.Title
	draft.Description = form.Description
	draft.Ingredients = form.Ingredients
	draft.Instructions = form.Instructions

	post := models.Post{
		ID:              provisionalID(),
		AuthorID:        c.Viewer.ID,
		AuthorName:      c.Viewer.DisplayName(),
		AuthorAvatar:    c.Viewer.Avatar,
		Title:           draft.Title,
		Description:     draft.Description,
		Ingredients:     draft.Ingredients,
		Instructions:    draft.Instructions,
		Image:           draft.Image,
		Category:        draft.Category,
		MeatType:        draft.MeatType,
		PrepTimeMinutes: draft.PrepTimeMinutes,
		Servings:        draft.Servings,
		LikerIDs:        []string{},
		Comments:        []models.Comment{},
		Source:          models.PostSourcePersonal,
		ModerationState: models.ModerationVisible,
		CreatedAt:       now().UTC(),
	}

	if len(draft.GroupID) > 0 {
		group, err := c.group(draft.GroupID)
		if err != nil {
			return models.Post{}, c.report(err)
		}
		if !ViewerCanCompose(&group, c.Viewer) {
			reason := lo.Ternary(ViewerIsMember(&group, c.Viewer), "member posts are turned off in this group", "only members can post in this group")
			return models.Post{}, c.report(denied("post in this group", reason))
		}
		post.Source = models.PostSourceGroup
		post.GroupID = group.ID
		post.GroupName = group.Name
		post.ModerationState = InitialModerationState(&group)
		draft.ModerationState = post.ModerationState
	}

	provisional := post.ID
	err := perform(ctx, c, mutation[struct{}]{
		key: flightKey("compose", lo.CoalesceOrEmpty(draft.GroupID, models.PostSourcePersonal)),
		capture: func() (struct{}, error) {
			return struct{}{}, nil
		},
		apply: func(_ struct{}) {
			c.Posts.Insert(0, post)
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.CreateRecipe(ctx, draft)
		},
		reconcile: func(data jsoniter.RawMessage) {
			server, ok := PostFromResponse(data)
			if !ok {
				return
			}
			server = mergeServerPost(post, server, data)
			c.Posts.Update(provisional, func(item *models.Post) {
				*item = server
			})
			post = server
		},
		rollback: func(_ struct{}) {
			c.Posts.Remove(provisional)
		},
	})
	if err != nil {
		return models.Post{}, err
	}

	log.Debug().Str("post", post.ID).Str("moderation", post.ModerationState).Msg("Recipe posted.")
	return post, nil
}

func (c *Coordinator) UpdatePost(ctx context.Context, postID string, draft models.PostDraft) (models.Post, error) {
	post, err := c.post(postID)
	if err != nil {
		return models.Post{}, c.report(err)
	}
	if !c.Viewer.Is(post.AuthorID) {
		return models.Post{}, c.report(denied("edit this recipe", "only its author can"))
	}
	form := RecipeFormFromDraft(draft)
	if err := BindAndValidate(&form); err != nil {
		return models.Post{}, c.report(err)
	}

	patch := map[string]any{
		"title":           form.Title,
		"description":     form.Description,
		"ingredients":     form.Ingredients,
		"instructions":    form.Instructions,
		"category":        form.Category,
		"meatType":        form.MeatType,
		"prepTimeMinutes": form.PrepTimeMinutes,
		"servings":        form.Servings,
	}
	if len(draft.Image) > 0 {
		patch["image"] = draft.Image
	}

	err = perform(ctx, c, mutation[models.Post]{
		key: flightKey("post", postID),
		capture: func() (models.Post, error) {
			return c.post(postID)
		},
		apply: func(snapshot models.Post) {
			edited := snapshot
			edited.Title = form.Title
			edited.Description = form.Description
			edited.Ingredients = form.Ingredients
			edited.Instructions = form.Instructions
			edited.Category = form.Category
			edited.MeatType = form.MeatType
			edited.PrepTimeMinutes = form.PrepTimeMinutes
			edited.Servings = form.Servings
			if len(draft.Image) > 0 {
				edited.Image = draft.Image
			}
			c.Posts.Update(postID, func(item *models.Post) {
				copyRecipeFields(item, edited)
			})
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.UpdateRecipe(ctx, postID, patch)
		},
		reconcile: func(data jsoniter.RawMessage) {
			server, ok := PostFromResponse(data)
			if !ok {
				return
			}
			// Likes and comments may have their own requests in flight.
			c.Posts.Update(postID, func(item *models.Post) {
				merged := mergeServerPost(*item, server, data)
				copyRecipeFields(item, merged)
				item.ModerationState = merged.ModerationState
				item.Source = merged.Source
				item.GroupID = merged.GroupID
				item.GroupName = merged.GroupName
			})
		},
		rollback: func(snapshot models.Post) {
			c.Posts.Update(postID, func(item *models.Post) {
				copyRecipeFields(item, snapshot)
			})
		},
	})
	if err != nil {
		return models.Post{}, err
	}
	updated, _ := c.Posts.Get(postID)
	return updated, nil
}

func (c *Coordinator) CanDeletePost(post models.Post) bool {
	if c.Viewer.Is(post.AuthorID) {
		return true
	}
	if !post.IsGroupPost() {
		return false
	}
	group, ok := c.Groups.Get(post.GroupID)
	return ok && ViewerCanModerate(&group, c.Viewer)
}

type removedPost struct {
	post  models.Post
	index int
}

func (c *Coordinator) DeletePost(ctx context.Context, postID string) error {
	post, err := c.post(postID)
	if err != nil {
		return c.report(err)
	}
	if !c.CanDeletePost(post) {
		return c.report(denied("delete this recipe", "only its author or a group moderator can"))
	}
	return c.removePost(ctx, postID)
}

func (c *Coordinator) removePost(ctx context.Context, postID string) error {
	return perform(ctx, c, mutation[removedPost]{
		key: flightKey("post", postID),
		capture: func() (removedPost, error) {
			post, index, ok := c.Posts.Locate(postID)
			if !ok {
				return removedPost{}, notFound("post", postID)
			}
			return removedPost{post: post, index: index}, nil
		},
		apply: func(_ removedPost) {
			c.Posts.Remove(postID)
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.DeleteRecipe(ctx, postID)
		},
		rollback: func(snapshot removedPost) {
			c.Posts.Insert(snapshot.index, snapshot.post)
		},
	})
}

// ModeratePost approves or rejects a group post that is pending approval.
// Rejection deletes it.
func (c *Coordinator) ModeratePost(ctx context.Context, postID, decision string) error {
	post, err := c.post(postID)
	if err != nil {
		return c.report(err)
	}
	if !post.IsGroupPost() {
		return c.report(invalid("post", "only group posts are moderated"))
	}
	group, err := c.group(post.GroupID)
	if err != nil {
		return c.report(err)
	}
	if !ViewerCanModerate(&group, c.Viewer) {
		return c.report(denied("moderate this recipe", "only group admins and the owner can"))
	}
	next, err := NextModerationState(post.ModerationState, decision)
	if err != nil {
		return c.report(err)
	}

	if next == models.ModerationDeleted {
		return c.removePost(ctx, postID)
	}

	return perform(ctx, c, mutation[models.ModerationState]{
		key: flightKey("post", postID),
		capture: func() (models.ModerationState, error) {
			post, err := c.post(postID)
			return post.ModerationState, err
		},
		apply: func(_ models.ModerationState) {
			c.Posts.Update(postID, func(item *models.Post) {
				item.ModerationState = next
			})
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.UpdateRecipe(ctx, postID, map[string]any{
				"moderationState": next,
			})
		},
		reconcile: func(data jsoniter.RawMessage) {
			if server, ok := PostFromResponse(data); ok {
				c.Posts.Update(postID, func(item *models.Post) {
					merged := mergeServerPost(*item, server, data)
					// A stale pending flag in the echo must not undo the approval.
					merged.ModerationState = next
					*item = merged
				})
			}
		},
		rollback: func(snapshot models.ModerationState) {
			c.Posts.Update(postID, func(item *models.Post) {
				item.ModerationState = snapshot
			})
		},
	})
}
