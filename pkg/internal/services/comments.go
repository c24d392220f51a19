package services

import (
	"context"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

func (c *Coordinator) AddComment(ctx context.Context, postID, content string) (models.Comment, error) {
	if err := c.requireViewer("comment"); err != nil {
		return models.Comment{}, err
	}
	form := CommentForm{Text: content}
	if err := BindAndValidate(&form); err != nil {
		return models.Comment{}, c.report(err)
	}

	comment := models.Comment{
		ID:         provisionalID(),
		PostID:     postID,
		AuthorID:   c.Viewer.ID,
		AuthorName: c.Viewer.DisplayName(),
		Text:       form.Text,
		CreatedAt:  now().UTC(),
	}

	err := perform(ctx, c, mutation[[]models.Comment]{
		key: flightKey("comments", postID),
		capture: func() ([]models.Comment, error) {
			post, err := c.post(postID)
			if err != nil {
				return nil, err
			}
			return post.Comments, nil
		},
		apply: func(snapshot []models.Comment) {
			c.Posts.Update(postID, func(post *models.Post) {
				post.Comments = append(models.CloneComments(snapshot), comment)
			})
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.AddComment(ctx, postID, form.Text)
		},
		reconcile: func(data jsoniter.RawMessage) {
			if comments, ok := CommentsFromResponse(data, postID); ok {
				c.Posts.Update(postID, func(post *models.Post) {
					post.Comments = comments
				})
				if created, ok := lo.Find(comments, func(item models.Comment) bool {
					return c.Viewer.Is(item.AuthorID) && item.Text == comment.Text
				}); ok {
					comment = created
				}
				return
			}
			if created, ok := CommentFromResponse(data, postID); ok {
				c.Posts.Update(postID, func(post *models.Post) {
					for idx := range post.Comments {
						if post.Comments[idx].ID == comment.ID {
							post.Comments[idx] = created
						}
					}
				})
				comment = created
			}
		},
		rollback: func(snapshot []models.Comment) {
			c.Posts.Update(postID, func(post *models.Post) {
				post.Comments = snapshot
			})
		},
	})
	return comment, err
}

// CanDeleteComment allows the comment author, the recipe author and the
// moderators of the recipe's group.
func (c *Coordinator) CanDeleteComment(post models.Post, comment models.Comment) bool {
	if c.Viewer.Is(comment.AuthorID) || c.Viewer.Is(post.AuthorID) {
		return true
	}
	if !post.IsGroupPost() {
		return false
	}
	group, ok := c.Groups.Get(post.GroupID)
	return ok && ViewerCanModerate(&group, c.Viewer)
}

func (c *Coordinator) DeleteComment(ctx context.Context, postID, commentID string) error {
	post, err := c.post(postID)
	if err != nil {
		return c.report(err)
	}
	comment, ok := lo.Find(post.Comments, func(item models.Comment) bool {
		return item.ID == commentID
	})
	if !ok {
		return c.report(notFound("comment", commentID))
	}
	if !c.CanDeleteComment(post, comment) {
		return c.report(denied("delete this comment", "only its author or a moderator can"))
	}

	return perform(ctx, c, mutation[[]models.Comment]{
		key: flightKey("comments", postID),
		capture: func() ([]models.Comment, error) {
			post, err := c.post(postID)
			if err != nil {
				return nil, err
			}
			return post.Comments, nil
		},
		apply: func(snapshot []models.Comment) {
			c.Posts.Update(postID, func(post *models.Post) {
				post.Comments = lo.Reject(snapshot, func(item models.Comment, _ int) bool {
					return item.ID == commentID
				})
			})
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.DeleteComment(ctx, postID, commentID)
		},
		reconcile: func(data jsoniter.RawMessage) {
			if comments, ok := CommentsFromResponse(data, postID); ok {
				c.Posts.Update(postID, func(post *models.Post) {
					post.Comments = comments
				})
			}
			log.Debug().Str("post", postID).Str("comment", commentID).Msg("Comment deleted.")
		},
		rollback: func(snapshot []models.Comment) {
			c.Posts.Update(postID, func(post *models.Post) {
				post.Comments = snapshot
			})
		},
	})
}
