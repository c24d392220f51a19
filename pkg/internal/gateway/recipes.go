package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
)

type RecipeQuery struct {
	GroupID  string
	AuthorID string
}

func (v RecipeQuery) encode() string {
	values := url.Values{}
	if len(v.GroupID) > 0 {
		values.Set("groupId", v.GroupID)
	}
	if len(v.AuthorID) > 0 {
		values.Set("authorId", v.AuthorID)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func (c *Client) ListRecipes(ctx context.Context, query RecipeQuery) (Result, error) {
	return c.do(ctx, http.MethodGet, "/recipes"+query.encode(), nil)
}

func (c *Client) CreateRecipe(ctx context.Context, draft models.PostDraft) (Result, error) {
	return c.do(ctx, http.MethodPost, "/recipes", draft)
}

func (c *Client) UpdateRecipe(ctx context.Context, id string, patch map[string]any) (Result, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/recipes/%s", segment(id)), patch)
}

func (c *Client) DeleteRecipe(ctx context.Context, id string) (Result, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/recipes/%s", segment(id)), nil)
}

func (c *Client) LikeRecipe(ctx context.Context, id string) (Result, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/recipes/%s/like", segment(id)), nil)
}

func (c *Client) UnlikeRecipe(ctx context.Context, id string) (Result, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/recipes/%s/like", segment(id)), nil)
}

func (c *Client) AddComment(ctx context.Context, id, text string) (Result, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/recipes/%s/comments", segment(id)), map[string]any{
		"text": text,
	})
}

func (c *Client) DeleteComment(ctx context.Context, id, commentID string) (Result, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/recipes/%s/comments/%s", segment(id), segment(commentID)), nil)
}
