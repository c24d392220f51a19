package gateway

import (
	"context"
	"fmt"
	"net/http"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
)

const (
	RequestActionApprove = "approve"
	RequestActionReject  = "reject"
)

func (c *Client) ListGroups(ctx context.Context) (Result, error) {
	return c.do(ctx, http.MethodGet, "/groups", nil)
}

func (c *Client) GetGroup(ctx context.Context, id string) (Result, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%s", segment(id)), nil)
}

func (c *Client) CreateGroup(ctx context.Context, draft models.GroupDraft) (Result, error) {
	return c.do(ctx, http.MethodPost, "/groups", draft)
}

func (c *Client) UpdateGroup(ctx context.Context, id string, draft models.GroupDraft) (Result, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/groups/%s", segment(id)), draft)
}

func (c *Client) DeleteGroup(ctx context.Context, id string) (Result, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/groups/%s", segment(id)), nil)
}

func (c *Client) JoinGroup(ctx context.Context, id string) (Result, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/groups/%s/join", segment(id)), nil)
}

func (c *Client) CancelJoinRequest(ctx context.Context, id, userID string) (Result, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/groups/%s/requests/%s", segment(id), segment(userID)), nil)
}

func (c *Client) HandleJoinRequest(ctx context.Context, id, userID, action, adminID string) (Result, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/groups/%s/requests/%s", segment(id), segment(userID)), map[string]any{
		"action":  action,
		"adminId": adminID,
	})
}

func (c *Client) RemoveMember(ctx context.Context, id, userID string) (Result, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/groups/%s/members/%s", segment(id), segment(userID)), nil)
}

func (c *Client) PromoteMember(ctx context.Context, id, userID string, role models.MemberRole) (Result, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/groups/%s/members/%s", segment(id), segment(userID)), map[string]any{
		"role": role,
	})
}
