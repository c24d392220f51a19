package services

import (
	"context"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// roster is the part of a group every membership action can touch.
type roster struct {
	members  []models.Membership
	requests []models.JoinRequest
}

// membership builds the mutation shared by every join/leave/approve/remove
// style action. All of them serialize on the group id.
func (c *Coordinator) membership(groupID string, change func(group *models.Group), request func(ctx context.Context) (gateway.Result, error)) mutation[roster] {
	return mutation[roster]{
		key: flightKey("membership", groupID),
		capture: func() (roster, error) {
			group, err := c.group(groupID)
			if err != nil {
				return roster{}, err
			}
			return roster{members: group.Members, requests: group.PendingRequests}, nil
		},
		apply: func(snapshot roster) {
			c.Groups.Update(groupID, func(group *models.Group) {
				group.Members = models.CloneMembers(snapshot.members)
				group.PendingRequests = models.CloneRequests(snapshot.requests)
				change(group)
			})
		},
		request: request,
		reconcile: func(data jsoniter.RawMessage) {
			c.acceptGroup(groupID, data)
		},
		rollback: func(snapshot roster) {
			c.Groups.Update(groupID, func(group *models.Group) {
				group.Members = snapshot.members
				group.PendingRequests = snapshot.requests
			})
		},
	}
}

// acceptGroup stores the server's copy of a group if the response carried one
// and drops any cached snapshot either way.
func (c *Coordinator) acceptGroup(groupID string, data jsoniter.RawMessage) {
	if server, ok := GroupFromResponse(data); ok && server.ID == groupID {
		c.Groups.Update(groupID, func(group *models.Group) {
			*group = server
		})
	}
	c.Directory.Invalidate(context.Background(), groupID)
}

func (c *Coordinator) JoinGroup(ctx context.Context, groupID string) error {
	if err := c.requireViewer("join a group"); err != nil {
		return err
	}
	group, err := c.group(groupID)
	if err != nil {
		return c.report(err)
	}
	if ViewerIsMember(&group, c.Viewer) {
		return c.report(invalid("membership", "you are already a member of this group"))
	}
	if ViewerHasPendingRequest(&group, c.Viewer) {
		return c.report(invalid("membership", "your join request is still pending"))
	}

	return perform(ctx, c, c.membership(groupID, func(group *models.Group) {
		if group.NeedsApproval() {
			group.PendingRequests = append(group.PendingRequests, models.JoinRequest{
				UserID:      c.Viewer.ID,
				UserName:    c.Viewer.DisplayName(),
				UserAvatar:  c.Viewer.Avatar,
				UserBio:     c.Viewer.Bio,
				RequestedAt: now().UTC(),
			})
			return
		}
		group.Members = append(group.Members, models.Membership{
			UserID:     c.Viewer.ID,
			UserName:   c.Viewer.DisplayName(),
			UserAvatar: c.Viewer.Avatar,
			Role:       models.MemberRoleMember,
			JoinedAt:   now().UTC(),
		})
	}, func(ctx context.Context) (gateway.Result, error) {
		return c.Gateway.JoinGroup(ctx, groupID)
	}))
}

func (c *Coordinator) CancelJoinRequest(ctx context.Context, groupID string) error {
	group, err := c.group(groupID)
	if err != nil {
		return c.report(err)
	}
	requester, ok := lo.Find(c.Viewer.IDs(), func(id string) bool {
		return HasPendingRequest(&group, id)
	})
	if !ok {
		return c.report(invalid("membership", "you have no pending request for this group"))
	}

	return perform(ctx, c, c.membership(groupID, func(group *models.Group) {
		group.PendingRequests = lo.Reject(group.PendingRequests, func(item models.JoinRequest, _ int) bool {
			return item.UserID == requester
		})
	}, func(ctx context.Context) (gateway.Result, error) {
		return c.Gateway.CancelJoinRequest(ctx, groupID, requester)
	}))
}

func (c *Coordinator) LeaveGroup(ctx context.Context, groupID string) error {
	group, err := c.group(groupID)
	if err != nil {
		return c.report(err)
	}
	memberID, ok := viewerMemberID(&group, c.Viewer)
	if !ok {
		return c.report(invalid("membership", "you are not a member of this group"))
	}
	if IsCreator(&group, memberID) {
		return c.report(denied("leave this group", "the owner cannot leave, delete the group instead"))
	}

	return perform(ctx, c, c.membership(groupID, func(group *models.Group) {
		group.Members = lo.Reject(group.Members, func(item models.Membership, _ int) bool {
			return item.UserID == memberID
		})
	}, func(ctx context.Context) (gateway.Result, error) {
		return c.Gateway.RemoveMember(ctx, groupID, memberID)
	}))
}

// HandleJoinRequest approves or rejects a pending request. Approval turns the
// request into a plain membership.
func (c *Coordinator) HandleJoinRequest(ctx context.Context, groupID, userID, action string) error {
	if action != gateway.RequestActionApprove && action != gateway.RequestActionReject {
		return c.report(invalid("action", "must be approve or reject"))
	}
	group, err := c.group(groupID)
	if err != nil {
		return c.report(err)
	}
	if !ViewerCanModerate(&group, c.Viewer) {
		return c.report(denied("handle join requests", "only group admins and the owner can"))
	}
	request, ok := lo.Find(group.PendingRequests, func(item models.JoinRequest) bool {
		return item.UserID == userID
	})
	if !ok {
		return c.report(notFound("join request", userID))
	}

	return perform(ctx, c, c.membership(groupID, func(group *models.Group) {
		group.PendingRequests = lo.Reject(group.PendingRequests, func(item models.JoinRequest, _ int) bool {
			return item.UserID == userID
		})
		if action == gateway.RequestActionApprove && !IsMember(group, userID) {
			group.Members = append(group.Members, models.Membership{
				UserID:     request.UserID,
				UserName:   request.UserName,
				UserAvatar: request.UserAvatar,
				Role:       models.MemberRoleMember,
				JoinedAt:   now().UTC(),
			})
		}
	}, func(ctx context.Context) (gateway.Result, error) {
		return c.Gateway.HandleJoinRequest(ctx, groupID, userID, action, c.Viewer.ID)
	}))
}

func (c *Coordinator) RemoveMember(ctx context.Context, groupID, userID string) error {
	group, err := c.group(groupID)
	if err != nil {
		return c.report(err)
	}
	target, ok := findMember(&group, userID)
	if !ok {
		return c.report(notFound("member", userID))
	}
	if IsCreator(&group, userID) || target.Role == models.MemberRoleOwner {
		return c.report(denied("remove this member", "the owner cannot be removed"))
	}
	if c.Viewer.Is(userID) {
		return c.report(invalid("member", "leave the group instead of removing yourself"))
	}
	if !ViewerCanModerate(&group, c.Viewer) {
		return c.report(denied("remove members", "only group admins and the owner can"))
	}
	if target.Role == models.MemberRoleAdmin && !ViewerCanPromote(&group, c.Viewer) {
		return c.report(denied("remove this member", "only the owner can remove an admin"))
	}

	return perform(ctx, c, c.membership(groupID, func(group *models.Group) {
		group.Members = lo.Reject(group.Members, func(item models.Membership, _ int) bool {
			return item.UserID == userID
		})
	}, func(ctx context.Context) (gateway.Result, error) {
		return c.Gateway.RemoveMember(ctx, groupID, userID)
	}))
}

func (c *Coordinator) PromoteMember(ctx context.Context, groupID, userID string) error {
	group, err := c.group(groupID)
	if err != nil {
		return c.report(err)
	}
	if !ViewerCanPromote(&group, c.Viewer) {
		return c.report(denied("promote members", "only the owner can"))
	}
	target, ok := findMember(&group, userID)
	if !ok {
		return c.report(notFound("member", userID))
	}
	if target.Role != models.MemberRoleMember || IsCreator(&group, userID) {
		return c.report(invalid("member", "only plain members can be promoted"))
	}

	return perform(ctx, c, c.membership(groupID, func(group *models.Group) {
		for idx := range group.Members {
			if group.Members[idx].UserID == userID {
				group.Members[idx].Role = models.MemberRoleAdmin
			}
		}
	}, func(ctx context.Context) (gateway.Result, error) {
		return c.Gateway.PromoteMember(ctx, groupID, userID, models.MemberRoleAdmin)
	}))
}

func (c *Coordinator) CreateGroup(ctx context.Context, draft models.GroupDraft) (models.Group, error) {
	if err := c.requireViewer("create a group"); err != nil {
		return models.Group{}, err
	}
	form := GroupForm{Name: draft.Name, Description: draft.Description, Category: draft.Category}
	if err := BindAndValidate(&form); err != nil {
		return models.Group{}, c.report(err)
	}
	draft.Name = form.Name
	draft.Description = form.Description

	createdAt := now().UTC()
	group := models.Group{
		ID:          provisionalID(),
		Name:        draft.Name,
		Description: draft.Description,
		Category:    draft.Category,
		Rules:       draft.Rules,
		Image:       draft.Image,
		CreatorID:   c.Viewer.ID,
		IsPrivate:   draft.IsPrivate,
		Settings:    draft.Settings,
		Members: []models.Membership{{
			UserID:     c.Viewer.ID,
			UserName:   c.Viewer.DisplayName(),
			UserAvatar: c.Viewer.Avatar,
			Role:       models.MemberRoleOwner,
			JoinedAt:   createdAt,
		}},
		PendingRequests: []models.JoinRequest{},
		CreatedAt:       createdAt,
	}

	provisional := group.ID
	err := perform(ctx, c, mutation[struct{}]{
		key: flightKey("group", "new"),
		capture: func() (struct{}, error) {
			return struct{}{}, nil
		},
		apply: func(_ struct{}) {
			c.Groups.Insert(0, group)
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.CreateGroup(ctx, draft)
		},
		reconcile: func(data jsoniter.RawMessage) {
			if server, ok := GroupFromResponse(data); ok {
				c.Groups.Update(provisional, func(item *models.Group) {
					*item = server
				})
				group = server
			}
		},
		rollback: func(_ struct{}) {
			c.Groups.Remove(provisional)
		},
	})
	if err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// UpdateGroup edits the profile and settings of a group. Changing
// requireApproval does not touch posts that already exist.
func (c *Coordinator) UpdateGroup(ctx context.Context, groupID string, draft models.GroupDraft) (models.Group, error) {
	group, err := c.group(groupID)
	if err != nil {
		return models.Group{}, c.report(err)
	}
	if !ViewerCanModerate(&group, c.Viewer) {
		return models.Group{}, c.report(denied("edit this group", "only group admins and the owner can"))
	}
	form := GroupForm{Name: draft.Name, Description: draft.Description, Category: draft.Category}
	if err := BindAndValidate(&form); err != nil {
		return models.Group{}, c.report(err)
	}
	draft.Name = form.Name
	draft.Description = form.Description

	err = perform(ctx, c, mutation[models.Group]{
		key: flightKey("group", groupID),
		capture: func() (models.Group, error) {
			return c.group(groupID)
		},
		apply: func(_ models.Group) {
			c.Groups.Update(groupID, func(item *models.Group) {
				item.Name = draft.Name
				item.Description = draft.Description
				item.Category = draft.Category
				item.Rules = draft.Rules
				item.IsPrivate = draft.IsPrivate
				item.Settings = draft.Settings
				if len(draft.Image) > 0 {
					item.Image = draft.Image
				}
			})
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.UpdateGroup(ctx, groupID, draft)
		},
		reconcile: func(data jsoniter.RawMessage) {
			c.acceptGroup(groupID, data)
		},
		rollback: func(snapshot models.Group) {
			c.Groups.Update(groupID, func(item *models.Group) {
				item.Name = snapshot.Name
				item.Description = snapshot.Description
				item.Category = snapshot.Category
				item.Rules = snapshot.Rules
				item.IsPrivate = snapshot.IsPrivate
				item.Settings = snapshot.Settings
				item.Image = snapshot.Image
			})
		},
	})
	if err != nil {
		return models.Group{}, err
	}
	updated, _ := c.Groups.Get(groupID)
	return updated, nil
}

type removedGroup struct {
	group models.Group
	index int
}

func (c *Coordinator) DeleteGroup(ctx context.Context, groupID string) error {
	group, err := c.group(groupID)
	if err != nil {
		return c.report(err)
	}
	if !ViewerCanPromote(&group, c.Viewer) {
		return c.report(denied("delete this group", "only the owner can"))
	}

	return perform(ctx, c, mutation[removedGroup]{
		key: flightKey("group", groupID),
		capture: func() (removedGroup, error) {
			group, index, ok := c.Groups.Locate(groupID)
			if !ok {
				return removedGroup{}, notFound("group", groupID)
			}
			return removedGroup{group: group, index: index}, nil
		},
		apply: func(_ removedGroup) {
			c.Groups.Remove(groupID)
		},
		request: func(ctx context.Context) (gateway.Result, error) {
			return c.Gateway.DeleteGroup(ctx, groupID)
		},
		reconcile: func(_ jsoniter.RawMessage) {
			dropped := c.Posts.RemoveWhere(func(post models.Post) bool {
				return post.GroupID == groupID
			})
			c.Directory.Invalidate(context.Background(), groupID)
			log.Debug().Str("group", groupID).Int("posts", dropped).Msg("Group deleted.")
		},
		rollback: func(snapshot removedGroup) {
			c.Groups.Insert(snapshot.index, snapshot.group)
		},
	})
}
