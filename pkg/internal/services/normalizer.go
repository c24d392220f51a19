package services

import (
	"strconv"
	"strings"
	"time"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

// Every read of a raw server payload goes through this file. The rest of the
// package only ever sees the canonical models.

var now = time.Now

type path = []any

func field(value jsoniter.Any, paths ...path) jsoniter.Any {
	for _, p := range paths {
		if item := value.Get(p...); item.ValueType() != jsoniter.InvalidValue && item.ValueType() != jsoniter.NilValue {
			return item
		}
	}
	return jsoniter.Wrap(nil)
}

func text(value jsoniter.Any, paths ...path) string {
	for _, p := range paths {
		item := value.Get(p...)
		switch item.ValueType() {
		case jsoniter.StringValue, jsoniter.NumberValue:
			if out := strings.TrimSpace(item.ToString()); len(out) > 0 {
				return out
			}
		}
	}
	return ""
}

// longText accepts either a string or a list of lines.
func longText(value jsoniter.Any, paths ...path) string {
	item := field(value, paths...)
	switch item.ValueType() {
	case jsoniter.StringValue:
		return item.ToString()
	case jsoniter.ArrayValue:
		var lines []string
		for idx := 0; idx < item.Size(); idx++ {
			if line := text(item, path{idx}); len(line) > 0 {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func number(value jsoniter.Any, paths ...path) (int, bool) {
	item := field(value, paths...)
	switch item.ValueType() {
	case jsoniter.NumberValue:
		return int(item.ToFloat64()), true
	case jsoniter.StringValue:
		if out, err := strconv.Atoi(strings.TrimSpace(item.ToString())); err == nil {
			return out, true
		}
	}
	return 0, false
}

func flag(value jsoniter.Any, paths ...path) (bool, bool) {
	item := field(value, paths...)
	switch item.ValueType() {
	case jsoniter.BoolValue:
		return item.ToBool(), true
	case jsoniter.StringValue:
		if out, err := strconv.ParseBool(item.ToString()); err == nil {
			return out, true
		}
	}
	return false, false
}

func timestamp(value jsoniter.Any, paths ...path) time.Time {
	item := field(value, paths...)
	switch item.ValueType() {
	case jsoniter.StringValue:
		raw := item.ToString()
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if out, err := time.Parse(layout, raw); err == nil {
				return out.UTC()
			}
		}
	case jsoniter.NumberValue:
		epoch := item.ToInt64()
		if epoch > 1e12 {
			return time.UnixMilli(epoch).UTC()
		}
		return time.Unix(epoch, 0).UTC()
	}
	return now().UTC()
}

// identity resolves a user reference that may be a bare id or an embedded object.
func identity(value jsoniter.Any, keys ...string) string {
	for _, key := range keys {
		item := value.Get(key)
		switch item.ValueType() {
		case jsoniter.StringValue, jsoniter.NumberValue:
			if out := text(value, path{key}); len(out) > 0 {
				return out
			}
		case jsoniter.ObjectValue:
			if out := text(item, path{"id"}, path{"_id"}); len(out) > 0 {
				return out
			}
		}
	}
	return ""
}

func items(value jsoniter.Any) []jsoniter.Any {
	if value.ValueType() != jsoniter.ArrayValue {
		return nil
	}
	out := make([]jsoniter.Any, 0, value.Size())
	for idx := 0; idx < value.Size(); idx++ {
		out = append(out, value.Get(idx))
	}
	return out
}

func parse(raw []byte) jsoniter.Any {
	if len(raw) == 0 || !jsoniter.Valid(raw) {
		return jsoniter.Wrap(nil)
	}
	return jsoniter.Get(raw)
}

func NormalizePost(raw []byte) (out models.Post) {
	defer func() {
		if recover() != nil {
			out = normalizePost(jsoniter.Wrap(nil))
		}
	}()
	return normalizePost(parse(raw))
}

func normalizePost(value jsoniter.Any) models.Post {
	post := models.Post{
		ID:           text(value, path{"id"}, path{"_id"}),
		AuthorID:     lo.CoalesceOrEmpty(text(value, path{"authorId"}, path{"userId"}), identity(value, "author", "user")),
		AuthorName:   text(value, path{"authorName"}, path{"userName"}, path{"author", "name"}, path{"user", "name"}, path{"user", "username"}, path{"user", "fullName"}),
		AuthorAvatar: text(value, path{"authorAvatar"}, path{"userAvatar"}, path{"author", "avatar"}, path{"user", "avatar"}, path{"user", "profileImage"}),
		Title:        text(value, path{"title"}, path{"name"}),
		Description:  longText(value, path{"description"}),
		Ingredients:  longText(value, path{"ingredients"}),
		Instructions: longText(value, path{"instructions"}),
		Image:        text(value, path{"image"}, path{"imageUrl"}, path{"imageURL"}),
		Category:     text(value, path{"category"}),
		MeatType:     text(value, path{"meatType"}),
		CreatedAt:    timestamp(value, path{"createdAt"}, path{"created_at"}),
	}
	if len(post.AuthorName) == 0 {
		post.AuthorName = models.AnonymousName
	}

	if minutes, ok := number(value, path{"prepTimeMinutes"}, path{"cookingTime"}, path{"prepTime"}); ok && minutes > 0 {
		post.PrepTimeMinutes = minutes
	}
	post.Servings = 1
	if servings, ok := number(value, path{"servings"}); ok && servings > 0 {
		post.Servings = servings
	}

	post.LikerIDs = normalizeLikers(field(value, path{"likerIds"}, path{"likes"}))
	post.Comments = normalizeComments(field(value, path{"comments"}), post.ID)

	post.GroupID = lo.CoalesceOrEmpty(text(value, path{"groupId"}), identity(value, "group"))
	if len(post.GroupID) > 0 {
		post.Source = models.PostSourceGroup
		post.GroupName = text(value, path{"groupName"}, path{"group", "name"})
		post.ModerationState = moderationOf(value)
	} else {
		post.Source = models.PostSourcePersonal
		post.ModerationState = models.ModerationVisible
	}

	return post
}

func moderationOf(value jsoniter.Any) models.ModerationState {
	switch strings.ToLower(text(value, path{"moderationState"}, path{"status"})) {
	case strings.ToLower(models.ModerationPendingApproval), "pending", "pending_approval":
		return models.ModerationPendingApproval
	case models.ModerationVisible, "approved", "published":
		return models.ModerationVisible
	}
	if approved, ok := flag(value, path{"isApproved"}, path{"approved"}); ok && !approved {
		return models.ModerationPendingApproval
	}
	return models.ModerationVisible
}

// HasModerationField reports whether the server stated a moderation state explicitly.
func HasModerationField(raw []byte) bool {
	value := parse(raw)
	for _, candidate := range []jsoniter.Any{value, field(value, path{"recipe"}, path{"post"})} {
		if field(candidate, path{"moderationState"}, path{"status"}, path{"isApproved"}, path{"approved"}).ValueType() != jsoniter.NilValue {
			return true
		}
	}
	return false
}

func normalizeLikers(value jsoniter.Any) []string {
	likers := lo.FilterMap(items(value), func(item jsoniter.Any, _ int) (string, bool) {
		var id string
		switch item.ValueType() {
		case jsoniter.StringValue, jsoniter.NumberValue:
			id = strings.TrimSpace(item.ToString())
		case jsoniter.ObjectValue:
			id = lo.CoalesceOrEmpty(text(item, path{"userId"}), identity(item, "user"), text(item, path{"id"}, path{"_id"}))
		}
		return id, len(id) > 0
	})
	return lo.Uniq(append([]string{}, likers...))
}

func NormalizeComment(raw []byte, postID string) (out models.Comment) {
	defer func() {
		if recover() != nil {
			out = normalizeComment(jsoniter.Wrap(nil), postID)
		}
	}()
	return normalizeComment(parse(raw), postID)
}

func normalizeComment(value jsoniter.Any, postID string) models.Comment {
	comment := models.Comment{
		ID:         text(value, path{"id"}, path{"_id"}),
		PostID:     lo.CoalesceOrEmpty(text(value, path{"postId"}, path{"recipeId"}), postID),
		AuthorID:   lo.CoalesceOrEmpty(text(value, path{"authorId"}, path{"userId"}), identity(value, "author", "user")),
		AuthorName: text(value, path{"authorName"}, path{"userName"}, path{"author", "name"}, path{"user", "name"}, path{"user", "username"}, path{"user", "fullName"}),
		Text:       lo.CoalesceOrEmpty(text(value, path{"text"}), text(value, path{"content"})),
		CreatedAt:  timestamp(value, path{"createdAt"}, path{"created_at"}),
	}
	if len(comment.AuthorName) == 0 {
		comment.AuthorName = models.AnonymousName
	}
	return comment
}

func normalizeComments(value jsoniter.Any, postID string) []models.Comment {
	seen := make(map[string]bool)
	comments := make([]models.Comment, 0, value.Size())
	for _, item := range items(value) {
		comment := normalizeComment(item, postID)
		if len(comment.ID) > 0 {
			if seen[comment.ID] {
				continue
			}
			seen[comment.ID] = true
		}
		comments = append(comments, comment)
	}
	return comments
}

func NormalizeGroup(raw []byte) (out models.Group) {
	defer func() {
		if recover() != nil {
			out = normalizeGroup(jsoniter.Wrap(nil))
		}
	}()
	return normalizeGroup(parse(raw))
}

func normalizeGroup(value jsoniter.Any) models.Group {
	group := models.Group{
		ID:          text(value, path{"id"}, path{"_id"}),
		Name:        text(value, path{"name"}),
		Description: longText(value, path{"description"}),
		Category:    text(value, path{"category"}),
		Rules:       longText(value, path{"rules"}),
		Image:       text(value, path{"image"}, path{"imageUrl"}, path{"imageURL"}),
		CreatorID:   lo.CoalesceOrEmpty(text(value, path{"creatorId"}), identity(value, "creator", "createdBy", "owner")),
		CreatedAt:   timestamp(value, path{"createdAt"}, path{"created_at"}),
	}
	group.IsPrivate, _ = flag(value, path{"isPrivate"}, path{"private"})
	group.Settings.AllowMemberPosts, _ = flag(value, path{"settings", "allowMemberPosts"}, path{"allowMemberPosts"})
	group.Settings.RequireApproval, _ = flag(value, path{"settings", "requireApproval"}, path{"requireApproval"})
	group.Settings.AllowInvites, _ = flag(value, path{"settings", "allowInvites"}, path{"allowInvites"})

	members := lo.FilterMap(items(field(value, path{"members"})), func(item jsoniter.Any, _ int) (models.Membership, bool) {
		member := normalizeMembership(item, group.CreatedAt)
		return member, len(member.UserID) > 0
	})
	members = lo.UniqBy(members, func(item models.Membership) string {
		return item.UserID
	})

	if len(group.CreatorID) == 0 {
		if owner, ok := lo.Find(members, func(item models.Membership) bool {
			return item.Role == models.MemberRoleOwner
		}); ok {
			group.CreatorID = owner.UserID
		}
	}
	for idx := range members {
		if members[idx].UserID == group.CreatorID {
			members[idx].Role = models.MemberRoleOwner
		} else if members[idx].Role == models.MemberRoleOwner {
			members[idx].Role = models.MemberRoleMember
		}
	}
	if len(group.CreatorID) > 0 && !lo.ContainsBy(members, func(item models.Membership) bool {
		return item.UserID == group.CreatorID
	}) {
		members = append([]models.Membership{{
			UserID:   group.CreatorID,
			UserName: models.AnonymousName,
			Role:     models.MemberRoleOwner,
			JoinedAt: group.CreatedAt,
		}}, members...)
	}
	group.Members = append([]models.Membership{}, members...)

	requests := lo.FilterMap(items(field(value, path{"pendingRequests"}, path{"joinRequests"})), func(item jsoniter.Any, _ int) (models.JoinRequest, bool) {
		request := normalizeJoinRequest(item)
		return request, len(request.UserID) > 0
	})
	requests = lo.UniqBy(requests, func(item models.JoinRequest) string {
		return item.UserID
	})
	group.PendingRequests = append([]models.JoinRequest{}, lo.Filter(requests, func(item models.JoinRequest, _ int) bool {
		return !lo.ContainsBy(group.Members, func(member models.Membership) bool {
			return member.UserID == item.UserID
		})
	})...)

	return group
}

func normalizeMembership(value jsoniter.Any, fallback time.Time) models.Membership {
	if value.ValueType() == jsoniter.StringValue || value.ValueType() == jsoniter.NumberValue {
		return models.Membership{
			UserID:   strings.TrimSpace(value.ToString()),
			UserName: models.AnonymousName,
			Role:     models.MemberRoleMember,
			JoinedAt: fallback,
		}
	}

	member := models.Membership{
		UserID:     lo.CoalesceOrEmpty(text(value, path{"userId"}), identity(value, "user"), text(value, path{"id"}, path{"_id"})),
		UserName:   text(value, path{"userName"}, path{"user", "name"}, path{"user", "username"}, path{"user", "fullName"}, path{"name"}),
		UserAvatar: text(value, path{"userAvatar"}, path{"user", "avatar"}, path{"user", "profileImage"}, path{"avatar"}),
		Role:       strings.ToLower(text(value, path{"role"})),
		JoinedAt:   fallback,
	}
	if field(value, path{"joinedAt"}).ValueType() != jsoniter.NilValue {
		member.JoinedAt = timestamp(value, path{"joinedAt"})
	}
	if len(member.UserName) == 0 {
		member.UserName = models.AnonymousName
	}
	switch member.Role {
	case models.MemberRoleOwner, models.MemberRoleAdmin, models.MemberRoleMember:
	default:
		member.Role = models.MemberRoleMember
	}
	return member
}

func normalizeJoinRequest(value jsoniter.Any) models.JoinRequest {
	if value.ValueType() == jsoniter.StringValue || value.ValueType() == jsoniter.NumberValue {
		return models.JoinRequest{
			UserID:      strings.TrimSpace(value.ToString()),
			UserName:    models.AnonymousName,
			RequestedAt: now().UTC(),
		}
	}

	request := models.JoinRequest{
		UserID:      lo.CoalesceOrEmpty(text(value, path{"userId"}), identity(value, "user"), text(value, path{"id"}, path{"_id"})),
		UserName:    text(value, path{"userName"}, path{"user", "name"}, path{"user", "username"}, path{"user", "fullName"}),
		UserAvatar:  text(value, path{"userAvatar"}, path{"user", "avatar"}, path{"user", "profileImage"}),
		UserBio:     lo.CoalesceOrEmpty(longText(value, path{"userBio"}), longText(value, path{"user", "bio"})),
		RequestedAt: timestamp(value, path{"requestedAt"}, path{"createdAt"}),
	}
	if len(request.UserName) == 0 {
		request.UserName = models.AnonymousName
	}
	return request
}

func NormalizeAccount(raw []byte) (out models.Account) {
	defer func() {
		if recover() != nil {
			out = models.Account{Name: models.AnonymousName}
		}
	}()
	value := parse(raw)
	account := models.Account{
		ID:     text(value, path{"id"}, path{"_id"}, path{"userId"}),
		Name:   text(value, path{"name"}, path{"username"}, path{"fullName"}, path{"userName"}),
		Avatar: text(value, path{"avatar"}, path{"profileImage"}),
		Bio:    longText(value, path{"bio"}),
	}
	if len(account.Name) == 0 {
		account.Name = models.AnonymousName
	}
	return account
}

// collection unwraps a list payload that may be bare or wrapped in an envelope.
func collection(value jsoniter.Any, keys ...string) []jsoniter.Any {
	if value.ValueType() == jsoniter.ArrayValue {
		return items(value)
	}
	for _, key := range keys {
		if inner := value.Get(key); inner.ValueType() == jsoniter.ArrayValue {
			return items(inner)
		}
	}
	return nil
}

func NormalizePosts(raw []byte) []models.Post {
	posts := lo.Map(collection(parse(raw), "recipes", "posts", "data", "items"), func(item jsoniter.Any, _ int) models.Post {
		return normalizePost(item)
	})
	return lo.Filter(posts, func(item models.Post, _ int) bool {
		return len(item.ID) > 0
	})
}

func NormalizeGroups(raw []byte) []models.Group {
	groups := lo.Map(collection(parse(raw), "groups", "data", "items"), func(item jsoniter.Any, _ int) models.Group {
		return normalizeGroup(item)
	})
	return lo.Filter(groups, func(item models.Group, _ int) bool {
		return len(item.ID) > 0
	})
}

// The extractors below pull the authoritative piece out of a mutation response.
// A false second value means the server did not send one and optimistic state stays.

func resource(value jsoniter.Any, keys ...string) jsoniter.Any {
	if inner := field(value, lo.Map(keys, func(key string, _ int) path { return path{key} })...); inner.ValueType() == jsoniter.ObjectValue {
		return inner
	}
	return value
}

func LikesFromResponse(raw []byte) ([]string, bool) {
	value := parse(raw)
	if value.ValueType() == jsoniter.ArrayValue {
		return normalizeLikers(value), true
	}
	value = resource(value, "recipe", "post")
	likes := field(value, path{"likerIds"}, path{"likes"})
	if likes.ValueType() != jsoniter.ArrayValue {
		return nil, false
	}
	return normalizeLikers(likes), true
}

func CommentsFromResponse(raw []byte, postID string) ([]models.Comment, bool) {
	value := parse(raw)
	if value.ValueType() == jsoniter.ArrayValue {
		return normalizeComments(value, postID), true
	}
	comments := field(resource(value, "recipe", "post"), path{"comments"})
	if comments.ValueType() != jsoniter.ArrayValue {
		return nil, false
	}
	return normalizeComments(comments, postID), true
}

func CommentFromResponse(raw []byte, postID string) (models.Comment, bool) {
	value := resource(parse(raw), "comment")
	if value.ValueType() != jsoniter.ObjectValue || len(text(value, path{"id"}, path{"_id"})) == 0 {
		return models.Comment{}, false
	}
	if len(lo.CoalesceOrEmpty(text(value, path{"text"}), text(value, path{"content"}))) == 0 {
		return models.Comment{}, false
	}
	return normalizeComment(value, postID), true
}

func PostFromResponse(raw []byte) (models.Post, bool) {
	value := resource(parse(raw), "recipe", "post")
	if value.ValueType() != jsoniter.ObjectValue || len(text(value, path{"id"}, path{"_id"})) == 0 {
		return models.Post{}, false
	}
	return normalizePost(value), true
}

func GroupFromResponse(raw []byte) (models.Group, bool) {
	value := resource(parse(raw), "group")
	if value.ValueType() != jsoniter.ObjectValue || len(text(value, path{"id"}, path{"_id"})) == 0 {
		return models.Group{}, false
	}
	return normalizeGroup(value), true
}
