package models

import (
	"time"
)

const (
	PostSourcePersonal = "personal"
	PostSourceGroup    = "group"
)

type ModerationState = string

const (
	ModerationVisible         = ModerationState("visible")
	ModerationPendingApproval = ModerationState("pendingApproval")
	// ModerationDeleted never appears on a stored post, only as a transition target.
	ModerationDeleted = ModerationState("deleted")
)

type Post struct {
	ID           string `json:"id"`
	AuthorID     string `json:"authorId"`
	AuthorName   string `json:"authorName"`
	AuthorAvatar string `json:"authorAvatar"`

	Title        string `json:"title"`
	Description  string `json:"description"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	Image        string `json:"image"`

	Category        string `json:"category"`
	MeatType        string `json:"meatType"`
	PrepTimeMinutes int    `json:"prepTimeMinutes"`
	Servings        int    `json:"servings"`

	LikerIDs []string  `json:"likerIds"`
	Comments []Comment `json:"comments"`

	Source          string          `json:"source"`
	GroupID         string          `json:"groupId,omitempty"`
	GroupName       string          `json:"groupName,omitempty"`
	ModerationState ModerationState `json:"moderationState"`

	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (v Post) IsGroupPost() bool {
	return v.Source == PostSourceGroup && len(v.GroupID) > 0
}

func (v Post) IsPending() bool {
	return v.ModerationState == ModerationPendingApproval
}

// Clone returns a deep copy so snapshots never share backing arrays with live state.
func (v Post) Clone() Post {
	out := v
	out.LikerIDs = CloneLikers(v.LikerIDs)
	out.Comments = CloneComments(v.Comments)
	return out
}

func CloneLikers(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func CloneComments(in []Comment) []Comment {
	out := make([]Comment, len(in))
	copy(out, in)
	return out
}

type PostDraft struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Ingredients     string `json:"ingredients"`
	Instructions    string `json:"instructions"`
	Image           string `json:"image,omitempty"`
	Category        string `json:"category"`
	MeatType        string `json:"meatType"`
	PrepTimeMinutes int    `json:"prepTimeMinutes"`
	Servings        int    `json:"servings"`
	GroupID         string `json:"groupId,omitempty"`
	ModerationState string `json:"moderationState,omitempty"`
}
