package models

import "time"

type MemberRole = string

const (
	MemberRoleOwner  = MemberRole("owner")
	MemberRoleAdmin  = MemberRole("admin")
	MemberRoleMember = MemberRole("member")
)

type GroupSettings struct {
	AllowMemberPosts bool `json:"allowMemberPosts"`
	RequireApproval  bool `json:"requireApproval"`
	AllowInvites     bool `json:"allowInvites"`
}

type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Rules       string `json:"rules"`
	Image       string `json:"image"`

	CreatorID string        `json:"creatorId"`
	IsPrivate bool          `json:"isPrivate"`
	Settings  GroupSettings `json:"settings"`

	Members         []Membership  `json:"members"`
	PendingRequests []JoinRequest `json:"pendingRequests"`

	CreatedAt time.Time `json:"createdAt"`
}

type Membership struct {
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	UserAvatar string     `json:"userAvatar"`
	Role       MemberRole `json:"role"`
	JoinedAt   time.Time  `json:"joinedAt"`
}

type JoinRequest struct {
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	UserAvatar  string    `json:"userAvatar"`
	UserBio     string    `json:"userBio"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NeedsApproval reports whether joining creates a JoinRequest instead of a Membership.
func (v Group) NeedsApproval() bool {
	return v.IsPrivate || v.Settings.RequireApproval
}

func (v Group) Clone() Group {
	out := v
	out.Members = CloneMembers(v.Members)
	out.PendingRequests = CloneRequests(v.PendingRequests)
	return out
}

func CloneMembers(in []Membership) []Membership {
	out := make([]Membership, len(in))
	copy(out, in)
	return out
}

func CloneRequests(in []JoinRequest) []JoinRequest {
	out := make([]JoinRequest, len(in))
	copy(out, in)
	return out
}

type GroupDraft struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Rules       string        `json:"rules"`
	Image       string        `json:"image,omitempty"`
	IsPrivate   bool          `json:"isPrivate"`
	Settings    GroupSettings `json:"settings"`
}
