package main

import (
	"fmt"
	"io"
	"strings"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/services"
	"github.com/fatih/color"
	"github.com/samber/lo"
)

var (
	titleColor  = color.New(color.FgHiYellow, color.Bold)
	mutedColor  = color.New(color.FgHiBlack)
	badgeColor  = color.New(color.FgCyan)
	warnColor   = color.New(color.FgYellow)
	accentColor = color.New(color.FgGreen)
)

func printPost(w io.Writer, post models.Post, viewer models.Viewer) {
	titleColor.Fprint(w, post.Title)
	mutedColor.Fprintf(w, "  [%s]\n", post.ID)

	meta := []string{
		post.Category,
		post.MeatType,
		fmt.Sprintf("%d min", post.PrepTimeMinutes),
		fmt.Sprintf("serves %d", post.Servings),
	}
	fmt.Fprintf(w, "  by %s · %s\n", post.AuthorName, strings.Join(lo.Compact(meta), " · "))
	if post.IsGroupPost() {
		badgeColor.Fprintf(w, "  in %s\n", lo.CoalesceOrEmpty(post.GroupName, post.GroupID))
	}
	if post.IsPending() {
		warnColor.Fprintln(w, "  pending approval")
	}

	liked := lo.Ternary(services.IsLikedBy(post, viewer), "♥", "♡")
	mutedColor.Fprintf(w, "  %s %d  💬 %d  %s\n", liked, len(post.LikerIDs), len(post.Comments), post.CreatedAt.Local().Format("2006-01-02 15:04"))
}

func printPostDetail(w io.Writer, post models.Post, viewer models.Viewer) {
	printPost(w, post, viewer)
	if len(post.Description) > 0 {
		fmt.Fprintf(w, "\n%s\n", post.Description)
	}
	fmt.Fprintf(w, "\nIngredients\n%s\n", post.Ingredients)
	fmt.Fprintf(w, "\nInstructions\n%s\n", post.Instructions)
	for _, comment := range post.Comments {
		mutedColor.Fprintf(w, "  [%s] ", comment.ID)
		fmt.Fprintf(w, "%s: %s\n", comment.AuthorName, comment.Text)
	}
}

func printFeed(w io.Writer, posts []models.Post, viewer models.Viewer) {
	if len(posts) == 0 {
		mutedColor.Fprintln(w, "Nothing to show.")
		return
	}
	for idx, post := range posts {
		if idx > 0 {
			fmt.Fprintln(w)
		}
		printPost(w, post, viewer)
	}
}

func relationshipLabel(group *models.Group, viewer models.Viewer) string {
	labels := lo.Map(viewer.IDs(), func(id string, _ int) string {
		return services.Relationship(group, id)
	})
	label, ok := lo.Find(labels, func(item string) bool {
		return item != services.RelationshipNone
	})
	return lo.Ternary(ok, label, services.RelationshipNone)
}

func printGroup(w io.Writer, group models.Group, viewer models.Viewer) {
	titleColor.Fprint(w, group.Name)
	mutedColor.Fprintf(w, "  [%s]\n", group.ID)

	flags := []string{group.Category, fmt.Sprintf("%d members", len(group.Members))}
	if group.IsPrivate {
		flags = append(flags, "private")
	}
	if group.Settings.RequireApproval {
		flags = append(flags, "posts reviewed")
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(lo.Compact(flags), " · "))

	if relationship := relationshipLabel(&group, viewer); relationship != services.RelationshipNone {
		accentColor.Fprintf(w, "  you: %s\n", relationship)
	}
}

func printGroupDetail(w io.Writer, group models.Group, viewer models.Viewer) {
	printGroup(w, group, viewer)
	if len(group.Description) > 0 {
		fmt.Fprintf(w, "\n%s\n", group.Description)
	}
	if len(group.Rules) > 0 {
		fmt.Fprintf(w, "\nRules\n%s\n", group.Rules)
	}

	fmt.Fprintln(w, "\nMembers")
	for _, member := range group.Members {
		fmt.Fprintf(w, "  %s ", member.UserName)
		mutedColor.Fprintf(w, "[%s] %s\n", member.UserID, member.Role)
	}

	if services.ViewerCanModerate(&group, viewer) && len(group.PendingRequests) > 0 {
		printRequests(w, group)
	}
}

func printRequests(w io.Writer, group models.Group) {
	fmt.Fprintln(w, "\nPending requests")
	if len(group.PendingRequests) == 0 {
		mutedColor.Fprintln(w, "  none")
		return
	}
	for _, request := range group.PendingRequests {
		fmt.Fprintf(w, "  %s ", request.UserName)
		mutedColor.Fprintf(w, "[%s] %s\n", request.UserID, request.RequestedAt.Local().Format("2006-01-02 15:04"))
		if len(request.UserBio) > 0 {
			fmt.Fprintf(w, "    %s\n", request.UserBio)
		}
	}
}
