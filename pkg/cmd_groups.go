package main

import (
	"flag"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/gateway"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/services"
	"github.com/samber/lo"
)

func init() {
	register(
		command{
			name:    "groups",
			usage:   "[-mine]",
			summary: "List groups",
			online:  true,
			run:     runGroups,
		},
		command{
			name:    "group",
			usage:   "<group>",
			summary: "Show a group, its members and its recipes",
			online:  true,
			run:     runGroup,
		},
		command{
			name:    "create-group",
			usage:   "-name n [-description d] [-category c] [-rules r] [-private] [-approval] [-member-posts]",
			summary: "Create a group you own",
			online:  true,
			run:     runCreateGroup,
		},
		command{
			name:    "edit-group",
			usage:   "<group> [-name n] [-description d] [-private] [-approval] [-member-posts] ...",
			summary: "Change a group's profile or settings",
			online:  true,
			run:     runEditGroup,
		},
		command{
			name:    "delete-group",
			usage:   "<group>",
			summary: "Delete a group you own",
			online:  true,
			run:     runDeleteGroup,
		},
		command{
			name:    "join",
			usage:   "<group>",
			summary: "Join a group or ask to join it",
			online:  true,
			run:     runJoin,
		},
		command{
			name:    "cancel",
			usage:   "<group>",
			summary: "Withdraw your join request",
			online:  true,
			run:     runCancel,
		},
		command{
			name:    "leave",
			usage:   "<group>",
			summary: "Leave a group",
			online:  true,
			run:     runLeave,
		},
		command{
			name:    "requests",
			usage:   "<group> [approve|reject <user>]",
			summary: "List or handle join requests",
			online:  true,
			run:     runRequests,
		},
		command{
			name:    "kick",
			usage:   "<group> <user>",
			summary: "Remove a member from a group",
			online:  true,
			run:     runKick,
		},
		command{
			name:    "promote",
			usage:   "<group> <user>",
			summary: "Make a member an admin",
			online:  true,
			run:     runPromote,
		},
	)
}

func runGroups(a *app, flags *flag.FlagSet, args []string) error {
	mine := flags.Bool("mine", false, "only groups you belong to")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}

	groups := a.coordinator.Groups.Groups()
	if *mine {
		groups = lo.Filter(groups, func(item models.Group, _ int) bool {
			return services.ViewerIsMember(&item, a.coordinator.Viewer)
		})
	}
	if len(groups) == 0 {
		mutedColor.Fprintln(a.stdout, "No groups.")
		return nil
	}
	for idx, group := range groups {
		if idx > 0 {
			fmt.Fprintln(a.stdout)
		}
		printGroup(a.stdout, group, a.coordinator.Viewer)
	}
	return nil
}

func runGroup(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	group, posts, err := a.coordinator.RefreshGroup(a.ctx, rest[0])
	if err != nil {
		return err
	}
	printGroupDetail(a.stdout, group, a.coordinator.Viewer)
	fmt.Fprintln(a.stdout, "\nRecipes")
	printFeed(a.stdout, posts, a.coordinator.Viewer)
	return nil
}

func groupFlags(flags *flag.FlagSet, draft *models.GroupDraft) {
	flags.StringVar(&draft.Name, "name", draft.Name, "group name")
	flags.StringVar(&draft.Description, "description", draft.Description, "description")
	flags.StringVar(&draft.Category, "category", draft.Category, "category")
	flags.StringVar(&draft.Rules, "rules", draft.Rules, "rules, or @file")
	flags.StringVar(&draft.Image, "image", draft.Image, "image url")
	flags.BoolVar(&draft.IsPrivate, "private", draft.IsPrivate, "require approval to join")
	flags.BoolVar(&draft.Settings.RequireApproval, "approval", draft.Settings.RequireApproval, "hold member recipes until an admin approves them")
	flags.BoolVar(&draft.Settings.AllowMemberPosts, "member-posts", draft.Settings.AllowMemberPosts, "let members post recipes")
	flags.BoolVar(&draft.Settings.AllowInvites, "invites", draft.Settings.AllowInvites, "let members invite others")
}

func runCreateGroup(a *app, flags *flag.FlagSet, args []string) error {
	draft := models.GroupDraft{
		Settings: models.GroupSettings{AllowMemberPosts: true, AllowInvites: true},
	}
	groupFlags(flags, &draft)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := expandFileArgs(&draft.Rules); err != nil {
		return err
	}

	group, err := a.coordinator.CreateGroup(a.ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Created %s [%s]\n", group.Name, group.ID)
	return nil
}

func runEditGroup(a *app, flags *flag.FlagSet, args []string) error {
	if len(args) == 0 || len(args[0]) == 0 || strings.HasPrefix(args[0], "-") {
		flags.Usage()
		return usagef("edit-group expects the group id first")
	}
	current, err := a.coordinator.LoadGroup(a.ctx, args[0])
	if err != nil {
		return err
	}

	draft := models.GroupDraft{
		Name:        current.Name,
		Description: current.Description,
		Category:    current.Category,
		Rules:       current.Rules,
		IsPrivate:   current.IsPrivate,
		Settings:    current.Settings,
	}
	groupFlags(flags, &draft)
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if err := expandFileArgs(&draft.Rules); err != nil {
		return err
	}

	group, err := a.coordinator.UpdateGroup(a.ctx, current.ID, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated %s\n", group.Name)
	return nil
}

func runDeleteGroup(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	if _, err := a.coordinator.LoadGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	if err := a.coordinator.DeleteGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Group deleted.")
	return nil
}

func runJoin(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	if _, err := a.coordinator.LoadGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	if err := a.coordinator.JoinGroup(a.ctx, rest[0]); err != nil {
		return err
	}

	group, _ := a.coordinator.Groups.Get(rest[0])
	if services.ViewerIsMember(&group, a.coordinator.Viewer) {
		fmt.Fprintf(a.stdout, "Joined %s.\n", group.Name)
	} else {
		fmt.Fprintf(a.stdout, "Asked to join %s, an admin will review your request.\n", group.Name)
	}
	return nil
}

func runCancel(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	if _, err := a.coordinator.LoadGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	if err := a.coordinator.CancelJoinRequest(a.ctx, rest[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Join request withdrawn.")
	return nil
}

func runLeave(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	if _, err := a.coordinator.LoadGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	if err := a.coordinator.LeaveGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Left the group.")
	return nil
}

func runRequests(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	group, err := a.coordinator.LoadGroup(a.ctx, rest[0])
	if err != nil {
		return err
	}

	if len(rest) == 1 {
		if !services.ViewerCanModerate(&group, a.coordinator.Viewer) {
			return &services.PermissionDenied{Action: "see join requests", Reason: "only group admins and the owner can"}
		}
		printRequests(a.stdout, group)
		return nil
	}
	if len(rest) < 3 {
		flags.Usage()
		return usagef("requests expects approve or reject followed by a user id")
	}

	action, userID := rest[1], rest[2]
	if err := a.coordinator.HandleJoinRequest(a.ctx, group.ID, userID, action); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Request %s.\n", lo.Ternary(action == gateway.RequestActionApprove, "approved", "rejected"))
	return nil
}

func runKick(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 2)
	if err != nil {
		return err
	}
	if _, err := a.coordinator.LoadGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	if err := a.coordinator.RemoveMember(a.ctx, rest[0], rest[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Member removed.")
	return nil
}

func runPromote(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 2)
	if err != nil {
		return err
	}
	if _, err := a.coordinator.LoadGroup(a.ctx, rest[0]); err != nil {
		return err
	}
	if err := a.coordinator.PromoteMember(a.ctx, rest[0], rest[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Member promoted to admin.")
	return nil
}
