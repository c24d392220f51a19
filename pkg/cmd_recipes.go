package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/services"
	"github.com/samber/lo"
)

func init() {
	register(
		command{
			name:    "feed",
			usage:   "[-category c] [-meat m] [-time under30|30to60|60to120|over120] [-sort newest|oldest|popular] [-group id]",
			summary: "List recipes from you and your groups",
			online:  true,
			run:     runFeed,
		},
		command{
			name:    "show",
			usage:   "<recipe>",
			summary: "Show one recipe with its comments",
			online:  true,
			run:     runShow,
		},
		command{
			name:    "like",
			usage:   "<recipe>",
			summary: "Like or unlike a recipe",
			online:  true,
			run:     runLike,
		},
		command{
			name:    "comment",
			usage:   "<recipe> <text>",
			summary: "Comment on a recipe",
			online:  true,
			run:     runComment,
		},
		command{
			name:    "uncomment",
			usage:   "<recipe> <comment>",
			summary: "Delete a comment",
			online:  true,
			run:     runUncomment,
		},
		command{
			name:    "post",
			usage:   "-title t -ingredients i -instructions i -category c -meat m [-group id] ...",
			summary: "Share a recipe, optionally in a group",
			online:  true,
			run:     runPost,
		},
		command{
			name:    "edit-post",
			usage:   "<recipe> [-title t] [-ingredients i] ...",
			summary: "Edit one of your recipes",
			online:  true,
			run:     runEditPost,
		},
		command{
			name:    "delete-post",
			usage:   "<recipe>",
			summary: "Delete a recipe",
			online:  true,
			run:     runDeletePost,
		},
		command{
			name:    "moderate",
			usage:   "<recipe> approve|reject",
			summary: "Approve or reject a pending group recipe",
			online:  true,
			run:     runModerate,
		},
	)
}

func (a *app) refresh() error {
	_, err := a.coordinator.RefreshFeed(a.ctx, services.FeedOptions{})
	return a.tolerate(err)
}

// tolerate prints a partial refresh as a warning so the command can go on
// with what did load.
func (a *app) tolerate(err error) error {
	if services.IsPartialRefresh(err) {
		printError(a.stderr, err)
		return nil
	}
	return err
}

// positional parses flags and requires at least n positional arguments.
func positional(flags *flag.FlagSet, args []string, n int) ([]string, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() < n {
		flags.Usage()
		return nil, usagef("%s expects %d argument(s)", flags.Name(), n)
	}
	return flags.Args(), nil
}

func runFeed(a *app, flags *flag.FlagSet, args []string) error {
	var options services.FeedOptions
	flags.StringVar(&options.Category, "category", models.FilterAll, "recipe category")
	flags.StringVar(&options.MeatType, "meat", models.FilterAll, "meat type")
	flags.StringVar(&options.CookingTimeBucket, "time", models.FilterAll, "cooking time bucket")
	flags.StringVar(&options.SortBy, "sort", models.SortNewest, "sort order")
	group := flags.String("group", "", "only show recipes from this group")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := options.Validate(); err != nil {
		return err
	}

	posts, err := a.coordinator.RefreshFeed(a.ctx, options)
	if err = a.tolerate(err); err != nil {
		return err
	}
	if len(*group) > 0 {
		if _, _, err := a.coordinator.RefreshGroup(a.ctx, *group); err != nil {
			return err
		}
		posts = a.coordinator.GroupFeed(*group, options)
	}

	printFeed(a.stdout, posts, a.coordinator.Viewer)
	return nil
}

func runShow(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}
	post, ok := lo.Find(a.coordinator.Feed(services.FeedOptions{}), func(item models.Post) bool {
		return item.ID == rest[0]
	})
	if !ok {
		return &services.ValidationError{Field: "recipe", Message: fmt.Sprintf("recipe %q is not in your feed", rest[0]), Err: services.ErrNotFound}
	}
	printPostDetail(a.stdout, post, a.coordinator.Viewer)
	return nil
}

func runLike(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}
	liked, err := a.coordinator.ToggleLike(a.ctx, rest[0])
	if err != nil {
		return err
	}
	post, _ := a.coordinator.Posts.Get(rest[0])
	fmt.Fprintf(a.stdout, "%s %s (%d likes)\n", lo.Ternary(liked, "Liked", "Unliked"), post.Title, len(post.LikerIDs))
	return nil
}

func runComment(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 2)
	if err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}
	comment, err := a.coordinator.AddComment(a.ctx, rest[0], strings.Join(rest[1:], " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Commented [%s]\n", comment.ID)
	return nil
}

func runUncomment(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 2)
	if err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}
	if err := a.coordinator.DeleteComment(a.ctx, rest[0], rest[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Comment deleted.")
	return nil
}

// draftFlags binds every editable recipe field. Text fields accept @file to
// read the value from a file.
func draftFlags(flags *flag.FlagSet, draft *models.PostDraft) {
	flags.StringVar(&draft.Title, "title", draft.Title, "title")
	flags.StringVar(&draft.Description, "description", draft.Description, "description")
	flags.StringVar(&draft.Ingredients, "ingredients", draft.Ingredients, "ingredients, or @file")
	flags.StringVar(&draft.Instructions, "instructions", draft.Instructions, "instructions, or @file")
	flags.StringVar(&draft.Image, "image", draft.Image, "image url")
	flags.StringVar(&draft.Category, "category", draft.Category, "recipe category")
	flags.StringVar(&draft.MeatType, "meat", draft.MeatType, "meat type")
	flags.IntVar(&draft.PrepTimeMinutes, "time", draft.PrepTimeMinutes, "preparation time in minutes")
	flags.IntVar(&draft.Servings, "servings", lo.Max([]int{draft.Servings, 1}), "servings")
}

func expandFileArgs(values ...*string) error {
	for _, value := range values {
		if !strings.HasPrefix(*value, "@") {
			continue
		}
		raw, err := os.ReadFile(strings.TrimPrefix(*value, "@"))
		if err != nil {
			return fmt.Errorf("unable to read %s: %v", *value, err)
		}
		*value = string(raw)
	}
	return nil
}

func runPost(a *app, flags *flag.FlagSet, args []string) error {
	var draft models.PostDraft
	draftFlags(flags, &draft)
	flags.StringVar(&draft.GroupID, "group", "", "post in this group")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := expandFileArgs(&draft.Description, &draft.Ingredients, &draft.Instructions); err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}

	post, err := a.coordinator.CreatePost(a.ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Posted [%s]\n", post.ID)
	if post.IsPending() {
		warnColor.Fprintln(a.stdout, "It will show up for the group once an admin approves it.")
	}
	return nil
}

func runEditPost(a *app, flags *flag.FlagSet, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		flags.Usage()
		return usagef("edit-post expects the recipe id first")
	}
	if err := a.refresh(); err != nil {
		return err
	}
	current, ok := a.coordinator.Posts.Get(args[0])
	if !ok {
		return &services.ValidationError{Field: "recipe", Message: fmt.Sprintf("recipe %q is not in your feed", args[0]), Err: services.ErrNotFound}
	}

	draft := models.PostDraft{
		Title:           current.Title,
		Description:     current.Description,
		Ingredients:     current.Ingredients,
		Instructions:    current.Instructions,
		Category:        current.Category,
		MeatType:        current.MeatType,
		PrepTimeMinutes: current.PrepTimeMinutes,
		Servings:        current.Servings,
	}
	draftFlags(flags, &draft)
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if err := expandFileArgs(&draft.Description, &draft.Ingredients, &draft.Instructions); err != nil {
		return err
	}

	post, err := a.coordinator.UpdatePost(a.ctx, current.ID, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated %s\n", post.Title)
	return nil
}

func runDeletePost(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 1)
	if err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}
	if err := a.coordinator.DeletePost(a.ctx, rest[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Recipe deleted.")
	return nil
}

func runModerate(a *app, flags *flag.FlagSet, args []string) error {
	rest, err := positional(flags, args, 2)
	if err != nil {
		return err
	}
	if err := a.refresh(); err != nil {
		return err
	}
	if err := a.coordinator.ModeratePost(a.ctx, rest[0], rest[1]); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Recipe %s.\n", lo.Ternary(rest[1] == services.ModerateApprove, "approved", "rejected"))
	return nil
}
