package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"git.solsynth.dev/hypernet/cuisine/pkg/internal/models"
	"git.solsynth.dev/hypernet/cuisine/pkg/internal/services"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

func init() {
	register(
		command{
			name:    "login",
			usage:   "-token <token> (-id <account> | -profile <file>) [-name] [-avatar] [-bio] [-aliases a,b]",
			summary: "Store the account this client acts as",
			run:     runLogin,
		},
		command{
			name:    "logout",
			summary: "Forget the stored account",
			run:     runLogout,
		},
		command{
			name:    "whoami",
			summary: "Show the stored account",
			run:     runWhoami,
		},
		command{
			name:    "settings",
			summary: "Show the effective settings",
			run:     runSettings,
		},
	)
}

func runLogin(a *app, flags *flag.FlagSet, args []string) error {
	token := flags.String("token", "", "bearer token issued by the server")
	id := flags.String("id", "", "account id")
	name := flags.String("name", "", "display name")
	avatar := flags.String("avatar", "", "avatar url")
	bio := flags.String("bio", "", "short bio")
	aliases := flags.String("aliases", "", "comma separated ids the server also uses for this account")
	profile := flags.String("profile", "", "JSON file with the account profile as returned by the server")
	if err := flags.Parse(args); err != nil {
		return err
	}

	var account models.Account
	if len(*profile) > 0 {
		raw, err := os.ReadFile(*profile)
		if err != nil {
			return fmt.Errorf("unable to read profile: %v", err)
		}
		account = services.NormalizeAccount(raw)
		if len(account.ID) == 0 {
			return usagef("profile %s does not contain an account id", *profile)
		}
	}
	account.ID = lo.CoalesceOrEmpty(strings.TrimSpace(*id), account.ID)
	if len(account.ID) == 0 {
		return usagef("an account id is required, pass -id or -profile")
	}
	if len(*name) > 0 {
		account.Name = *name
	}
	if len(*avatar) > 0 {
		account.Avatar = *avatar
	}
	if len(*bio) > 0 {
		account.Bio = *bio
	}
	if len(account.Name) == 0 {
		account.Name = models.AnonymousName
	}

	others := lo.Compact(lo.Map(strings.Split(*aliases, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
	others = lo.Without(lo.Uniq(others), account.ID)

	session, err := services.SaveSession(account, others, *token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Signed in as %s (%s)\n", color.New(color.Bold).Sprint(session.Name), session.AccountID)
	return nil
}

func runLogout(a *app, flags *flag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := services.ClearSession(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Signed out.")
	return nil
}

func runWhoami(a *app, flags *flag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return err
	}
	viewer, token, err := services.LoadViewer()
	if err != nil {
		return err
	}
	if viewer.IsAnonymous() {
		fmt.Fprintln(a.stdout, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.stdout, "%s (%s)\n", color.New(color.Bold).Sprint(viewer.DisplayName()), viewer.ID)
	if len(viewer.Aliases) > 0 {
		fmt.Fprintf(a.stdout, "Also known as: %s\n", strings.Join(viewer.Aliases, ", "))
	}
	if len(viewer.Bio) > 0 {
		fmt.Fprintln(a.stdout, viewer.Bio)
	}
	fmt.Fprintf(a.stdout, "Token: %s\n", lo.Ternary(len(token) > 0, "stored", "none"))
	return nil
}

func runSettings(a *app, flags *flag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return err
	}
	settings := []lo.Entry[string, string]{
		{Key: "endpoint", Value: viper.GetString("endpoint")},
		{Key: "timeouts.read", Value: viper.GetDuration("timeouts.read").String()},
		{Key: "timeouts.write", Value: viper.GetDuration("timeouts.write").String()},
		{Key: "database.dsn", Value: viper.GetString("database.dsn")},
		{Key: "cache.ttl", Value: viper.GetDuration("cache.ttl").String()},
		{Key: "debug", Value: fmt.Sprint(viper.GetBool("debug"))},
	}
	if file := viper.ConfigFileUsed(); len(file) > 0 {
		fmt.Fprintf(a.stdout, "Loaded from %s\n", file)
	}
	for _, item := range settings {
		fmt.Fprintf(a.stdout, "%-15s %s\n", item.Key, item.Value)
	}
	return nil
}
