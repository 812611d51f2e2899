// Package main provides group and account management for Yatube operators.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin create-group -title <title> -slug <slug> [-description <text>]")
	fmt.Println("  admin list-groups")
	fmt.Println("  admin show-group <slug>")
	fmt.Println("  admin list-users [-limit n] [-offset n]")
	fmt.Println("  admin delete-group <slug>   - posts stay, their group is cleared")
	fmt.Println("  admin delete-user <username> - the user's posts are deleted too")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	groups := service.NewGroupService(repository.NewGroupRepository(db))
	users := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "create-group":
		err = createGroup(ctx, groups, args)
	case "list-groups":
		err = listGroups(ctx, groups)
	case "show-group":
		if len(args) != 1 {
			usage()
			os.Exit(1)
		}
		err = showGroup(ctx, groups, args[0])
	case "list-users":
		err = listUsers(ctx, users, args)
	case "delete-group":
		if len(args) != 1 {
			usage()
			os.Exit(1)
		}
		err = groups.DeleteGroup(ctx, args[0])
		if err == nil {
			fmt.Printf("Deleted group %s\n", args[0])
		}
	case "delete-user":
		if len(args) != 1 {
			usage()
			os.Exit(1)
		}
		err = users.DeleteUser(ctx, args[0])
		if err == nil {
			fmt.Printf("Deleted user %s and their posts\n", args[0])
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		report(err)
		os.Exit(1)
	}
}

func createGroup(ctx context.Context, groups *service.GroupService, args []string) error {
	fs := flag.NewFlagSet("create-group", flag.ExitOnError)
	title := fs.String("title", "", "Group title")
	slug := fs.String("slug", "", "URL slug")
	description := fs.String("description", "", "Group description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	group, err := groups.CreateGroup(ctx, service.CreateGroupInput{
		Title:       *title,
		Slug:        *slug,
		Description: *description,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created group %s (ID: %d)\n", group.Slug, group.ID)
	return nil
}

func listGroups(ctx context.Context, groups *service.GroupService) error {
	list, err := groups.ListGroups(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No groups found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tTITLE")
	for _, g := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
	}
	return w.Flush()
}

func showGroup(ctx context.Context, groups *service.GroupService, slug string) error {
	group, err := groups.GetGroup(ctx, slug)
	if err != nil {
		return err
	}
	fmt.Printf("ID:          %d\n", group.ID)
	fmt.Printf("Slug:        %s\n", group.Slug)
	fmt.Printf("Title:       %s\n", group.Title)
	fmt.Printf("Description: %s\n", group.Description)
	return nil
}

func listUsers(ctx context.Context, users *service.UserService, args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum number of users")
	offset := fs.Int("offset", 0, "Number of users to skip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := users.ListUsers(ctx, *limit, *offset)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tJOINED")
	for _, u := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func report(err error) {
	if fields := models.FieldErrorsOf(err); len(fields) > 0 {
		for _, name := range fields.Fields() {
			for _, msg := range fields[name] {
				fmt.Printf("%s: %s\n", name, msg)
			}
		}
		return
	}
	fmt.Printf("Error: %v\n", err)
}
