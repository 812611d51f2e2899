// Command seed fills a development database with groups, users and posts.
package main

import (
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	postsPerUser := flag.Int("posts", 15, "Number of posts per user")
	maxDays := flag.Int("days", 90, "Spread publication dates over this many days")
	groupsFile := flag.String("groups", "", "YAML file with group fixtures (defaults to the built-in list)")
	shouldClean := flag.Bool("clean", false, "Delete all posts, groups and users first")
	fast := flag.Bool("fast", false, "Hash the seed password with the minimum bcrypt cost")
	dryRun := flag.Bool("dry-run", false, "Build data without writing to the database")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(db, seed.Options{
		NumUsers:     *numUsers,
		PostsPerUser: *postsPerUser,
		MaxDays:      *maxDays,
		GroupsFile:   *groupsFile,
		ShouldClean:  *shouldClean,
		FastHash:     *fast,
		DryRun:       *dryRun,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d groups, %d users, %d posts", res.Groups, res.Users, res.Posts)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
