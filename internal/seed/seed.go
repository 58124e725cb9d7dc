package seed

import (
	"context"
	"fmt"
	"log"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// Options configuration for the seeder
type Options struct {
	NumUsers   int
	NumPosts   int
	SkipBcrypt bool
}

// Seed populates the repositories with demo data: users, posts, comments
// and likes. The first created user is promoted to admin.
func Seed(ctx context.Context, posts repository.PostRepository, users repository.UserRepository, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 30
	}

	log.Printf("Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	f := NewFactory(posts, users, opts)

	seeded := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		var overrides []func(*models.User)
		if i == 0 {
			overrides = append(overrides, func(u *models.User) {
				u.Name = "Admin"
				u.Email = "admin@example.com"
				u.Role = models.RoleAdmin
			})
		}
		user, err := f.CreateUser(ctx, overrides...)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		seeded = append(seeded, user)
	}
	log.Printf("created %d users", len(seeded))

	created := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := seeded[f.rand.Intn(len(seeded))]
		post, err := f.CreatePost(ctx, author)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		created = append(created, post)
	}
	log.Printf("created %d posts", len(created))

	// Sprinkle likes and comments across the posts.
	var likes, comments int
	for _, post := range created {
		for _, user := range seeded {
			switch f.rand.Intn(4) {
			case 0:
				if err := f.CreateLike(ctx, user, post); err != nil {
					return fmt.Errorf("failed to like post: %w", err)
				}
				likes++
			case 1:
				if _, err := f.CreateComment(ctx, user, post); err != nil {
					return fmt.Errorf("failed to comment on post: %w", err)
				}
				comments++
			}
		}
	}
	log.Printf("created %d likes and %d comments", likes, comments)

	log.Println("Seeding completed successfully")
	return nil
}
