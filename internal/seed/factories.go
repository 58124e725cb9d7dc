// Package seed provides helpers to create test and demo data for the
// application. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

var tagPool = []string{
	"go", "web", "databases", "devops", "testing", "architecture",
	"performance", "security", "tooling", "cloud", "opinion", "tutorial",
}

// Factory builds domain entities and persists them through the repositories.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	posts repository.PostRepository
	users repository.UserRepository
	opts  Options
	rand  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided repositories.
func NewFactory(posts repository.PostRepository, users repository.UserRepository, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		posts: posts,
		users: users,
		opts:  opts,
		// #nosec G404: acceptable for seeding
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:   gofakeit.Name(),
		Email:  gofakeit.Email(),
		Bio:    gofakeit.Sentence(10),
		Avatar: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample `models.Post` for the given user.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:       strings.TrimSuffix(gofakeit.Sentence(5), "."),
		Content:     gofakeit.Paragraph(1, 3, 5, "\n"),
		AuthorID:    author.ID,
		Tags:        f.randomTags(),
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
		IsPublished: true,
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment appends a generated comment from `user` on `post`.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Post, error) {
	comment := models.Comment{
		ID:        bson.NewObjectID(),
		UserID:    user.ID,
		Content:   gofakeit.Sentence(8),
		CreatedAt: time.Now().UTC(),
	}
	return f.posts.AddComment(ctx, post.ID, comment)
}

// CreateLike records a like from `user` on `post`.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	_, err := f.posts.AddLike(ctx, post.ID, user.ID)
	return err
}

// randomTags picks 1-3 distinct tags from the pool.
func (f *Factory) randomTags() []string {
	n := 1 + f.rand.Intn(3)
	perm := f.rand.Perm(len(tagPool))
	tags := make([]string, 0, n)
	for _, i := range perm[:n] {
		tags = append(tags, tagPool[i])
	}
	return tags
}
