// Package service implements the application's domain operations on top of
// the repository layer.
package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen   = 100
	maxContentLen = 5000
	maxCommentLen = 500

	popularTagsLimit = 10
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	isAdmin  func(ctx context.Context, userID bson.ObjectID) (bool, error)
}

type CreatePostInput struct {
	AuthorID bson.ObjectID
	Title    string
	Content  string
	Tags     []string
	Image    string
}

type ListPostsInput struct {
	Search string
	Tag    string
	Author string
	Page   int
	Limit  int
}

// UpdatePostInput carries a partial update. Nil fields are left untouched;
// a present-but-empty title or content is rejected, while image and
// isPublished accept their zero values.
type UpdatePostInput struct {
	PostID      bson.ObjectID
	UserID      bson.ObjectID
	Title       *string
	Content     *string
	Tags        *[]string
	Image       *string
	IsPublished *bool
}

type DeletePostInput struct {
	PostID bson.ObjectID
	UserID bson.ObjectID
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts       []*models.Post `json:"posts"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	isAdmin func(ctx context.Context, userID bson.ObjectID) (bool, error),
) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		isAdmin:  isAdmin,
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = 10
	}

	filter := repository.PostFilter{
		Search: strings.TrimSpace(in.Search),
		Tag:    strings.TrimSpace(in.Tag),
	}
	if in.Author != "" {
		authorID, err := bson.ObjectIDFromHex(in.Author)
		if err != nil {
			return nil, models.NewValidationError("Invalid author ID")
		}
		filter.Author = &authorID
	}

	posts, total, err := s.postRepo.List(ctx, filter, limit, (page-1)*limit)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	if err := s.populate(ctx, posts, false); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &PostPage{
		Posts:       posts,
		TotalPages:  totalPages,
		CurrentPage: page,
		Total:       total,
	}, nil
}

// GetPost returns a single post. When a viewer is supplied the read counts
// as a view and viewCount is incremented atomically; the returned document
// reflects the increment. Anonymous reads never increment.
func (s *PostService) GetPost(ctx context.Context, postID bson.ObjectID, viewerID *bson.ObjectID) (*models.Post, error) {
	var post *models.Post
	var err error

	if viewerID != nil {
		post, err = s.postRepo.IncrementViews(ctx, postID)
		if err == nil && post != nil {
			observability.PostViewsTotal.Inc()
		}
	} else {
		post, err = s.postRepo.GetByID(ctx, postID)
	}
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID.Hex())
	}

	if err := s.populate(ctx, []*models.Post{post}, true); err != nil {
		return nil, err
	}
	return post, nil
}

// PopularTags returns the most used tags across published posts, most used
// first. The relative order of equally used tags is unspecified.
func (s *PostService) PopularTags(ctx context.Context) ([]models.TagCount, error) {
	tags, err := s.postRepo.PopularTags(ctx, popularTagsLimit)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return tags, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", models.NewValidationError("Title too long (max 100 characters)")
	}
	return title, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "", models.NewValidationError("Content too long (max 5000 characters)")
	}
	return content, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	post := &models.Post{
		Title:       title,
		Content:     content,
		AuthorID:    in.AuthorID,
		Tags:        tags,
		Image:       in.Image,
		IsPublished: true,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, models.NewStoreError(err)
	}

	if err := s.populate(ctx, []*models.Post{post}, true); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	// Validate present fields before touching the store so malformed input
	// is reported as such even when the caller is not the author.
	set := bson.M{}
	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		set["title"] = title
	}
	if in.Content != nil {
		content, err := validateContent(*in.Content)
		if err != nil {
			return nil, err
		}
		set["content"] = content
	}
	if in.Tags != nil {
		tags := *in.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if in.Image != nil {
		set["image"] = *in.Image
	}
	if in.IsPublished != nil {
		set["isPublished"] = *in.IsPublished
	}

	post, err := s.getOwned(ctx, in.PostID, in.UserID, "update")
	if err != nil {
		return nil, err
	}

	if len(set) > 0 {
		post, err = s.postRepo.Update(ctx, in.PostID, set)
		if err != nil {
			return nil, models.NewStoreError(err)
		}
		if post == nil {
			return nil, models.NewNotFoundError("Post", in.PostID.Hex())
		}
	}

	if err := s.populate(ctx, []*models.Post{post}, true); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	if _, err := s.getOwned(ctx, in.PostID, in.UserID, "delete"); err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return models.NewStoreError(err)
	}
	return nil
}

// ToggleLike flips the caller's like on a post and reports whether the post
// was liked before the toggle. The underlying $addToSet/$pull updates are
// idempotent, so concurrent toggles by the same user converge.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID bson.ObjectID) (*models.Post, bool, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, false, models.NewStoreError(err)
	}
	if post == nil {
		return nil, false, models.NewNotFoundError("Post", postID.Hex())
	}

	wasLiked := post.IsLikedBy(userID)
	if wasLiked {
		post, err = s.postRepo.RemoveLike(ctx, postID, userID)
	} else {
		post, err = s.postRepo.AddLike(ctx, postID, userID)
	}
	if err != nil {
		return nil, false, models.NewStoreError(err)
	}
	if post == nil {
		return nil, false, models.NewNotFoundError("Post", postID.Hex())
	}

	if err := s.populate(ctx, []*models.Post{post}, true); err != nil {
		return nil, false, err
	}
	return post, wasLiked, nil
}

func (s *PostService) AddComment(ctx context.Context, postID, userID bson.ObjectID, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 500 characters)")
	}

	comment := models.Comment{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	post, err := s.postRepo.AddComment(ctx, postID, comment)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID.Hex())
	}

	if err := s.populate(ctx, []*models.Post{post}, true); err != nil {
		return nil, err
	}
	return post, nil
}

// getOwned fetches a post and verifies the caller may mutate it.
// Authors may always mutate their own posts; admins may mutate any post.
func (s *PostService) getOwned(ctx context.Context, postID, userID bson.ObjectID, action string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID.Hex())
	}

	if post.AuthorID != userID {
		if s.isAdmin == nil {
			return nil, models.NewForbiddenError("You can only " + action + " your own posts")
		}
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return nil, models.NewStoreError(err)
		}
		if !admin {
			return nil, models.NewForbiddenError("You can only " + action + " your own posts")
		}
	}
	return post, nil
}

// populate performs the read-side join: author and liker references on every
// post, plus comment author references on single-post reads.
func (s *PostService) populate(ctx context.Context, posts []*models.Post, includeCommentUsers bool) error {
	if len(posts) == 0 {
		return nil
	}

	span, ctx := observability.NewSpan(ctx, "service.populatePosts")
	defer span.End()
	span.AddAttributes(attribute.Int("posts.count", len(posts)))

	seen := map[bson.ObjectID]struct{}{}
	var ids []bson.ObjectID
	add := func(id bson.ObjectID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	for _, p := range posts {
		add(p.AuthorID)
		for _, id := range p.Likes {
			add(id)
		}
		if includeCommentUsers {
			for _, c := range p.Comments {
				add(c.UserID)
			}
		}
	}

	users, err := s.userRepo.GetManyByIDs(ctx, ids)
	if err != nil {
		span.SetError(err)
		return models.NewStoreError(err)
	}
	refs := make(map[bson.ObjectID]models.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = u.Ref()
	}

	for _, p := range posts {
		if ref, ok := refs[p.AuthorID]; ok {
			p.Author = &ref
		}
		p.LikeCount = len(p.Likes)
		p.LikedBy = make([]models.UserRef, 0, len(p.Likes))
		for _, id := range p.Likes {
			if ref, ok := refs[id]; ok {
				p.LikedBy = append(p.LikedBy, models.UserRef{ID: ref.ID, Name: ref.Name})
			}
		}
		if includeCommentUsers {
			for i := range p.Comments {
				if ref, ok := refs[p.Comments[i].UserID]; ok {
					ref := ref
					p.Comments[i].User = &ref
				}
			}
		}
	}
	return nil
}
