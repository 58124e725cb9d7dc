package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"inkwell/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryPostRepository is an in-memory PostRepository used by tests and
// local development. Search is a case-insensitive substring match over
// title and content rather than Mongo text search.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[bson.ObjectID]*models.Post
}

// NewMemoryPostRepository creates an empty in-memory post repository.
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[bson.ObjectID]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Likes = append([]bson.ObjectID(nil), p.Likes...)
	cp.Comments = append([]models.Comment(nil), p.Comments...)
	return &cp
}

func (r *MemoryPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	post.ID = bson.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Likes == nil {
		post.Likes = []bson.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}

	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *MemoryPostRepository) GetByID(_ context.Context, id bson.ObjectID) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(post), nil
}

func (r *MemoryPostRepository) IncrementViews(_ context.Context, id bson.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	post.ViewCount++
	return clonePost(post), nil
}

func matchesFilter(p *models.Post, f PostFilter) bool {
	if !p.IsPublished {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) {
			return false
		}
	}
	if f.Tag != "" {
		found := false
		for _, t := range p.Tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Author != nil && p.AuthorID != *f.Author {
		return false
	}
	return true
}

func (r *MemoryPostRepository) List(_ context.Context, filter PostFilter, limit, skip int) ([]*models.Post, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*models.Post{}
	for _, p := range r.posts {
		if matchesFilter(p, filter) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})

	total := int64(len(matched))

	if skip >= len(matched) {
		return []*models.Post{}, total, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.Post, len(matched))
	for i, p := range matched {
		out[i] = clonePost(p)
	}
	return out, total, nil
}

func (r *MemoryPostRepository) Update(_ context.Context, id bson.ObjectID, set bson.M) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}

	for field, value := range set {
		switch field {
		case "title":
			post.Title = value.(string)
		case "content":
			post.Content = value.(string)
		case "tags":
			post.Tags = append([]string(nil), value.([]string)...)
		case "image":
			post.Image = value.(string)
		case "isPublished":
			post.IsPublished = value.(bool)
		}
	}
	post.UpdatedAt = time.Now().UTC()
	return clonePost(post), nil
}

func (r *MemoryPostRepository) Delete(_ context.Context, id bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.posts, id)
	return nil
}

func (r *MemoryPostRepository) AddLike(_ context.Context, postID, userID bson.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, nil
	}
	if !post.IsLikedBy(userID) {
		post.Likes = append(post.Likes, userID)
	}
	return clonePost(post), nil
}

func (r *MemoryPostRepository) RemoveLike(_ context.Context, postID, userID bson.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, nil
	}
	likes := post.Likes[:0]
	for _, id := range post.Likes {
		if id != userID {
			likes = append(likes, id)
		}
	}
	post.Likes = likes
	return clonePost(post), nil
}

func (r *MemoryPostRepository) AddComment(_ context.Context, postID bson.ObjectID, comment models.Comment) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, nil
	}
	post.Comments = append(post.Comments, comment)
	post.UpdatedAt = time.Now().UTC()
	return clonePost(post), nil
}

func (r *MemoryPostRepository) PopularTags(_ context.Context, limit int) ([]models.TagCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	counts := map[string]int64{}
	for _, p := range r.posts {
		if !p.IsPublished {
			continue
		}
		for _, t := range p.Tags {
			counts[t]++
		}
	}

	tags := make([]models.TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, models.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

// MemoryUserRepository is an in-memory UserRepository used by tests and
// local development.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[bson.ObjectID]*models.User
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[bson.ObjectID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	return &cp
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetManyByIDs(_ context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *MemoryUserRepository) List(_ context.Context, limit, skip int) ([]*models.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID.Hex() > users[j].ID.Hex()
	})

	total := int64(len(users))

	if skip >= len(users) {
		return []*models.User{}, total, nil
	}
	users = users[skip:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}

	out := make([]*models.User, len(users))
	for i, u := range users {
		out[i] = cloneUser(u)
	}
	return out, total, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, id bson.ObjectID, set bson.M) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}

	for field, value := range set {
		switch field {
		case "name":
			user.Name = value.(string)
		case "avatar":
			user.Avatar = value.(string)
		case "bio":
			user.Bio = value.(string)
		case "role":
			user.Role = value.(string)
		case "password":
			user.Password = value.(string)
		}
	}
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}
