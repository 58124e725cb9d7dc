package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, bson.ObjectID) (*models.Post, error)
	incrementViewsFn func(context.Context, bson.ObjectID) (*models.Post, error)
	listFn           func(context.Context, repository.PostFilter, int, int) ([]*models.Post, int64, error)
	updateFn         func(context.Context, bson.ObjectID, bson.M) (*models.Post, error)
	deleteFn         func(context.Context, bson.ObjectID) error
	addLikeFn        func(context.Context, bson.ObjectID, bson.ObjectID) (*models.Post, error)
	removeLikeFn     func(context.Context, bson.ObjectID, bson.ObjectID) (*models.Post, error)
	addCommentFn     func(context.Context, bson.ObjectID, models.Comment) (*models.Post, error)
	popularTagsFn    func(context.Context, int) ([]models.TagCount, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id bson.ObjectID) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) IncrementViews(ctx context.Context, id bson.ObjectID) (*models.Post, error) {
	return s.incrementViewsFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter, limit, skip int) ([]*models.Post, int64, error) {
	return s.listFn(ctx, filter, limit, skip)
}
func (s *postRepoStub) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Post, error) {
	return s.updateFn(ctx, id, set)
}
func (s *postRepoStub) Delete(ctx context.Context, id bson.ObjectID) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) AddLike(ctx context.Context, postID, userID bson.ObjectID) (*models.Post, error) {
	return s.addLikeFn(ctx, postID, userID)
}
func (s *postRepoStub) RemoveLike(ctx context.Context, postID, userID bson.ObjectID) (*models.Post, error) {
	return s.removeLikeFn(ctx, postID, userID)
}
func (s *postRepoStub) AddComment(ctx context.Context, postID bson.ObjectID, comment models.Comment) (*models.Post, error) {
	return s.addCommentFn(ctx, postID, comment)
}
func (s *postRepoStub) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	return s.popularTagsFn(ctx, limit)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:        func(_ context.Context, _ bson.ObjectID) (*models.Post, error) { return &models.Post{}, nil },
		incrementViewsFn: func(_ context.Context, _ bson.ObjectID) (*models.Post, error) { return &models.Post{}, nil },
		listFn: func(_ context.Context, _ repository.PostFilter, _, _ int) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		updateFn: func(_ context.Context, _ bson.ObjectID, _ bson.M) (*models.Post, error) {
			return &models.Post{}, nil
		},
		deleteFn: func(_ context.Context, _ bson.ObjectID) error { return nil },
		addLikeFn: func(_ context.Context, _, _ bson.ObjectID) (*models.Post, error) {
			return &models.Post{}, nil
		},
		removeLikeFn: func(_ context.Context, _, _ bson.ObjectID) (*models.Post, error) {
			return &models.Post{}, nil
		},
		addCommentFn: func(_ context.Context, _ bson.ObjectID, _ models.Comment) (*models.Post, error) {
			return &models.Post{}, nil
		},
		popularTagsFn: func(_ context.Context, _ int) ([]models.TagCount, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn       func(context.Context, *models.User) error
	getByIDFn      func(context.Context, bson.ObjectID) (*models.User, error)
	getByEmailFn   func(context.Context, string) (*models.User, error)
	getManyByIDsFn func(context.Context, []bson.ObjectID) ([]*models.User, error)
	listFn         func(context.Context, int, int) ([]*models.User, int64, error)
	updateFn       func(context.Context, bson.ObjectID, bson.M) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetManyByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	return s.getManyByIDsFn(ctx, ids)
}
func (s *userRepoStub) List(ctx context.Context, limit, skip int) ([]*models.User, int64, error) {
	return s.listFn(ctx, limit, skip)
}
func (s *userRepoStub) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error) {
	return s.updateFn(ctx, id, set)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:       func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn:      func(_ context.Context, _ bson.ObjectID) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getManyByIDsFn: func(_ context.Context, _ []bson.ObjectID) ([]*models.User, error) { return nil, nil },
		listFn:         func(_ context.Context, _, _ int) ([]*models.User, int64, error) { return nil, 0, nil },
		updateFn:       func(_ context.Context, _ bson.ObjectID, _ bson.M) (*models.User, error) { return &models.User{}, nil },
	}
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, "VALIDATION_ERROR")
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, "FORBIDDEN")
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, "NOT_FOUND")
}

func allowAdmin(_ context.Context, _ bson.ObjectID) (bool, error)  { return true, nil }
func rejectAdmin(_ context.Context, _ bson.ObjectID) (bool, error) { return false, nil }

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopUserRepo(), nil)
	ctx := context.Background()
	author := bson.NewObjectID()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{
			name:  "empty title",
			input: CreatePostInput{AuthorID: author, Content: "some content"},
		},
		{
			name:  "whitespace title",
			input: CreatePostInput{AuthorID: author, Title: "   ", Content: "some content"},
		},
		{
			name:  "title too long",
			input: CreatePostInput{AuthorID: author, Title: strings.Repeat("x", 101), Content: "c"},
		},
		{
			name:  "empty content",
			input: CreatePostInput{AuthorID: author, Title: "T"},
		},
		{
			name:  "whitespace content",
			input: CreatePostInput{AuthorID: author, Title: "T", Content: " \t "},
		},
		{
			name:  "content too long",
			input: CreatePostInput{AuthorID: author, Title: "T", Content: strings.Repeat("x", 5001)},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, tc.input)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_CreatePost_Defaults(t *testing.T) {
	t.Parallel()

	var created *models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = bson.NewObjectID()
		created = p
		return nil
	}

	svc := NewPostService(repo, noopUserRepo(), nil)
	author := bson.NewObjectID()

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: author,
		Title:    "  Hello  ",
		Content:  "World",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "Hello", created.Title, "title is trimmed")
	assert.Equal(t, author, created.AuthorID)
	assert.True(t, created.IsPublished, "new posts are published")
	assert.NotNil(t, created.Tags)
	assert.Empty(t, created.Tags)
	assert.Equal(t, int64(0), created.ViewCount)
	assert.Equal(t, 0, post.LikeCount)
	assert.Empty(t, post.Comments)
}

func TestPostService_ListPosts_Pagination(t *testing.T) {
	t.Parallel()

	var gotLimit, gotSkip int
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, _ repository.PostFilter, limit, skip int) ([]*models.Post, int64, error) {
		gotLimit, gotSkip = limit, skip
		return []*models.Post{}, 25, nil
	}

	svc := NewPostService(repo, noopUserRepo(), nil)

	page, err := svc.ListPosts(context.Background(), ListPostsInput{Page: 3, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 20, gotSkip)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages, "ceil(25/10)")
	assert.Equal(t, int64(25), page.Total)
	assert.Empty(t, page.Posts, "page beyond the data is empty but totals stay correct")
}

func TestPostService_ListPosts_Defaults(t *testing.T) {
	t.Parallel()

	var gotLimit, gotSkip int
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, _ repository.PostFilter, limit, skip int) ([]*models.Post, int64, error) {
		gotLimit, gotSkip = limit, skip
		return []*models.Post{}, 0, nil
	}

	svc := NewPostService(repo, noopUserRepo(), nil)

	page, err := svc.ListPosts(context.Background(), ListPostsInput{Page: -5, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 0, gotSkip)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 0, page.TotalPages)
}

func TestPostService_ListPosts_InvalidAuthor(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopUserRepo(), nil)
	_, err := svc.ListPosts(context.Background(), ListPostsInput{Author: "not-a-hex-id"})
	assertValidationError(t, err)
}

func TestPostService_ListPosts_FilterPassthrough(t *testing.T) {
	t.Parallel()

	author := bson.NewObjectID()
	var gotFilter repository.PostFilter
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, f repository.PostFilter, _, _ int) ([]*models.Post, int64, error) {
		gotFilter = f
		return []*models.Post{}, 0, nil
	}

	svc := NewPostService(repo, noopUserRepo(), nil)
	_, err := svc.ListPosts(context.Background(), ListPostsInput{
		Search: " golang ",
		Tag:    "go",
		Author: author.Hex(),
	})
	require.NoError(t, err)

	assert.Equal(t, "golang", gotFilter.Search)
	assert.Equal(t, "go", gotFilter.Tag)
	require.NotNil(t, gotFilter.Author)
	assert.Equal(t, author, *gotFilter.Author)
}

func TestPostService_GetPost_AnonymousDoesNotCountView(t *testing.T) {
	t.Parallel()

	postID := bson.NewObjectID()
	incremented := false
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
		return &models.Post{ID: id, ViewCount: 7}, nil
	}
	repo.incrementViewsFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
		incremented = true
		return &models.Post{ID: id, ViewCount: 8}, nil
	}

	svc := NewPostService(repo, noopUserRepo(), nil)

	post, err := svc.GetPost(context.Background(), postID, nil)
	require.NoError(t, err)
	assert.False(t, incremented)
	assert.Equal(t, int64(7), post.ViewCount)
}

func TestPostService_GetPost_AuthenticatedCountsView(t *testing.T) {
	t.Parallel()

	postID := bson.NewObjectID()
	viewer := bson.NewObjectID()
	repo := noopPostRepo()
	repo.incrementViewsFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
		return &models.Post{ID: id, ViewCount: 8}, nil
	}
	repo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Post, error) {
		t.Fatal("GetByID must not be called for authenticated reads")
		return nil, nil
	}

	svc := NewPostService(repo, noopUserRepo(), nil)

	post, err := svc.GetPost(context.Background(), postID, &viewer)
	require.NoError(t, err)
	assert.Equal(t, int64(8), post.ViewCount, "returned document reflects the increment")
}

func TestPostService_GetPost_NotFound(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Post, error) { return nil, nil }

	svc := NewPostService(repo, noopUserRepo(), nil)
	_, err := svc.GetPost(context.Background(), bson.NewObjectID(), nil)
	assertNotFoundError(t, err)
}

func TestPostService_UpdatePost_Authorization(t *testing.T) {
	t.Parallel()

	author := bson.NewObjectID()
	stranger := bson.NewObjectID()
	postID := bson.NewObjectID()

	makeRepo := func() *postRepoStub {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: author, Title: "T", Content: "C"}, nil
		}
		repo.updateFn = func(_ context.Context, id bson.ObjectID, set bson.M) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: author, Title: "T", Content: "C"}, nil
		}
		return repo
	}

	newTitle := "New title"

	t.Run("stranger is rejected before any write", func(t *testing.T) {
		t.Parallel()
		repo := makeRepo()
		repo.updateFn = func(_ context.Context, _ bson.ObjectID, _ bson.M) (*models.Post, error) {
			t.Fatal("update must not run for forbidden callers")
			return nil, nil
		}
		svc := NewPostService(repo, noopUserRepo(), rejectAdmin)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: postID, UserID: stranger, Title: &newTitle})
		assertForbiddenError(t, err)
	})

	t.Run("author may update", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(makeRepo(), noopUserRepo(), rejectAdmin)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: postID, UserID: author, Title: &newTitle})
		assert.NoError(t, err)
	})

	t.Run("admin may update another author's post", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(makeRepo(), noopUserRepo(), allowAdmin)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: postID, UserID: stranger, Title: &newTitle})
		assert.NoError(t, err)
	})
}

func TestPostService_UpdatePost_PatchSemantics(t *testing.T) {
	t.Parallel()

	author := bson.NewObjectID()
	postID := bson.NewObjectID()

	strPtr := func(s string) *string { return &s }
	boolPtr := func(b bool) *bool { return &b }

	t.Run("present but empty title rejected", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: author}, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: postID, UserID: author, Title: strPtr("  ")})
		assertValidationError(t, err)
	})

	t.Run("present but empty content rejected", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: author}, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: postID, UserID: author, Content: strPtr("")})
		assertValidationError(t, err)
	})

	t.Run("empty image and false isPublished are applied", func(t *testing.T) {
		t.Parallel()
		var gotSet bson.M
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: author, Image: "old.png", IsPublished: true}, nil
		}
		repo.updateFn = func(_ context.Context, id bson.ObjectID, set bson.M) (*models.Post, error) {
			gotSet = set
			return &models.Post{ID: id, AuthorID: author}, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
			PostID: postID, UserID: author,
			Image:       strPtr(""),
			IsPublished: boolPtr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, "", gotSet["image"])
		assert.Equal(t, false, gotSet["isPublished"])
		assert.NotContains(t, gotSet, "title")
		assert.NotContains(t, gotSet, "content")
	})

	t.Run("absent fields perform no write", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: author, Title: "Kept"}, nil
		}
		repo.updateFn = func(_ context.Context, _ bson.ObjectID, _ bson.M) (*models.Post, error) {
			t.Fatal("update must not run when no fields are present")
			return nil, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)
		post, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: postID, UserID: author})
		require.NoError(t, err)
		assert.Equal(t, "Kept", post.Title)
	})
}

// Bounds count characters, not bytes, so multibyte text is not penalized.
func TestPostService_LengthBoundsCountRunes(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopUserRepo(), nil)
	ctx := context.Background()
	author := bson.NewObjectID()

	title := strings.Repeat("ü", maxTitleLen)
	_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author, Title: title, Content: "c"})
	require.NoError(t, err, "a title of exactly %d multibyte runes is accepted", maxTitleLen)

	_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: author, Title: title + "ü", Content: "c"})
	assertValidationError(t, err)

	content := strings.Repeat("界", maxContentLen)
	_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: author, Title: "T", Content: content})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, bson.NewObjectID(), author, strings.Repeat("é", maxCommentLen))
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, bson.NewObjectID(), author, strings.Repeat("é", maxCommentLen+1))
	assertValidationError(t, err)
}

func TestPostService_UpdatePost_ValidatesBeforeOwnershipCheck(t *testing.T) {
	t.Parallel()

	strPtr := func(s string) *string { return &s }

	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Post, error) {
		t.Fatal("store must not be read for malformed input")
		return nil, nil
	}
	svc := NewPostService(repo, noopUserRepo(), rejectAdmin)

	longTitle := strings.Repeat("x", maxTitleLen+1)
	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		PostID: bson.NewObjectID(),
		UserID: bson.NewObjectID(),
		Title:  strPtr(longTitle),
	})
	assertValidationError(t, err)
}

func TestPostService_UpdatePost_NotFound(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Post, error) { return nil, nil }

	svc := NewPostService(repo, noopUserRepo(), nil)
	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: bson.NewObjectID(), UserID: bson.NewObjectID()})
	assertNotFoundError(t, err)
}

func TestPostService_DeletePost(t *testing.T) {
	t.Parallel()

	author := bson.NewObjectID()
	stranger := bson.NewObjectID()
	postID := bson.NewObjectID()

	makeRepo := func(deleted *bool) *postRepoStub {
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: author}, nil
		}
		repo.deleteFn = func(_ context.Context, _ bson.ObjectID) error {
			if deleted != nil {
				*deleted = true
			}
			return nil
		}
		return repo
	}

	t.Run("author may delete", func(t *testing.T) {
		t.Parallel()
		deleted := false
		svc := NewPostService(makeRepo(&deleted), noopUserRepo(), rejectAdmin)
		err := svc.DeletePost(context.Background(), DeletePostInput{PostID: postID, UserID: author})
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		t.Parallel()
		deleted := false
		svc := NewPostService(makeRepo(&deleted), noopUserRepo(), rejectAdmin)
		err := svc.DeletePost(context.Background(), DeletePostInput{PostID: postID, UserID: stranger})
		assertForbiddenError(t, err)
		assert.False(t, deleted)
	})

	t.Run("admin may delete", func(t *testing.T) {
		t.Parallel()
		deleted := false
		svc := NewPostService(makeRepo(&deleted), noopUserRepo(), allowAdmin)
		err := svc.DeletePost(context.Background(), DeletePostInput{PostID: postID, UserID: stranger})
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Post, error) { return nil, nil }
		svc := NewPostService(repo, noopUserRepo(), nil)
		err := svc.DeletePost(context.Background(), DeletePostInput{PostID: postID, UserID: author})
		assertNotFoundError(t, err)
	})
}

func TestPostService_ToggleLike(t *testing.T) {
	t.Parallel()

	userID := bson.NewObjectID()
	postID := bson.NewObjectID()

	t.Run("first toggle likes", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id}, nil
		}
		repo.addLikeFn = func(_ context.Context, id, uid bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, Likes: []bson.ObjectID{uid}}, nil
		}
		repo.removeLikeFn = func(_ context.Context, _, _ bson.ObjectID) (*models.Post, error) {
			t.Fatal("RemoveLike must not run when the post is not yet liked")
			return nil, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)

		post, wasLiked, err := svc.ToggleLike(context.Background(), postID, userID)
		require.NoError(t, err)
		assert.False(t, wasLiked)
		assert.Equal(t, 1, post.LikeCount)
	})

	t.Run("second toggle unlikes", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, Likes: []bson.ObjectID{userID}}, nil
		}
		repo.removeLikeFn = func(_ context.Context, id, _ bson.ObjectID) (*models.Post, error) {
			return &models.Post{ID: id, Likes: []bson.ObjectID{}}, nil
		}
		repo.addLikeFn = func(_ context.Context, _, _ bson.ObjectID) (*models.Post, error) {
			t.Fatal("AddLike must not run when the post is already liked")
			return nil, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)

		post, wasLiked, err := svc.ToggleLike(context.Background(), postID, userID)
		require.NoError(t, err)
		assert.True(t, wasLiked)
		assert.Equal(t, 0, post.LikeCount)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.getByIDFn = func(_ context.Context, _ bson.ObjectID) (*models.Post, error) { return nil, nil }
		svc := NewPostService(repo, noopUserRepo(), nil)
		_, _, err := svc.ToggleLike(context.Background(), postID, userID)
		assertNotFoundError(t, err)
	})
}

// Toggling against the real in-memory store twice must return the post to
// its original like state.
func TestPostService_ToggleLike_Involution(t *testing.T) {
	t.Parallel()

	posts := repository.NewMemoryPostRepository()
	users := repository.NewMemoryUserRepository()
	svc := NewPostService(posts, users, nil)
	ctx := context.Background()

	author := bson.NewObjectID()
	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author, Title: "T", Content: "C"})
	require.NoError(t, err)

	liker := bson.NewObjectID()

	liked, wasLiked, err := svc.ToggleLike(ctx, post.ID, liker)
	require.NoError(t, err)
	assert.False(t, wasLiked)
	assert.Equal(t, 1, liked.LikeCount)

	unliked, wasLiked, err := svc.ToggleLike(ctx, post.ID, liker)
	require.NoError(t, err)
	assert.True(t, wasLiked)
	assert.Equal(t, 0, unliked.LikeCount)
}

func TestPostService_AddComment(t *testing.T) {
	t.Parallel()

	userID := bson.NewObjectID()
	postID := bson.NewObjectID()

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(noopPostRepo(), noopUserRepo(), nil)
		ctx := context.Background()

		_, err := svc.AddComment(ctx, postID, userID, "")
		assertValidationError(t, err)

		_, err = svc.AddComment(ctx, postID, userID, "   ")
		assertValidationError(t, err)

		_, err = svc.AddComment(ctx, postID, userID, strings.Repeat("x", 501))
		assertValidationError(t, err)
	})

	t.Run("comment is stamped and appended", func(t *testing.T) {
		t.Parallel()
		var got models.Comment
		repo := noopPostRepo()
		repo.addCommentFn = func(_ context.Context, id bson.ObjectID, c models.Comment) (*models.Post, error) {
			got = c
			return &models.Post{ID: id, Comments: []models.Comment{c}}, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)

		post, err := svc.AddComment(context.Background(), postID, userID, "  nice post  ")
		require.NoError(t, err)
		assert.False(t, got.ID.IsZero(), "comment gets its own ID")
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, "nice post", got.Content, "content is trimmed")
		assert.False(t, got.CreatedAt.IsZero())
		assert.Equal(t, 1, post.CommentCount())
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.addCommentFn = func(_ context.Context, _ bson.ObjectID, _ models.Comment) (*models.Post, error) {
			return nil, nil
		}
		svc := NewPostService(repo, noopUserRepo(), nil)
		_, err := svc.AddComment(context.Background(), postID, userID, "hello")
		assertNotFoundError(t, err)
	})
}

func TestPostService_PopularTags_Passthrough(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.popularTagsFn = func(_ context.Context, limit int) ([]models.TagCount, error) {
		assert.Equal(t, 10, limit)
		return []models.TagCount{{Tag: "go", Count: 3}, {Tag: "mongo", Count: 1}}, nil
	}

	svc := NewPostService(repo, noopUserRepo(), nil)
	tags, err := svc.PopularTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "go", tags[0].Tag)
}

func TestPostService_Populate(t *testing.T) {
	t.Parallel()

	author := &models.User{ID: bson.NewObjectID(), Name: "Ada", Avatar: "a.png"}
	liker := &models.User{ID: bson.NewObjectID(), Name: "Grace"}
	commenter := &models.User{ID: bson.NewObjectID(), Name: "Linus", Avatar: "l.png"}

	users := noopUserRepo()
	users.getManyByIDsFn = func(_ context.Context, ids []bson.ObjectID) ([]*models.User, error) {
		return []*models.User{author, liker, commenter}, nil
	}

	postID := bson.NewObjectID()
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id bson.ObjectID) (*models.Post, error) {
		return &models.Post{
			ID:       id,
			AuthorID: author.ID,
			Likes:    []bson.ObjectID{liker.ID},
			Comments: []models.Comment{{ID: bson.NewObjectID(), UserID: commenter.ID, Content: "hi"}},
		}, nil
	}

	svc := NewPostService(repo, users, nil)
	post, err := svc.GetPost(context.Background(), postID, nil)
	require.NoError(t, err)

	require.NotNil(t, post.Author)
	assert.Equal(t, "Ada", post.Author.Name)
	assert.Equal(t, "a.png", post.Author.Avatar)

	require.Len(t, post.LikedBy, 1)
	assert.Equal(t, "Grace", post.LikedBy[0].Name)
	assert.Empty(t, post.LikedBy[0].Avatar, "liker refs carry name only")
	assert.Equal(t, 1, post.LikeCount)

	require.NotNil(t, post.Comments[0].User)
	assert.Equal(t, "Linus", post.Comments[0].User.Name)
}
