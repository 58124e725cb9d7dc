package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GetPosts handles GET /api/posts
// @Summary List published posts
// @Description Paginated listing with optional search, tag and author filters
// @Tags posts
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10)"
// @Param search query string false "Full-text search over title and content"
// @Param tag query string false "Filter by tag"
// @Param author query string false "Filter by author ID"
// @Success 200 {object} service.PostPage
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePagination(c, 10)

	result, err := s.postService.ListPosts(ctx, service.ListPostsInput{
		Search: c.Query("search"),
		Tag:    c.Query("tag"),
		Author: c.Query("author"),
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// GetPost handles GET /api/posts/:id
// An authenticated read counts as a view; anonymous reads do not.
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	postID, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var viewerID *bson.ObjectID
	if userID, ok := s.optionalUserID(c); ok {
		viewerID = &userID
	}

	post, err := s.postService.GetPost(ctx, postID, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"post": post})
}

// GetPopularTags handles GET /api/posts/tags/popular
func (s *Server) GetPopularTags(c *fiber.Ctx) error {
	tags, err := s.postService.PopularTags(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"tags": tags})
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{title=string,content=string,tags=[]string,image=string} true "New post"
// @Success 201 {object} object{message=string,post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Tags    []string `json:"tags,omitempty"`
		Image   string   `json:"image,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Image:    req.Image,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// UpdatePost handles PUT /api/posts/:id
// Only fields present in the body are applied.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       *string   `json:"title"`
		Content     *string   `json:"content"`
		Tags        *[]string `json:"tags"`
		Image       *string   `json:"image"`
		IsPublished *bool     `json:"isPublished"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		PostID:      postID,
		UserID:      userID,
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		Image:       req.Image,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Post updated successfully",
		"post":    post,
	})
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(ctx, service.DeletePostInput{
		PostID: postID,
		UserID: userID,
	}); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// LikePost handles POST /api/posts/:id/like
// This endpoint toggles the like status - if already liked, it unlikes; if not liked, it likes
func (s *Server) LikePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	post, wasLiked, err := s.postService.ToggleLike(ctx, postID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	message := "Post liked successfully"
	if wasLiked {
		message = "Post unliked successfully"
	}

	return c.JSON(fiber.Map{
		"message": message,
		"post":    post,
	})
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.Context()
	userID, err := s.currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseObjectID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.AddComment(ctx, postID, userID, req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Comment added successfully",
		"post":    post,
	})
}
