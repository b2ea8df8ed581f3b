package server

import (
	"minifeed/internal/auth"
	"minifeed/internal/middleware"
	"minifeed/internal/models"
	"minifeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type feedResponse struct {
	Posts      []*models.FeedItem `json:"posts"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// contentRequest is the body of post and comment creation. Author is the
// free-text name accepted in open mode.
type contentRequest struct {
	Author  string `json:"author" form:"author"`
	Content string `json:"content" form:"content"`
}

// GetFeed handles GET /api/feed?limit=&before=&comments=true
func (s *Server) GetFeed(c *fiber.Ctx) error {
	q, err := parseFeedQuery(c)
	if err != nil {
		return respondAppError(c, err)
	}

	posts, err := s.posts.ListFeed(c.UserContext(), q)
	if err != nil {
		return respondAppError(c, err)
	}

	items, err := s.feedItems(c, posts, c.QueryBool("comments", false))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(feedResponse{Posts: items, NextCursor: nextCursor(q, posts)})
}

// feedItems joins comments onto posts with one query when withComments is set.
func (s *Server) feedItems(c *fiber.Ctx, posts []*models.Post, withComments bool) ([]*models.FeedItem, error) {
	items := make([]*models.FeedItem, len(posts))
	for i, p := range posts {
		items[i] = &models.FeedItem{Post: p}
	}
	if !withComments || len(posts) == 0 {
		return items, nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	byPost, err := s.comments.CommentsForPosts(c.UserContext(), ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		item.Comments = byPost[item.ID]
		if item.Comments == nil {
			item.Comments = []*models.Comment{}
		}
	}
	return items, nil
}

// CreatePost handles POST /api/posts as JSON or multipart with an "image" file.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	author, err := s.gate.Authorize(middleware.IdentityFrom(c), auth.OpCreatePost, req.Author)
	if err != nil {
		return respondAppError(c, err)
	}

	// Checked before the upload so a rejected post never leaves a file behind.
	if err := service.CheckPostLength(req.Content); err != nil {
		return respondAppError(c, err)
	}

	var mediaRef string
	if isMultipart(c) {
		if mediaRef, err = s.storeUpload(c, "image"); err != nil {
			return respondAppError(c, err)
		}
	}

	post, err := s.posts.CreatePost(c.UserContext(), author, req.Content, mediaRef)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.posts.GetPost(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(post)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.comments.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	author, err := s.gate.Authorize(middleware.IdentityFrom(c), auth.OpAddComment, req.Author)
	if err != nil {
		return respondAppError(c, err)
	}

	comment, err := s.comments.AddComment(c.UserContext(), postID, author, req.Content)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.gate.Authorize(middleware.IdentityFrom(c), auth.OpLike, ""); err != nil {
		return respondAppError(c, err)
	}

	post, err := s.engagement.Like(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(post)
}

// RepostPost handles POST /api/posts/:id/repost
func (s *Server) RepostPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Author string `json:"author" form:"author"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	author, err := s.gate.Authorize(middleware.IdentityFrom(c), auth.OpRepost, req.Author)
	if err != nil {
		return respondAppError(c, err)
	}

	result, err := s.engagement.Repost(c.UserContext(), postID, author)
	if err != nil {
		return respondAppError(c, err)
	}

	status := fiber.StatusOK
	if result.Repost != nil {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}
