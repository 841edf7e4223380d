package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/utils"
)

// CommentController handles comment submission and moderation.
type CommentController struct {
	deps Dependencies
}

func NewCommentController(deps Dependencies) *CommentController {
	return &CommentController{deps: deps}
}

// targetExists checks that the referenced news item, event or article exists
// and is readable by the current user.
func (cc *CommentController) targetExists(c *fiber.Ctx, comment *models.Comment) error {
	repos := cc.deps.repos()
	userCtx := usercontext.GetUserContext(c)

	switch {
	case comment.NewsID != nil:
		news, err := repos.News.GetByID(*comment.NewsID)
		if err != nil {
			return err
		}
		if !news.IsPublished && !userCtx.IsMemberOrAdmin() {
			return gorm.ErrRecordNotFound
		}
	case comment.EventID != nil:
		_, err := repos.Event.GetByID(*comment.EventID)
		return err
	case comment.ArticleID != nil:
		article, err := repos.Article.GetByID(*comment.ArticleID)
		if err != nil {
			return err
		}
		if !article.VisibleTo(userCtx.UserID, userCtx.Role) {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

// HandleCommentCreate stores an unapproved comment on exactly one target.
func (cc *CommentController) HandleCommentCreate(c *fiber.Ctx) error {
	var req CommentRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	comment := &models.Comment{
		Content:   utils.SanitizeHTML(req.Content),
		AuthorID:  usercontext.GetUserContext(c).UserID,
		NewsID:    nonZero(req.NewsID),
		EventID:   nonZero(req.EventID),
		ArticleID: nonZero(req.ArticleID),
	}
	if comment.TargetCount() != 1 {
		return badRequest(c, "exactly one of newsId, eventId or articleId is required")
	}
	if comment.Content == "" {
		return badRequest(c, "comment is empty")
	}
	if err := cc.targetExists(c, comment); err != nil {
		return respondError(c, "comment target", "create comment", err)
	}

	if err := cc.deps.repos().Comment.Create(comment); err != nil {
		return internalError(c, "create comment", err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// HandleCommentApprove makes a comment publicly visible.
func (cc *CommentController) HandleCommentApprove(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	comment, err := cc.deps.repos().Comment.Approve(id)
	if err != nil {
		return respondError(c, "comment", "approve comment", err)
	}
	return c.JSON(comment)
}

func (cc *CommentController) HandleCommentDelete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	deleted, err := cc.deps.repos().Comment.Delete(id)
	if err != nil {
		return internalError(c, "delete comment", err)
	}
	if !deleted {
		return notFound(c, "comment")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
