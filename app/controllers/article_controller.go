package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/utils"
)

// ArticleController handles article submissions and their review.
type ArticleController struct {
	deps Dependencies
}

func NewArticleController(deps Dependencies) *ArticleController {
	return &ArticleController{deps: deps}
}

// HandleArticlesIndex lists the articles the current user may read.
// Members and admins see every submission.
func (ac *ArticleController) HandleArticlesIndex(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	repos := ac.deps.repos()

	var (
		articles []models.Article
		err      error
	)
	if userCtx.IsMemberOrAdmin() {
		articles, err = repos.Article.GetAll()
	} else {
		articles, err = repos.Article.GetVisibleTo(userCtx.UserID)
	}
	if err != nil {
		return internalError(c, "load articles", err)
	}
	return c.JSON(articles)
}

// HandleArticlesPending lists submissions waiting for review, oldest first.
func (ac *ArticleController) HandleArticlesPending(c *fiber.Ctx) error {
	articles, err := ac.deps.repos().Article.GetByStatus(models.ArticleStatusPending)
	if err != nil {
		return internalError(c, "load articles", err)
	}
	return c.JSON(articles)
}

// loadVisible returns the article when the current user may read it.
func (ac *ArticleController) loadVisible(c *fiber.Ctx) (*models.Article, error) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, invalidID(c)
	}
	article, err := ac.deps.repos().Article.GetByID(id)
	if err != nil {
		return nil, respondError(c, "article", "load article", err)
	}
	userCtx := usercontext.GetUserContext(c)
	if !article.VisibleTo(userCtx.UserID, userCtx.Role) {
		return nil, notFound(c, "article")
	}
	return article, nil
}

func (ac *ArticleController) HandleArticleShow(c *fiber.Ctx) error {
	article, err := ac.loadVisible(c)
	if article == nil {
		return err
	}
	return c.JSON(article)
}

// HandleArticleCreate submits an article for review.
func (ac *ArticleController) HandleArticleCreate(c *fiber.Ctx) error {
	var req ArticleRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	author := usercontext.GetUser(c)
	article := &models.Article{
		Title:       utils.SanitizeText(req.Title),
		Content:     utils.SanitizeHTML(req.Content),
		Abstract:    utils.SanitizeText(req.Abstract),
		AuthorID:    author.ID,
		SubmittedAt: ac.deps.now(),
	}
	if err := ac.deps.repos().Article.Create(article); err != nil {
		return internalError(c, "submit article", err)
	}
	article.Author = author
	ac.deps.Stats.Invalidate(c.UserContext())

	return c.Status(fiber.StatusCreated).JSON(article)
}

// HandleArticleReview approves or rejects a pending article.
func (ac *ArticleController) HandleArticleReview(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req ReviewRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}
	if !models.ValidReviewStatus(req.Status) {
		return badRequest(c, models.ErrInvalidReviewStatus.Error())
	}

	reviewer := usercontext.GetUser(c)
	article, err := ac.deps.repos().Article.Review(id, req.Status, reviewer.ID,
		utils.SanitizeText(req.Comments), ac.deps.now())
	if err != nil {
		return respondError(c, "article", "review article", err)
	}

	log.Infof("[Articles] article %d %s by user %d", article.ID, article.Status, reviewer.ID)
	ac.deps.Notifier.ArticleReviewed(article)
	ac.deps.Stats.Invalidate(c.UserContext())

	return c.JSON(article)
}

// HandleArticleComments lists the approved comments of a readable article.
func (ac *ArticleController) HandleArticleComments(c *fiber.Ctx) error {
	article, err := ac.loadVisible(c)
	if article == nil {
		return err
	}
	comments, err := ac.deps.repos().Comment.GetApprovedForArticle(article.ID)
	if err != nil {
		return internalError(c, "load comments", err)
	}
	return c.JSON(comments)
}
