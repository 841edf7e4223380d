package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/utils"
)

const excerptLength = 200

// NewsController handles news items and their comments.
type NewsController struct {
	deps Dependencies
}

func NewNewsController(deps Dependencies) *NewsController {
	return &NewsController{deps: deps}
}

// excerptFrom builds a plain text teaser from HTML content.
func excerptFrom(content string) string {
	text := strings.Join(strings.Fields(utils.SanitizeText(content)), " ")
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return strings.TrimSpace(string(runes[:excerptLength])) + "..."
}

// HandleNewsIndex lists published news, newest first.
func (nc *NewsController) HandleNewsIndex(c *fiber.Ctx) error {
	news, err := nc.deps.repos().News.GetPublished()
	if err != nil {
		return internalError(c, "load news", err)
	}
	return c.JSON(news)
}

// HandleNewsShow returns one news item and counts the view. Drafts are only
// visible to members and admins.
func (nc *NewsController) HandleNewsShow(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}

	news, err := nc.deps.repos().News.GetByID(id)
	if err != nil {
		return respondError(c, "news", "load news", err)
	}
	if !news.IsPublished && !usercontext.GetUserContext(c).IsMemberOrAdmin() {
		return notFound(c, "news")
	}

	if err := nc.deps.Views.AddNewsView(c.UserContext(), news.ID); err != nil {
		log.Warnf("[News] failed to count view of %d: %v", news.ID, err)
	} else {
		news.Views++
	}
	return c.JSON(news)
}

// HandleNewsCreate stores a news item, published unless isPublished is false.
func (nc *NewsController) HandleNewsCreate(c *fiber.Ctx) error {
	var req NewsRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	author := usercontext.GetUser(c)
	news := &models.News{
		Title:    utils.SanitizeText(req.Title),
		Content:  utils.SanitizeHTML(req.Content),
		Category: utils.SanitizeText(req.Category),
		AuthorID: author.ID,
	}
	news.Excerpt = utils.SanitizeText(req.Excerpt)
	if news.Excerpt == "" {
		news.Excerpt = excerptFrom(news.Content)
	}
	publish := req.IsPublished == nil || *req.IsPublished
	news.SetPublished(publish, nc.deps.now())

	if err := nc.deps.repos().News.Create(news); err != nil {
		return internalError(c, "create news", err)
	}
	news.Author = author

	if news.IsPublished {
		nc.deps.Notifier.NewsPublished(news)
		nc.deps.Stats.Invalidate(c.UserContext())
	}
	return c.Status(fiber.StatusCreated).JSON(news)
}

// HandleNewsUpdate applies a partial update. Publishing a draft notifies the members.
func (nc *NewsController) HandleNewsUpdate(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req NewsUpdateRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	repos := nc.deps.repos()
	news, err := repos.News.GetByID(id)
	if err != nil {
		return respondError(c, "news", "load news", err)
	}

	if req.Title != nil {
		news.Title = utils.SanitizeText(*req.Title)
	}
	if req.Content != nil {
		news.Content = utils.SanitizeHTML(*req.Content)
	}
	if req.Excerpt != nil {
		news.Excerpt = utils.SanitizeText(*req.Excerpt)
	}
	if req.Category != nil {
		news.Category = utils.SanitizeText(*req.Category)
	}
	published := false
	wasPublished := news.IsPublished
	if req.IsPublished != nil {
		published = news.SetPublished(*req.IsPublished, nc.deps.now())
	}

	if err := repos.News.Update(news); err != nil {
		return internalError(c, "update news", err)
	}

	if published {
		nc.deps.Notifier.NewsPublished(news)
	}
	if wasPublished != news.IsPublished {
		nc.deps.Stats.Invalidate(c.UserContext())
	}
	return c.JSON(news)
}

// HandleNewsDelete removes a news item.
func (nc *NewsController) HandleNewsDelete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	deleted, err := nc.deps.repos().News.Delete(id)
	if err != nil {
		return internalError(c, "delete news", err)
	}
	if !deleted {
		return notFound(c, "news")
	}
	nc.deps.Stats.Invalidate(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleNewsComments lists the approved comments of a news item.
func (nc *NewsController) HandleNewsComments(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if _, err := nc.deps.repos().News.GetByID(id); err != nil {
		return respondError(c, "news", "load news", err)
	}
	comments, err := nc.deps.repos().Comment.GetApprovedForNews(id)
	if err != nil {
		return internalError(c, "load comments", err)
	}
	return c.JSON(comments)
}
