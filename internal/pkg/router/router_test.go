package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/MemberPortal/app/controllers"
	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/app/repository"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/config"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/database"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/middleware"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/notify"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/session"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/statistics"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(format string, args ...interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf(format, args...))
}

func (n *recordingNotifier) WelcomeUser(u *models.User) { n.record("welcome %s", u.Username) }

func (n *recordingNotifier) NewsPublished(news *models.News) { n.record("news %d", news.ID) }

func (n *recordingNotifier) EventRegistered(e *models.Event, u *models.User) {
	n.record("registered %d %s", e.ID, u.Username)
}

func (n *recordingNotifier) EventCancelled(e *models.Event) { n.record("cancelled %d", e.ID) }

func (n *recordingNotifier) ArticleReviewed(a *models.Article) {
	n.record("reviewed %d %s", a.ID, a.Status)
}

func (n *recordingNotifier) NotifyAdminsUrgent(message string) int {
	n.record("urgent %s", message)
	return 1
}

func (n *recordingNotifier) Stats() notify.Stats { return notify.Stats{} }

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type testServer struct {
	t        *testing.T
	app      *fiber.App
	repos    *repository.Repositories
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenSQLiteMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)

	factory := repository.NewFactory(db)
	repos := factory.GetRepositories()
	notifier := &recordingNotifier{}
	login := middleware.NewLoginProtection(middleware.LoginProtectionConfig{IPRate: 1000, IPBurst: 1000})

	cfg := &config.Config{AppName: "Test Portal", APIRateLimit: 10000}
	deps := controllers.Dependencies{
		Factory:  factory,
		Notifier: notifier,
		Stats:    statistics.NewService(repos.Stats, nil),
		Views:    counter.NewViewCounter(nil, repos.News),
		Login:    login,
	}

	app := fiber.New(fiber.Config{ErrorHandler: controllers.ErrorHandler})
	err = InstallRouter(app, Options{
		Config:   cfg,
		Deps:     deps,
		Sessions: fibersession.New(fibersession.Config{KeyLookup: "cookie:" + session.CookieName}),
		Login:    login,
	})
	require.NoError(t, err)

	return &testServer{t: t, app: app, repos: repos, notifier: notifier}
}

func (s *testServer) createUser(username, role string) *models.User {
	s.t.Helper()
	user, err := models.CreateUser(username, username+"@university.ac.ir", "secret123", strings.ToUpper(username))
	require.NoError(s.t, err)
	require.NoError(s.t, s.repos.User.Create(user))
	if role != models.ROLE_USER {
		user, err = s.repos.User.UpdateRole(user.ID, role)
		require.NoError(s.t, err)
	}
	return user
}

func (s *testServer) do(method, path, cookie string, body interface{}) *http.Response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	return resp
}

// login returns the session cookie of the user.
func (s *testServer) login(username string) string {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/login", "", fiber.Map{"username": username, "password": "secret123"})
	require.Equal(s.t, http.StatusOK, resp.StatusCode)
	return sessionCookie(s.t, resp)
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return ""
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestHealthAndDocs(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/docs/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc map[string]interface{}
	decode(t, resp, &doc)
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/users/{id}/role")
	assert.Contains(t, paths, "/api/events/{id}/registrations/{userId}/attend")

	resp = s.do(http.MethodGet, "/docs/api", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodGet, "/api/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/register", "", fiber.Map{
		"username": "sara",
		"password": "secret123",
		"email":    "Sara@University.ac.ir",
		"fullName": "Sara Ahmadi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cookie := sessionCookie(t, resp)

	resp = s.do(http.MethodGet, "/api/user", cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]interface{}
	decode(t, resp, &me)
	assert.Equal(t, "sara", me["username"])
	assert.Equal(t, "sara@university.ac.ir", me["email"])
	assert.Equal(t, models.ROLE_USER, me["role"])
	assert.NotContains(t, me, "password")
	assert.NotEmpty(t, me["avatarUrl"])
	assert.Contains(t, s.notifier.Events(), "welcome sara")

	resp = s.do(http.MethodPost, "/api/register", "", fiber.Map{
		"username": "sara",
		"password": "secret123",
		"email":    "other@university.ac.ir",
		"fullName": "Someone Else",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/logout", cookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(http.MethodGet, "/api/user", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	s.createUser("reza", models.ROLE_USER)

	resp := s.do(http.MethodPost, "/api/login", "", fiber.Map{"username": "reza", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/login", "", fiber.Map{"username": "nobody", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/login", "", fiber.Map{"username": "reza"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoleChangeRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	s.createUser("boss", models.ROLE_ADMIN)
	s.createUser("mina", models.ROLE_MEMBER)
	target := s.createUser("ali", models.ROLE_USER)
	path := fmt.Sprintf("/api/users/%d/role", target.ID)
	body := fiber.Map{"role": models.ROLE_MEMBER}

	resp := s.do(http.MethodPut, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodPut, path, s.login("mina"), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := s.login("boss")
	resp = s.do(http.MethodPut, path, admin, fiber.Map{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPut, path, admin, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated map[string]interface{}
	decode(t, resp, &updated)
	assert.Equal(t, models.ROLE_MEMBER, updated["role"])

	resp = s.do(http.MethodPut, "/api/users/9999/role", admin, body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventRegistrationConflict(t *testing.T) {
	s := newTestServer(t)
	s.createUser("mina", models.ROLE_MEMBER)
	s.createUser("ali", models.ROLE_USER)

	resp := s.do(http.MethodPost, "/api/events", s.login("mina"), fiber.Map{
		"title":       "Research Day",
		"description": "Posters and talks",
		"eventDate":   time.Now().UTC().Add(7 * 24 * time.Hour).Format(time.RFC3339),
		"location":    "Hall A",
		"capacity":    10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var event map[string]interface{}
	decode(t, resp, &event)
	path := fmt.Sprintf("/api/events/%v/register", event["id"])

	user := s.login("ali")
	resp = s.do(http.MethodPost, path, user, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(http.MethodPost, path, user, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/events/9999/register", user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(http.MethodDelete, path, user, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(http.MethodDelete, path, user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArticleReviewedOnlyOnce(t *testing.T) {
	s := newTestServer(t)
	s.createUser("mina", models.ROLE_MEMBER)
	s.createUser("ali", models.ROLE_USER)

	author := s.login("ali")
	resp := s.do(http.MethodPost, "/api/articles", author, fiber.Map{
		"title":   "On Graphs",
		"content": "A short note.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var article map[string]interface{}
	decode(t, resp, &article)
	assert.Equal(t, models.ArticleStatusPending, article["status"])
	path := fmt.Sprintf("/api/articles/%v/review", article["id"])

	resp = s.do(http.MethodPut, path, author, fiber.Map{"status": models.ArticleStatusApproved})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	reviewer := s.login("mina")
	resp = s.do(http.MethodPut, path, reviewer, fiber.Map{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPut, path, reviewer, fiber.Map{"status": models.ArticleStatusApproved})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPut, path, reviewer, fiber.Map{"status": models.ArticleStatusRejected})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeleteUserOwningContent(t *testing.T) {
	s := newTestServer(t)
	admin := s.createUser("boss", models.ROLE_ADMIN)
	author := s.createUser("ali", models.ROLE_USER)
	idle := s.createUser("sam", models.ROLE_USER)

	resp := s.do(http.MethodPost, "/api/articles", s.login("ali"), fiber.Map{
		"title":   "Draft",
		"content": "Text",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	cookie := s.login("boss")
	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", author.ID), cookie, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.ID), cookie, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", idle.ID), cookie, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", idle.ID), cookie, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommentNeedsExactlyOneTarget(t *testing.T) {
	s := newTestServer(t)
	s.createUser("ali", models.ROLE_USER)
	user := s.login("ali")

	resp := s.do(http.MethodPost, "/api/comments", user, fiber.Map{"content": "Hello"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/comments", user, fiber.Map{"content": "Hello", "newsId": 1, "eventId": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/comments", user, fiber.Map{"content": "Hello", "newsId": 42})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardStats(t *testing.T) {
	s := newTestServer(t)
	s.createUser("mina", models.ROLE_MEMBER)
	s.createUser("ali", models.ROLE_USER)

	resp := s.do(http.MethodGet, "/api/dashboard/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/dashboard/stats", s.login("ali"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats models.DashboardStats
	decode(t, resp, &stats)
	assert.Equal(t, int64(2), stats.TotalMembers)
}

func (s *testServer) createEvent(cookie string) uint {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/events", cookie, fiber.Map{
		"title":       "Workshop",
		"description": "Hands-on session",
		"eventDate":   time.Now().UTC().Add(7 * 24 * time.Hour).Format(time.RFC3339),
		"location":    "Lab 2",
		"capacity":    5,
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)
	var event models.Event
	decode(s.t, resp, &event)
	return event.ID
}

func (s *testServer) count(event string) int {
	n := 0
	for _, e := range s.notifier.Events() {
		if e == event {
			n++
		}
	}
	return n
}

func TestDeleteUserReferencedByReviewOrRegistration(t *testing.T) {
	s := newTestServer(t)
	s.createUser("boss", models.ROLE_ADMIN)
	reviewer := s.createUser("mina", models.ROLE_MEMBER)
	attendee := s.createUser("sam", models.ROLE_USER)

	article := &models.Article{Title: "Notes", Content: "Text", AuthorID: s.createUser("reza", models.ROLE_USER).ID}
	require.NoError(t, s.repos.Article.Create(article))
	_, err := s.repos.Article.Review(article.ID, models.ArticleStatusApproved, reviewer.ID, "", time.Now().UTC())
	require.NoError(t, err)

	organizer := s.createUser("omid", models.ROLE_MEMBER)
	event := &models.Event{
		Title:       "Seminar",
		Description: "Talk",
		EventDate:   time.Now().UTC().Add(72 * time.Hour),
		Location:    "Hall A",
		Capacity:    5,
		OrganizerID: organizer.ID,
		Status:      models.EventStatusOpen,
	}
	require.NoError(t, s.repos.Event.Create(event))
	_, err = s.repos.Event.Register(event.ID, attendee.ID, time.Now().UTC())
	require.NoError(t, err)

	admin := s.login("boss")
	resp := s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", reviewer.ID), admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", attendee.ID), admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	reviewed, err := s.repos.Article.GetByID(article.ID)
	require.NoError(t, err)
	require.NotNil(t, reviewed.Reviewer)
	assert.Equal(t, reviewer.ID, reviewed.Reviewer.ID)

	got, err := s.repos.Event.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RegisteredCount)
}

func TestNotificationCenter(t *testing.T) {
	s := newTestServer(t)
	s.createUser("boss", models.ROLE_ADMIN)
	ali := s.createUser("ali", models.ROLE_USER)
	mina := s.createUser("mina", models.ROLE_MEMBER)

	first := models.NewNotification(ali.ID, models.NotificationTypeSystem, "One", "first", nil)
	second := models.NewNotification(ali.ID, models.NotificationTypeSystem, "Two", "second", nil)
	foreign := models.NewNotification(mina.ID, models.NotificationTypeSystem, "Other", "not yours", nil)
	for _, n := range []*models.Notification{&first, &second, &foreign} {
		require.NoError(t, s.repos.Notification.Create(n))
	}

	user := s.login("ali")
	resp := s.do(http.MethodGet, "/api/notifications", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-Unread-Count"))
	var list []models.Notification
	decode(t, resp, &list)
	assert.Len(t, list, 2)

	resp = s.do(http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", foreign.ID), user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/notifications/%d", foreign.ID), user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", first.ID), user, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(http.MethodGet, "/api/notifications", user, nil)
	assert.Equal(t, "1", resp.Header.Get("X-Unread-Count"))

	resp = s.do(http.MethodPut, "/api/notifications/mark-all-read", user, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var marked map[string]interface{}
	decode(t, resp, &marked)
	assert.Equal(t, float64(1), marked["updated"])
	resp = s.do(http.MethodGet, "/api/notifications", user, nil)
	assert.Equal(t, "0", resp.Header.Get("X-Unread-Count"))

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/notifications/%d", second.ID), user, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/notifications/%d", second.ID), user, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// the other user's notification is untouched
	unread, err := s.repos.Notification.CountUnread(mina.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestNotificationAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.createUser("boss", models.ROLE_ADMIN)
	s.createUser("mina", models.ROLE_MEMBER)

	member := s.login("mina")
	resp := s.do(http.MethodGet, "/api/notifications/stats", member, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(http.MethodPost, "/api/notifications/urgent", member, fiber.Map{"message": "Server down"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := s.login("boss")
	resp = s.do(http.MethodGet, "/api/notifications/stats", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/notifications/urgent", admin, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/notifications/urgent", admin, fiber.Map{"message": "Server down"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]interface{}
	decode(t, resp, &result)
	assert.Equal(t, float64(1), result["recipients"])
	assert.Equal(t, 1, s.count("urgent Server down"))
}

func TestNewsDraftVisibilityAndPublishing(t *testing.T) {
	s := newTestServer(t)
	s.createUser("mina", models.ROLE_MEMBER)
	s.createUser("ali", models.ROLE_USER)
	member := s.login("mina")

	resp := s.do(http.MethodPost, "/api/news", member, fiber.Map{
		"title":    "Open day",
		"content":  "<p>Visit the <b>campus</b></p>",
		"category": "general",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var published models.News
	decode(t, resp, &published)
	assert.True(t, published.IsPublished)
	assert.NotNil(t, published.PublishedAt)
	assert.Equal(t, 1, s.count(fmt.Sprintf("news %d", published.ID)))

	resp = s.do(http.MethodPost, "/api/news", member, fiber.Map{
		"title":       "Budget",
		"content":     "Pending approval",
		"category":    "internal",
		"isPublished": false,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var draft models.News
	decode(t, resp, &draft)
	assert.False(t, draft.IsPublished)
	draftPath := fmt.Sprintf("/api/news/%d", draft.ID)
	draftEvent := fmt.Sprintf("news %d", draft.ID)
	assert.Zero(t, s.count(draftEvent))

	resp = s.do(http.MethodGet, draftPath, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = s.do(http.MethodGet, draftPath, s.login("ali"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = s.do(http.MethodGet, draftPath, member, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(http.MethodPut, draftPath, member, fiber.Map{"isPublished": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(http.MethodPut, draftPath, member, fiber.Map{"isPublished": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, s.count(draftEvent))

	resp = s.do(http.MethodGet, draftPath, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProfileUpdateRejectsTakenEmail(t *testing.T) {
	s := newTestServer(t)
	s.createUser("mina", models.ROLE_MEMBER)
	s.createUser("ali", models.ROLE_USER)
	user := s.login("ali")

	resp := s.do(http.MethodPut, "/api/user/profile", user, fiber.Map{"email": "MINA@university.ac.ir"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(http.MethodPut, "/api/user/profile", user, fiber.Map{"email": "ali.new@university.ac.ir", "fullName": "Ali Rezaei"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated map[string]interface{}
	decode(t, resp, &updated)
	assert.Equal(t, "ali.new@university.ac.ir", updated["email"])
	assert.Equal(t, "Ali Rezaei", updated["fullName"])
}

func TestUserStatusChange(t *testing.T) {
	s := newTestServer(t)
	admin := s.createUser("boss", models.ROLE_ADMIN)
	ali := s.createUser("ali", models.ROLE_USER)

	user := s.login("ali")
	cookie := s.login("boss")

	resp := s.do(http.MethodPut, fmt.Sprintf("/api/users/%d/status", admin.ID), cookie, fiber.Map{"isActive": false})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d/status", ali.ID), cookie, fiber.Map{"isActive": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated map[string]interface{}
	decode(t, resp, &updated)
	assert.Equal(t, false, updated["isActive"])

	resp = s.do(http.MethodGet, "/api/user", user, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodGet, "/api/user", cookie, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMarkAttendance(t *testing.T) {
	s := newTestServer(t)
	s.createUser("mina", models.ROLE_MEMBER)
	ali := s.createUser("ali", models.ROLE_USER)
	sam := s.createUser("sam", models.ROLE_USER)

	member := s.login("mina")
	eventID := s.createEvent(member)
	user := s.login("ali")
	resp := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", eventID), user, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	path := fmt.Sprintf("/api/events/%d/registrations/%d/attend", eventID, ali.ID)
	resp = s.do(http.MethodPut, path, user, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(http.MethodPut, path, member, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reg models.EventRegistration
	decode(t, resp, &reg)
	assert.Equal(t, models.RegistrationStatusAttended, reg.Status)
	assert.Equal(t, ali.ID, reg.UserID)

	resp = s.do(http.MethodPut, path, member, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = s.do(http.MethodPut, fmt.Sprintf("/api/events/%d/registrations/%d/attend", eventID, sam.ID), member, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	event, err := s.repos.Event.GetByID(eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, event.RegisteredCount)
}
