package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/database"
)

func newTestRepos(t *testing.T) (*Repositories, *gorm.DB) {
	t.Helper()
	db, err := database.OpenSQLiteMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	return NewRepositories(db), db
}

func createUser(t *testing.T, repos *Repositories, username, role string) *models.User {
	t.Helper()
	u, err := models.CreateUser(username, username+"@example.com", "password1", strings.ToUpper(username))
	require.NoError(t, err)
	u.Role = role
	require.NoError(t, repos.User.Create(u))
	return u
}

func createEvent(t *testing.T, repos *Repositories, organizerID uint, capacity int) *models.Event {
	t.Helper()
	e := &models.Event{
		Title:       "Seminar",
		Description: "Talk",
		EventDate:   time.Now().UTC().Add(72 * time.Hour),
		Location:    "Hall A",
		Capacity:    capacity,
		OrganizerID: organizerID,
		Status:      models.EventStatusOpen,
	}
	require.NoError(t, repos.Event.Create(e))
	return e
}

func TestUserRepository(t *testing.T) {
	repos, _ := newTestRepos(t)
	admin := createUser(t, repos, "admin", models.ROLE_ADMIN)
	alice := createUser(t, repos, "alice", models.ROLE_USER)

	got, err := repos.User.GetByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.True(t, got.IsActive)

	_, err = repos.User.GetByUsername("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := repos.User.UsernameExists("alice")
	require.NoError(t, err)
	assert.True(t, exists)

	taken, err := repos.User.EmailExists("alice@example.com", alice.ID)
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = repos.User.EmailExists("alice@example.com", admin.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	dup, err := models.CreateUser("alice", "other@example.com", "password1", "Alice")
	require.NoError(t, err)
	assert.ErrorIs(t, repos.User.Create(dup), gorm.ErrDuplicatedKey)

	updated, err := repos.User.UpdateRole(alice.ID, models.ROLE_MEMBER)
	require.NoError(t, err)
	assert.Equal(t, models.ROLE_MEMBER, updated.Role)

	_, err = repos.User.UpdateRole(alice.ID, "root")
	assert.ErrorIs(t, err, models.ErrInvalidRole)
	_, err = repos.User.UpdateRole(9999, models.ROLE_MEMBER)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	deactivated, err := repos.User.UpdateStatus(alice.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	active, err := repos.User.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, admin.ID, active[0].ID)

	admins, err := repos.User.ListActiveByRole(models.ROLE_ADMIN)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	hasAdmin, err := repos.User.AdminExists()
	require.NoError(t, err)
	assert.True(t, hasAdmin)

	count, err := repos.User.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repos.User.TouchLastLogin(admin.ID, time.Now().UTC()))
	reloaded, err := repos.User.GetByID(admin.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLoginAt)

	ok, err := repos.User.Delete(alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repos.User.Delete(alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepositoryCountOwnedContent(t *testing.T) {
	repos, _ := newTestRepos(t)
	author := createUser(t, repos, "author", models.ROLE_MEMBER)

	owned, err := repos.User.CountOwnedContent(author.ID)
	require.NoError(t, err)
	assert.Zero(t, owned)

	require.NoError(t, repos.News.Create(&models.News{Title: "t", Content: "c", Category: "general", AuthorID: author.ID}))
	createEvent(t, repos, author.ID, 5)

	owned, err = repos.User.CountOwnedContent(author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), owned)
}

func TestUserRepositoryCountOwnedContentReferences(t *testing.T) {
	repos, _ := newTestRepos(t)
	author := createUser(t, repos, "author", models.ROLE_USER)
	reviewer := createUser(t, repos, "reviewer", models.ROLE_MEMBER)
	attendee := createUser(t, repos, "attendee", models.ROLE_USER)

	article := &models.Article{Title: "Paper", Content: "body", AuthorID: author.ID}
	require.NoError(t, repos.Article.Create(article))
	_, err := repos.Article.Review(article.ID, models.ArticleStatusApproved, reviewer.ID, "", time.Now().UTC())
	require.NoError(t, err)

	owned, err := repos.User.CountOwnedContent(reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owned)

	event := createEvent(t, repos, reviewer.ID, 5)
	_, err = repos.Event.Register(event.ID, attendee.ID, time.Now().UTC())
	require.NoError(t, err)

	owned, err = repos.User.CountOwnedContent(attendee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owned)

	// a cancelled registration still references the user
	require.NoError(t, repos.Event.Unregister(event.ID, attendee.ID))
	owned, err = repos.User.CountOwnedContent(attendee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owned)

	deleted, err := repos.Event.Delete(event.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	owned, err = repos.User.CountOwnedContent(attendee.ID)
	require.NoError(t, err)
	assert.Zero(t, owned)
}

func TestNewsRepository(t *testing.T) {
	repos, _ := newTestRepos(t)
	author := createUser(t, repos, "writer", models.ROLE_MEMBER)

	now := time.Now().UTC()
	published := &models.News{Title: "Live", Content: "c", Category: "general", AuthorID: author.ID}
	published.SetPublished(true, now)
	require.NoError(t, repos.News.Create(published))

	draft := &models.News{Title: "Draft", Content: "c", Category: "general", AuthorID: author.ID}
	require.NoError(t, repos.News.Create(draft))

	list, err := repos.News.GetPublished()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Live", list[0].Title)
	require.NotNil(t, list[0].Author)
	assert.Equal(t, "writer", list[0].Author.Username)

	all, err := repos.News.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repos.News.IncrementViews(published.ID, 3))

	// a stale copy must not reset the view counter
	stale, err := repos.News.GetByID(published.ID)
	require.NoError(t, err)
	stale.Views = 0
	stale.Title = "Live (updated)"
	require.NoError(t, repos.News.Update(stale))

	got, err := repos.News.GetByID(published.ID)
	require.NoError(t, err)
	assert.Equal(t, "Live (updated)", got.Title)
	assert.Equal(t, int64(3), got.Views)

	count, err := repos.News.CountPublished()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	ok, err := repos.News.Delete(draft.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = repos.News.GetByID(draft.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEventRepositoryRegistration(t *testing.T) {
	repos, _ := newTestRepos(t)
	organizer := createUser(t, repos, "organizer", models.ROLE_MEMBER)
	alice := createUser(t, repos, "alice", models.ROLE_USER)
	bob := createUser(t, repos, "bob", models.ROLE_USER)
	event := createEvent(t, repos, organizer.ID, 1)
	now := time.Now().UTC()

	reg, err := repos.Event.Register(event.ID, alice.ID, now)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusRegistered, reg.Status)

	_, err = repos.Event.Register(event.ID, alice.ID, now)
	assert.ErrorIs(t, err, models.ErrAlreadyRegistered)

	_, err = repos.Event.Register(event.ID, bob.ID, now)
	assert.ErrorIs(t, err, models.ErrEventFull)

	got, err := repos.Event.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RegisteredCount)

	require.NoError(t, repos.Event.Unregister(event.ID, alice.ID))
	assert.ErrorIs(t, repos.Event.Unregister(event.ID, alice.ID), models.ErrNotRegistered)

	got, err = repos.Event.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RegisteredCount)

	// freed seat goes to bob, then alice cannot come back
	_, err = repos.Event.Register(event.ID, bob.ID, now)
	require.NoError(t, err)
	_, err = repos.Event.Register(event.ID, alice.ID, now)
	assert.ErrorIs(t, err, models.ErrEventFull)

	regs, err := repos.Event.GetRegistrations(event.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 2)

	active, err := repos.Event.GetActiveRegistrations(event.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, bob.ID, active[0].UserID)
	require.NotNil(t, active[0].User)

	attended, err := repos.Event.MarkAttended(event.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusAttended, attended.Status)
	_, err = repos.Event.MarkAttended(event.ID, alice.ID)
	assert.ErrorIs(t, err, models.ErrNotRegistered)

	mine, err := repos.Event.GetUserRegistrations(bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Event)
	assert.Equal(t, event.ID, mine[0].Event.ID)
}

func TestEventRepositoryReactivatesCancelledRegistration(t *testing.T) {
	repos, db := newTestRepos(t)
	organizer := createUser(t, repos, "organizer", models.ROLE_MEMBER)
	alice := createUser(t, repos, "alice", models.ROLE_USER)
	event := createEvent(t, repos, organizer.ID, 3)
	now := time.Now().UTC()

	first, err := repos.Event.Register(event.ID, alice.ID, now)
	require.NoError(t, err)
	require.NoError(t, repos.Event.Unregister(event.ID, alice.ID))

	second, err := repos.Event.Register(event.ID, alice.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.RegistrationStatusRegistered, second.Status)

	var rows int64
	require.NoError(t, db.Model(&models.EventRegistration{}).Where("event_id = ?", event.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	got, err := repos.Event.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RegisteredCount)
}

func TestEventRepositoryRegistrationClosed(t *testing.T) {
	repos, _ := newTestRepos(t)
	organizer := createUser(t, repos, "organizer", models.ROLE_MEMBER)
	alice := createUser(t, repos, "alice", models.ROLE_USER)
	event := createEvent(t, repos, organizer.ID, 3)

	past := time.Now().UTC().Add(-time.Hour)
	event.RegistrationDeadline = &past
	require.NoError(t, repos.Event.Update(event))

	_, err := repos.Event.Register(event.ID, alice.ID, time.Now().UTC())
	assert.ErrorIs(t, err, models.ErrRegistrationClosed)

	_, err = repos.Event.Register(9999, alice.ID, time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	closed, err := repos.Event.CloseExpired(time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	open, err := repos.Event.CountOpen()
	require.NoError(t, err)
	assert.Zero(t, open)
}

func TestEventRepositoryUpdateKeepsRegisteredCount(t *testing.T) {
	repos, _ := newTestRepos(t)
	organizer := createUser(t, repos, "organizer", models.ROLE_MEMBER)
	alice := createUser(t, repos, "alice", models.ROLE_USER)
	event := createEvent(t, repos, organizer.ID, 3)

	_, err := repos.Event.Register(event.ID, alice.ID, time.Now().UTC())
	require.NoError(t, err)

	// event still holds RegisteredCount == 0 from before the registration
	event.Location = "Hall B"
	require.NoError(t, repos.Event.Update(event))

	got, err := repos.Event.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hall B", got.Location)
	assert.Equal(t, 1, got.RegisteredCount)
}

func TestEventRepositoryGetStartingBetween(t *testing.T) {
	repos, _ := newTestRepos(t)
	organizer := createUser(t, repos, "organizer", models.ROLE_MEMBER)
	soon := createEvent(t, repos, organizer.ID, 3)
	createEvent(t, repos, organizer.ID, 3)

	soon.EventDate = time.Now().UTC().Add(24 * time.Hour)
	require.NoError(t, repos.Event.Update(soon))

	from := time.Now().UTC().Add(12 * time.Hour)
	events, err := repos.Event.GetStartingBetween(from, from.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, soon.ID, events[0].ID)
}

func TestArticleRepositoryReview(t *testing.T) {
	repos, _ := newTestRepos(t)
	author := createUser(t, repos, "author", models.ROLE_USER)
	reviewer := createUser(t, repos, "reviewer", models.ROLE_MEMBER)

	article := &models.Article{Title: "Paper", Content: "body", AuthorID: author.ID, Status: models.ArticleStatusApproved}
	require.NoError(t, repos.Article.Create(article))
	assert.Equal(t, models.ArticleStatusPending, article.Status)
	assert.False(t, article.SubmittedAt.IsZero())

	pending, err := repos.Article.GetByStatus(models.ArticleStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = repos.Article.Review(article.ID, "maybe", reviewer.ID, "", time.Now().UTC())
	assert.ErrorIs(t, err, models.ErrInvalidReviewStatus)

	reviewed, err := repos.Article.Review(article.ID, models.ArticleStatusApproved, reviewer.ID, "solid", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.ArticleStatusApproved, reviewed.Status)
	assert.Equal(t, "solid", reviewed.ReviewComments)
	assert.NotNil(t, reviewed.PublishedAt)
	require.NotNil(t, reviewed.Reviewer)
	assert.Equal(t, "reviewer", reviewed.Reviewer.Username)

	_, err = repos.Article.Review(article.ID, models.ArticleStatusRejected, reviewer.ID, "", time.Now().UTC())
	assert.ErrorIs(t, err, models.ErrArticleAlreadyReviewed)

	_, err = repos.Article.Review(9999, models.ArticleStatusRejected, reviewer.ID, "", time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := repos.Article.CountByStatus(models.ArticleStatusPending)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestArticleRepositoryGetVisibleTo(t *testing.T) {
	repos, _ := newTestRepos(t)
	alice := createUser(t, repos, "alice", models.ROLE_USER)
	bob := createUser(t, repos, "bob", models.ROLE_USER)
	reviewer := createUser(t, repos, "reviewer", models.ROLE_MEMBER)

	mine := &models.Article{Title: "Mine", Content: "c", AuthorID: alice.ID}
	require.NoError(t, repos.Article.Create(mine))
	theirs := &models.Article{Title: "Theirs", Content: "c", AuthorID: bob.ID}
	require.NoError(t, repos.Article.Create(theirs))
	hidden := &models.Article{Title: "Hidden", Content: "c", AuthorID: bob.ID}
	require.NoError(t, repos.Article.Create(hidden))

	_, err := repos.Article.Review(theirs.ID, models.ArticleStatusApproved, reviewer.ID, "", time.Now().UTC())
	require.NoError(t, err)

	visible, err := repos.Article.GetVisibleTo(alice.ID)
	require.NoError(t, err)
	titles := make([]string, 0, len(visible))
	for _, a := range visible {
		titles = append(titles, a.Title)
	}
	assert.ElementsMatch(t, []string{"Mine", "Theirs"}, titles)

	all, err := repos.Article.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCommentRepository(t *testing.T) {
	repos, _ := newTestRepos(t)
	author := createUser(t, repos, "author", models.ROLE_USER)
	news := &models.News{Title: "t", Content: "c", Category: "general", AuthorID: author.ID}
	require.NoError(t, repos.News.Create(news))

	first := &models.Comment{Content: "first", AuthorID: author.ID, NewsID: &news.ID, IsApproved: true}
	require.NoError(t, repos.Comment.Create(first))
	assert.False(t, first.IsApproved)

	second := &models.Comment{Content: "second", AuthorID: author.ID, NewsID: &news.ID}
	require.NoError(t, repos.Comment.Create(second))

	list, err := repos.Comment.GetApprovedForNews(news.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repos.Comment.Approve(first.ID)
	require.NoError(t, err)
	approved, err := repos.Comment.Approve(second.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	list, err = repos.Comment.GetApprovedForNews(news.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content)
	require.NotNil(t, list[0].Author)

	none, err := repos.Comment.GetApprovedForEvent(news.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repos.Comment.Approve(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	ok, err := repos.Comment.Delete(first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	list, err = repos.Comment.GetApprovedForNews(news.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNotificationRepository(t *testing.T) {
	repos, _ := newTestRepos(t)
	alice := createUser(t, repos, "alice", models.ROLE_USER)
	bob := createUser(t, repos, "bob", models.ROLE_USER)

	require.NoError(t, repos.Notification.CreateBatch([]models.Notification{
		models.NewNotification(alice.ID, models.NotificationTypeSystem, "one", "", nil),
		models.NewNotification(alice.ID, models.NotificationTypeSystem, "two", "", nil),
		models.NewNotification(bob.ID, models.NotificationTypeSystem, "three", "", nil),
	}))
	require.NoError(t, repos.Notification.CreateBatch(nil))

	list, err := repos.Notification.ListForUser(alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	ok, err := repos.Notification.MarkRead(list[0].ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok, "other users' notifications are not touched")

	ok, err = repos.Notification.MarkRead(list[0].ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := repos.Notification.CountUnread(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	n, err := repos.Notification.MarkAllRead(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = repos.Notification.Delete(list[1].ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repos.Notification.Delete(list[1].ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err = repos.Notification.ListForUser(alice.ID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStatsRepositoryDashboard(t *testing.T) {
	repos, _ := newTestRepos(t)
	member := createUser(t, repos, "member", models.ROLE_MEMBER)
	createUser(t, repos, "user", models.ROLE_USER)
	createEvent(t, repos, member.ID, 10)

	news := &models.News{Title: "t", Content: "c", Category: "general", AuthorID: member.ID}
	news.SetPublished(true, time.Now().UTC())
	require.NoError(t, repos.News.Create(news))
	require.NoError(t, repos.Article.Create(&models.Article{Title: "a", Content: "c", AuthorID: member.ID}))

	stats, err := repos.Stats.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, &models.DashboardStats{
		TotalMembers:    2,
		ActiveEvents:    1,
		PublishedNews:   1,
		PendingArticles: 1,
	}, stats)
}

func TestFactory(t *testing.T) {
	_, db := newTestRepos(t)
	f := NewFactory(db)
	assert.Same(t, f.GetRepositories(), f.GetRepositories())

	boom := errors.New("rollback")
	err := f.WithTx(func(repos *Repositories) error {
		u, err := models.CreateUser("txuser", "txuser@example.com", "password1", "Tx User")
		require.NoError(t, err)
		require.NoError(t, repos.User.Create(u))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := f.GetRepositories().User.UsernameExists("txuser")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Same(t, InitializeFactory(db), GetGlobalFactory())
}
