package notify

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/app/repository"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/jobqueue"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/mail"
)

const dateLayout = "Monday, 02 Jan 2006 15:04"

// Mailer delivers rendered emails.
type Mailer interface {
	Send(to string, msg mail.Message) error
}

// SMSSender delivers short text messages.
type SMSSender interface {
	Send(phone, text string) error
}

type Options struct {
	Organization string
	PublicURL    string
	Workers      int
	SendDelay    time.Duration
}

// Stats summarises external deliveries since startup.
type Stats struct {
	TotalSent    int64      `json:"totalSent"`
	EmailsSent   int64      `json:"emailsSent"`
	EmailsFailed int64      `json:"emailsFailed"`
	SMSSent      int64      `json:"smsSent"`
	SMSFailed    int64      `json:"smsFailed"`
	Queued       int        `json:"queued"`
	LastActivity *time.Time `json:"lastActivity"`
}

// Dispatcher records in-app notifications and hands email and SMS
// deliveries to a background queue. Every method is best effort: failures
// are logged and never returned to the caller.
type Dispatcher struct {
	repos  *repository.Repositories
	mailer Mailer
	sms    SMSSender
	opts   Options
	queue  *jobqueue.Queue
	now    func() time.Time

	emailsSent   atomic.Int64
	emailsFailed atomic.Int64
	smsSent      atomic.Int64
	smsFailed    atomic.Int64
	lastActivity atomic.Int64
}

// NewDispatcher creates a dispatcher. A nil mailer or sms sender disables that channel.
func NewDispatcher(repos *repository.Repositories, mailer Mailer, sms SMSSender, opts Options) *Dispatcher {
	d := &Dispatcher{
		repos:  repos,
		mailer: mailer,
		sms:    sms,
		opts:   opts,
		now:    time.Now,
	}
	d.opts.PublicURL = strings.TrimRight(opts.PublicURL, "/")
	d.queue = jobqueue.NewQueue(opts.Workers, opts.SendDelay, d.deliver)
	return d
}

func (d *Dispatcher) Start() {
	d.queue.Start()
}

func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

func (d *Dispatcher) Stats() Stats {
	s := Stats{
		EmailsSent:   d.emailsSent.Load(),
		EmailsFailed: d.emailsFailed.Load(),
		SMSSent:      d.smsSent.Load(),
		SMSFailed:    d.smsFailed.Load(),
		Queued:       d.queue.Len(),
	}
	s.TotalSent = s.EmailsSent + s.SMSSent
	if ts := d.lastActivity.Load(); ts > 0 {
		t := time.Unix(0, ts)
		s.LastActivity = &t
	}
	return s
}

func (d *Dispatcher) deliver(ctx context.Context, job *jobqueue.Job) error {
	d.lastActivity.Store(d.now().UnixNano())

	switch p := job.Payload.(type) {
	case jobqueue.EmailPayload:
		err := d.mailer.Send(p.To, mail.Message{Subject: p.Subject, HTML: p.HTML, Text: p.Text})
		if err != nil {
			d.emailsFailed.Add(1)
			return err
		}
		d.emailsSent.Add(1)
	case jobqueue.SMSPayload:
		err := d.sms.Send(p.Phone, p.Text)
		if err != nil {
			d.smsFailed.Add(1)
			return err
		}
		d.smsSent.Add(1)
	default:
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return nil
}

func (d *Dispatcher) data(u *models.User) TemplateData {
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	return TemplateData{
		Organization: d.opts.Organization,
		PublicURL:    d.opts.PublicURL,
		Name:         name,
	}
}

func (d *Dispatcher) link(format string, args ...interface{}) string {
	return d.opts.PublicURL + fmt.Sprintf(format, args...)
}

func (d *Dispatcher) persist(notifications ...models.Notification) {
	if len(notifications) == 0 {
		return
	}
	if err := d.repos.Notification.CreateBatch(notifications); err != nil {
		log.Errorf("[Notify] failed to store %d notifications: %v", len(notifications), err)
	}
}

// send renders the template and queues an email and, when withSMS is set
// and the user has a phone number, a text message.
func (d *Dispatcher) send(u *models.User, tmpl string, data TemplateData, withSMS bool) {
	if d.mailer != nil && u.Email != "" {
		msg, err := RenderEmail(tmpl, data)
		if err != nil {
			log.Errorf("[Notify] render %s email: %v", tmpl, err)
		} else if _, err := d.queue.Enqueue(jobqueue.JobTypeEmail, jobqueue.EmailPayload{
			To:      u.Email,
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
		}); err != nil {
			log.Warnf("[Notify] email to %s not queued: %v", u.Email, err)
		}
	}

	if !withSMS || d.sms == nil || u.Phone == "" {
		return
	}
	text, ok, err := RenderSMS(tmpl, data)
	if err != nil {
		log.Errorf("[Notify] render %s sms: %v", tmpl, err)
		return
	}
	if !ok {
		return
	}
	if _, err := d.queue.Enqueue(jobqueue.JobTypeSMS, jobqueue.SMSPayload{Phone: u.Phone, Text: text}); err != nil {
		log.Warnf("[Notify] sms to user %d not queued: %v", u.ID, err)
	}
}

// WelcomeUser greets a newly registered user.
func (d *Dispatcher) WelcomeUser(u *models.User) {
	data := d.data(u)
	data.Link = d.opts.PublicURL

	d.persist(models.NewNotification(u.ID, models.NotificationTypeWelcome,
		"Welcome to "+d.opts.Organization, "Your account has been created.", nil))
	d.send(u, tmplWelcome, data, false)
}

// NewsPublished informs every active user except the author about a published news item.
func (d *Dispatcher) NewsPublished(n *models.News) {
	users, err := d.repos.User.ListActive()
	if err != nil {
		log.Errorf("[Notify] news %d: failed to load recipients: %v", n.ID, err)
		return
	}

	notifications := make([]models.Notification, 0, len(users))
	for i := range users {
		u := &users[i]
		if u.ID == n.AuthorID {
			continue
		}
		notifications = append(notifications, models.NewNotification(u.ID, models.NotificationTypeNewsPublished,
			"New article: "+n.Title, n.Excerpt, map[string]interface{}{"newsId": n.ID}))

		data := d.data(u)
		data.Title = n.Title
		data.Message = n.Excerpt
		data.Link = d.link("/news/%d", n.ID)
		d.send(u, tmplNewsPublished, data, false)
	}
	d.persist(notifications...)
	log.Infof("[Notify] news %d: notified %d users", n.ID, len(notifications))
}

func (d *Dispatcher) eventData(u *models.User, e *models.Event) TemplateData {
	data := d.data(u)
	data.Title = e.Title
	data.Date = e.EventDate.Format(dateLayout)
	data.Location = e.Location
	data.Link = d.link("/events/%d", e.ID)
	return data
}

// EventRegistered confirms a registration to the user.
func (d *Dispatcher) EventRegistered(e *models.Event, u *models.User) {
	d.persist(models.NewNotification(u.ID, models.NotificationTypeEventRegistered,
		"Registration confirmed: "+e.Title, "You are registered for "+e.Title+".",
		map[string]interface{}{"eventId": e.ID}))
	d.send(u, tmplEventRegistered, d.eventData(u, e), true)
}

// EventCancelled informs every actively registered user about a cancellation.
func (d *Dispatcher) EventCancelled(e *models.Event) {
	regs, err := d.repos.Event.GetActiveRegistrations(e.ID)
	if err != nil {
		log.Errorf("[Notify] event %d: failed to load registrations: %v", e.ID, err)
		return
	}

	notifications := make([]models.Notification, 0, len(regs))
	for _, reg := range regs {
		if reg.User == nil {
			continue
		}
		notifications = append(notifications, models.NewNotification(reg.UserID, models.NotificationTypeEventCancelled,
			"Cancelled: "+e.Title, e.Title+" has been cancelled.", map[string]interface{}{"eventId": e.ID}))
		d.send(reg.User, tmplEventCancelled, d.eventData(reg.User, e), true)
	}
	d.persist(notifications...)
}

// ArticleReviewed tells the author about a review decision. Approvals
// also go out by SMS when the author has a phone number.
func (d *Dispatcher) ArticleReviewed(a *models.Article) {
	author := a.Author
	if author == nil {
		u, err := d.repos.User.GetByID(a.AuthorID)
		if err != nil {
			log.Errorf("[Notify] article %d: failed to load author: %v", a.ID, err)
			return
		}
		author = u
	}

	approved := a.Status == models.ArticleStatusApproved
	title := "Your article was not accepted: " + a.Title
	if approved {
		title = "Your article was approved: " + a.Title
	}
	d.persist(models.NewNotification(author.ID, models.NotificationTypeArticleReviewed, title, a.ReviewComments,
		map[string]interface{}{"articleId": a.ID, "status": a.Status}))

	data := d.data(author)
	data.Title = a.Title
	data.Approved = approved
	data.Comments = a.ReviewComments
	data.Link = d.link("/articles/%d", a.ID)
	d.send(author, tmplArticleReviewed, data, approved)
}

// SendEventReminders reminds registered users of open events taking place
// on the calendar day after now. It returns the number of reminded registrations.
func (d *Dispatcher) SendEventReminders(now time.Time) int {
	y, m, day := now.Date()
	from := time.Date(y, m, day+1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	events, err := d.repos.Event.GetStartingBetween(from.UTC(), to.UTC())
	if err != nil {
		log.Errorf("[Notify] reminders: failed to load events: %v", err)
		return 0
	}

	sent := 0
	for i := range events {
		e := &events[i]
		regs, err := d.repos.Event.GetActiveRegistrations(e.ID)
		if err != nil {
			log.Errorf("[Notify] reminders: event %d registrations: %v", e.ID, err)
			continue
		}

		notifications := make([]models.Notification, 0, len(regs))
		for _, reg := range regs {
			if reg.User == nil || !reg.User.IsActive {
				continue
			}
			notifications = append(notifications, models.NewNotification(reg.UserID, models.NotificationTypeEventReminder,
				"Reminder: "+e.Title, e.Title+" takes place tomorrow.", map[string]interface{}{"eventId": e.ID}))
			d.send(reg.User, tmplEventReminder, d.eventData(reg.User, e), true)
		}
		d.persist(notifications...)
		sent += len(notifications)
	}

	log.Infof("[Notify] reminders: %d events, %d users", len(events), sent)
	return sent
}

// NotifyAdminsUrgent broadcasts a message to all active admins and returns how many were reached.
func (d *Dispatcher) NotifyAdminsUrgent(message string) int {
	admins, err := d.repos.User.ListActiveByRole(models.ROLE_ADMIN)
	if err != nil {
		log.Errorf("[Notify] urgent: failed to load admins: %v", err)
		return 0
	}

	notifications := make([]models.Notification, 0, len(admins))
	for i := range admins {
		a := &admins[i]
		notifications = append(notifications, models.NewNotification(a.ID, models.NotificationTypeSystem,
			"Urgent notice", message, nil))

		data := d.data(a)
		data.Message = message
		d.send(a, tmplUrgent, data, false)
	}
	d.persist(notifications...)
	return len(notifications)
}
