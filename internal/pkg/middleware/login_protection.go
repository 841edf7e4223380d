package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/time/rate"
)

const (
	maxLockout     = 24 * time.Hour
	maxIPLimiters  = 10000
	defaultIPRate  = 0.2
	defaultIPBurst = 10
)

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRate is login requests per second per client IP.
	IPRate  float64
	IPBurst int
	// MaxFailures before the account is locked.
	MaxFailures int
	// Lockout is the base lockout, doubled for every further lockout.
	Lockout time.Duration
	// Window in which failures are counted.
	Window time.Duration
}

// LoginProtection combines per-IP rate limiting with per-account lockout.
type LoginProtection struct {
	cfg LoginProtectionConfig
	now func() time.Time

	ipMu     sync.Mutex
	limiters map[string]*rate.Limiter

	attemptsMu sync.Mutex
	attempts   map[string]*loginAttempt
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	if cfg.IPRate <= 0 {
		cfg.IPRate = defaultIPRate
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = defaultIPBurst
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 15 * time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &LoginProtection{
		cfg:      cfg,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
		attempts: make(map[string]*loginAttempt),
	}
}

func accountKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// AllowIP consumes one token from the IP's bucket.
func (lp *LoginProtection) AllowIP(ip string) bool {
	lp.ipMu.Lock()
	l, ok := lp.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Limit(lp.cfg.IPRate), lp.cfg.IPBurst)
		lp.limiters[ip] = l
	}
	lp.ipMu.Unlock()
	return l.AllowN(lp.now(), 1)
}

// IsLocked reports whether the account is locked and for how long.
func (lp *LoginProtection) IsLocked(username string) (bool, time.Duration) {
	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	a, ok := lp.attempts[accountKey(username)]
	if !ok {
		return false, 0
	}
	now := lp.now()
	if now.Before(a.lockedUntil) {
		return true, a.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a failed login and locks the account once the limit
// is reached inside the window. It returns the lockout when one starts.
func (lp *LoginProtection) RecordFailure(username string) (bool, time.Duration) {
	key := accountKey(username)
	now := lp.now()

	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	a, ok := lp.attempts[key]
	if !ok {
		a = &loginAttempt{}
		lp.attempts[key] = a
	}
	if a.count == 0 || now.Sub(a.firstFailed) > lp.cfg.Window {
		a.count = 0
		a.firstFailed = now
	}
	a.count++
	if a.count < lp.cfg.MaxFailures {
		return false, 0
	}

	lockout := lp.cfg.Lockout
	for i := 0; i < a.lockouts && lockout < maxLockout; i++ {
		lockout *= 2
	}
	if lockout > maxLockout {
		lockout = maxLockout
	}
	a.lockedUntil = now.Add(lockout)
	a.lockouts++
	a.count = 0

	log.Warnf("[Login] account %q locked for %s after repeated failures", key, lockout)
	return true, lockout
}

// RecordSuccess clears the failure history of an account.
func (lp *LoginProtection) RecordSuccess(username string) {
	lp.attemptsMu.Lock()
	delete(lp.attempts, accountKey(username))
	lp.attemptsMu.Unlock()
}

// Cleanup drops expired account entries and resets the IP table when it grows too large.
func (lp *LoginProtection) Cleanup() {
	now := lp.now()

	lp.ipMu.Lock()
	if len(lp.limiters) > maxIPLimiters {
		lp.limiters = make(map[string]*rate.Limiter)
		log.Info("[Login] cleared IP rate limiters")
	}
	lp.ipMu.Unlock()

	lp.attemptsMu.Lock()
	for key, a := range lp.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.cfg.Window {
			delete(lp.attempts, key)
		}
	}
	lp.attemptsMu.Unlock()
}

// Middleware rejects login requests from IPs that exceeded their rate.
func (lp *LoginProtection) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !lp.AllowIP(c.IP()) {
			log.Warnf("[Login] rate limit exceeded for %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "too_many_requests",
				"message": "too many login attempts, try again later",
			})
		}
		return c.Next()
	}
}
