package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/ot-portal/quiz-service/internal/cache"
	"github.com/ot-portal/quiz-service/internal/events"
	"github.com/ot-portal/quiz-service/internal/models"
	"github.com/ot-portal/quiz-service/internal/repositories"
	"github.com/ot-portal/quiz-service/internal/utils"
)

// Paths a token-mode session may still reach. Everything else on the exam
// host is rejected while the flag is set.
var tokenModeAllowedPaths = map[string]bool{
	"/health":             true,
	"/robots.txt":         true,
	"/api/v1/tokens/leave": true,
	"/api/v1/auth/logout":  true,
}

var tokenModeAllowedPrefixes = []string{
	"/api/v1/attempts",
	"/api/v1/tokens",
	"/static/",
	"/media/",
}

const (
	tokenModeKeyPrefix = "exam:token_mode:"
	tokenModeTTL       = 12 * time.Hour
)

// tokenModeSession is what the gate stores in Redis while a user is locked
// to the exam flow.
type tokenModeSession struct {
	QuizID    uint      `json:"quiz_id"`
	EnteredAt time.Time `json:"entered_at"`
}

// ExamGate enforces the isolation rules of the exam host: search engines are
// told to stay away, and a session that entered through an access token is
// confined to the attempt surface until it leaves token mode.
type ExamGate struct {
	cache     cache.CacheService
	repo      repositories.Repository
	logger    utils.Logger
	publisher events.EventPublisher

	// Host the gate guards. Empty guards every host.
	examHost string
}

func NewExamGate(cacheService cache.CacheService, repo repositories.Repository,
	logger utils.Logger, publisher events.EventPublisher, examHost string) *ExamGate {
	return &ExamGate{
		cache:     cacheService,
		repo:      repo,
		logger:    logger,
		publisher: publisher,
		examHost:  examHost,
	}
}

// Middleware returns the gin handler enforcing the gate.
func (g *ExamGate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.guardsHost(c.Request.Host) {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == "/robots.txt" {
			c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
			c.Abort()
			return
		}
		if isStaticPath(path) {
			c.Next()
			return
		}

		userID := extractUserID(c)
		if userID == "" {
			c.Next()
			return
		}

		session, err := g.getSession(c, userID)
		if err != nil {
			g.logger.Error("Token mode lookup failed", "user_id", userID, "error", err)
			c.Next()
			return
		}
		if session == nil {
			c.Next()
			return
		}

		if g.pathAllowed(path) {
			c.Set("token_mode", true)
			c.Set("token_mode_quiz_id", session.QuizID)
			c.Next()
			return
		}

		g.deny(c, userID, session, "path not allowed in token mode")
	}
}

// EnterTokenMode flags the user's session as confined to the exam flow.
func (g *ExamGate) EnterTokenMode(c *gin.Context, userID string, quizID uint) error {
	session := tokenModeSession{
		QuizID:    quizID,
		EnteredAt: time.Now(),
	}
	if err := g.cache.Set(c.Request.Context(), tokenModeKeyPrefix+userID, session, tokenModeTTL); err != nil {
		return fmt.Errorf("failed to store token mode session: %w", err)
	}

	g.logger.Info("Token mode entered", "user_id", userID, "quiz_id", quizID)
	g.audit(c, models.TokenModeEntered, userID, "entered token mode", map[string]interface{}{
		"quiz_id": quizID,
	})
	return nil
}

// LeaveTokenMode clears the confinement flag.
func (g *ExamGate) LeaveTokenMode(c *gin.Context, userID string) error {
	if err := g.cache.Delete(c.Request.Context(), tokenModeKeyPrefix+userID); err != nil {
		return fmt.Errorf("failed to clear token mode session: %w", err)
	}

	g.logger.Info("Token mode left", "user_id", userID)
	g.audit(c, models.TokenModeLeft, userID, "left token mode", nil)
	return nil
}

// InTokenMode reports whether the user currently carries the confinement flag.
func (g *ExamGate) InTokenMode(c *gin.Context, userID string) (bool, error) {
	session, err := g.getSession(c, userID)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

func (g *ExamGate) getSession(c *gin.Context, userID string) (*tokenModeSession, error) {
	var session tokenModeSession
	err := g.cache.Get(c.Request.Context(), tokenModeKeyPrefix+userID, &session)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (g *ExamGate) guardsHost(host string) bool {
	if g.examHost == "" {
		return true
	}
	// Strip a port if present.
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return strings.EqualFold(host, g.examHost)
}

func (g *ExamGate) pathAllowed(path string) bool {
	if tokenModeAllowedPaths[path] {
		return true
	}
	for _, prefix := range tokenModeAllowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *ExamGate) deny(c *gin.Context, userID string, session *tokenModeSession, reason string) {
	g.logger.Warn("Exam gate rejected request",
		"user_id", userID,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"remote_addr", c.ClientIP(),
		"user_agent", c.Request.UserAgent(),
		"reason", reason)

	g.audit(c, models.AccessDenied, userID, reason, map[string]interface{}{
		"quiz_id":    session.QuizID,
		"token_mode": true,
	})

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"message": "Access restricted while an exam session is active",
	})
}

// audit persists the gate event and mirrors it onto the event bus. Failures
// here never block the request path.
func (g *ExamGate) audit(c *gin.Context, eventType models.AccessEventType, userID, reason string, context map[string]interface{}) {
	event := &models.AccessDenialEvent{
		EventType: eventType,
		IPAddress: c.ClientIP(),
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
		UserAgent: c.Request.UserAgent(),
		UserID:    userID,
		Reason:    reason,
	}
	if context != nil {
		if data, err := json.Marshal(context); err == nil {
			event.Context = datatypes.JSON(data)
		}
	}

	if err := g.repo.Audit().Create(c.Request.Context(), event); err != nil {
		g.logger.Error("Failed to record access event", "error", err)
	}

	if g.publisher != nil && eventType == models.AccessDenied {
		if err := g.publisher.PublishQuizEvent(c.Request.Context(), events.NewAccessDeniedEvent(event)); err != nil {
			g.logger.Error("Failed to publish access event", "error", err)
		}
	}
}

func extractUserID(c *gin.Context) string {
	if value, exists := c.Get("user_id"); exists {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

func isStaticPath(path string) bool {
	return strings.HasPrefix(path, "/static/") ||
		strings.HasPrefix(path, "/media/") ||
		path == "/favicon.ico"
}
