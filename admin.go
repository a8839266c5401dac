// admin.go - privacy-conscious visitor tracking and the admin dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voidowl/portfolio/internal/loop"
	"github.com/voidowl/portfolio/internal/rotate"
)

// Visits older than this are removed on startup and on request.
const visitorRetention = 365 * 24 * time.Hour

type Admin struct {
	log      *logrus.Logger
	store    *Store
	hero     *Hero
	username string
	password string
	token    string
	salt     string
}

func NewAdmin(cfg serverConfig, store *Store, hero *Hero, logger *logrus.Logger) (*Admin, error) {
	token, err := generateAdminToken()
	if err != nil {
		return nil, err
	}
	salt, err := generateAdminToken()
	if err != nil {
		return nil, err
	}
	a := &Admin{
		log:      logger,
		store:    store,
		hero:     hero,
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
		token:    token,
		salt:     salt,
	}
	if a.username == "" {
		a.username = "admin"
		logger.Warn("Using default admin username. Set ADMIN_USERNAME environment variable.")
	}
	if a.password == "" {
		a.password = "admin123"
		logger.Warn("Using default admin password. Set ADMIN_PASSWORD environment variable.")
	}

	logger.Info("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		logger.Debugf("Admin token (dev only): %s", token)
	}
	logger.Info("Privacy: Visitor tracking enabled with hashed IP addresses")
	return a, nil
}

func generateAdminToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashIP is stable per IP for the lifetime of the process.
func (a *Admin) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (a *Admin) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *Admin) trackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/hero/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/favicon") ||
			strings.HasPrefix(path, "/privacy") ||
			path == "/healthz" {
			c.Next()
			return
		}

		// Respect Do Not Track
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		go a.trackVisitor(c.ClientIP(), c.GetHeader("User-Agent"), path)
		c.Next()
	}
}

func (a *Admin) trackVisitor(ip, userAgent, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.RecordVisit(ctx, a.hashIP(ip), userAgent, path, time.Now()); err != nil {
		a.log.WithError(err).Error("Error recording visitor")
	}
}

func (a *Admin) cleanupOldVisitorData() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	deleted, err := a.store.CleanupBefore(ctx, time.Now().Add(-visitorRetention))
	if err != nil {
		a.log.WithError(err).Error("Error cleaning up old visitor data")
		return
	}
	if deleted > 0 {
		a.log.Infof("Privacy cleanup: Removed %d visitor records older than 12 months", deleted)
	}
}

func (a *Admin) setupRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
		if userOK && passOK {
			c.SetCookie("admin_token", a.token, 3600*24, "/admin", "", false, true)
			a.log.Infof("Admin login successful from %s", a.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		a.log.Warnf("Failed admin login attempt from %s", a.hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		a.log.Infof("Admin logout from %s", a.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(a.authMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			a.log.WithError(err).Error("Error loading admin stats")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		headline, err := a.hero.View()
		if err == nil {
			var interval time.Duration
			interval, err = a.hero.Interval()
			if err == nil {
				c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
					"stats":      stats,
					"headline":   headline,
					"intervalMS": interval.Milliseconds(),
				})
				return
			}
		}
		a.log.WithError(err).Error("Error loading headline state")
		c.HTML(http.StatusServiceUnavailable, "admin-error.html", gin.H{
			"error": "Headline is not running",
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		visitors, err := a.store.RecentVisitors(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	adminGroup.POST("/hero/interval", func(c *gin.Context) {
		ms, err := strconv.Atoi(c.PostForm("interval_ms"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interval_ms must be an integer"})
			return
		}
		err = a.hero.SetInterval(time.Duration(ms) * time.Millisecond)
		switch {
		case errors.Is(err, rotate.ErrConfiguration):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, loop.ErrClosed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "headline is not running"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			a.log.Infof("Headline interval set to %dms by %s", ms, a.hashIP(c.ClientIP()))
			c.JSON(http.StatusOK, gin.H{"interval_ms": ms})
		}
	})

	adminGroup.POST("/privacy/delete-visitor-data", func(c *gin.Context) {
		go a.cleanupOldVisitorData()
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		a.log.Infof("Admin stats exported by %s", a.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
