package main

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/voidowl/portfolio/internal/loop"
)

const templateGlob = "templates/*.html"

type Server struct {
	log   *logrus.Logger
	hero  *Hero
	admin *Admin
	tmpl  *template.Template
}

func NewServer(hero *Hero, admin *Admin, logger *logrus.Logger) (*Server, error) {
	tmpl, err := template.ParseGlob(templateGlob)
	if err != nil {
		return nil, err
	}
	return &Server{log: logger, hero: hero, admin: admin, tmpl: tmpl}, nil
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.Use(s.admin.trackingMiddleware())
	r.SetHTMLTemplate(s.tmpl)

	r.Static("/static", "./static")

	// Home page route
	r.GET("/", func(c *gin.Context) {
		headline, err := s.hero.View()
		if err != nil {
			s.unavailable(c, err)
			return
		}
		c.HTML(http.StatusOK, "index.html", gin.H{
			"siteName":     SiteName,
			"role":         Role,
			"intro":        Intro,
			"headline":     headline,
			"menuItems":    MenuItems,
			"workTitle":    WorkTitle,
			"workContent":  WorkContent,
			"contactTitle": ContactTitle,
			"contactEmail": ContactEmail,
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		headline, err := s.hero.View()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "index": headline.Index})
	})

	// HTMX headline fragment and controls
	hero := r.Group("/hero")
	hero.GET("/headline", s.headline(s.hero.View))
	hero.POST("/next", s.headline(s.hero.Next))
	hero.POST("/prev", s.headline(s.hero.Prev))
	hero.POST("/reset", s.headline(s.hero.Reset))
	hero.POST("/jump/:index", func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.String(http.StatusBadRequest, "index must be an integer")
			return
		}
		s.headline(func() (HeadlineView, error) { return s.hero.Jump(index) })(c)
	})
	hero.GET("/events", s.events)

	s.admin.setupRoutes(r)
	return r
}

func (s *Server) headline(fn func() (HeadlineView, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := fn()
		if err != nil {
			s.unavailable(c, err)
			return
		}
		c.HTML(http.StatusOK, "headline.html", v)
	}
}

// events streams the rendered headline on every index change.
func (s *Server) events(c *gin.Context) {
	updates, unsubscribe, err := s.hero.Subscribe()
	if err != nil {
		s.unavailable(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case v, ok := <-updates:
			if !ok {
				return false
			}
			html, err := s.renderHeadline(v)
			if err != nil {
				s.log.WithError(err).Error("Error rendering headline")
				return false
			}
			c.SSEvent("headline", html)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) renderHeadline(v HeadlineView) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "headline.html", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) unavailable(c *gin.Context, err error) {
	if errors.Is(err, loop.ErrClosed) {
		c.String(http.StatusServiceUnavailable, "shutting down")
		return
	}
	s.log.WithError(err).Error("Headline request failed")
	c.String(http.StatusInternalServerError, "internal error")
}
