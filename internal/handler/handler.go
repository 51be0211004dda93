// Package handler exposes the classroom service over HTTP.
package handler

import (
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"classroom/internal/auth"
	"classroom/internal/classroom"
	"classroom/internal/presence"
)

// Handler holds the collaborators of the HTTP API.
type Handler struct {
	svc    *classroom.Service
	creds  auth.CredentialStore
	issuer *auth.Issuer
	hub    *presence.Hub // nil disables the websocket endpoint
}

// Options controls route registration.
type Options struct {
	// AuthRequired puts every mutating route behind a bearer token.
	AuthRequired bool
	// PublicDir holds the static frontend; empty disables file serving.
	PublicDir string
}

// New creates a handler. hub may be nil when websockets are disabled.
func New(svc *classroom.Service, creds auth.CredentialStore, issuer *auth.Issuer, hub *presence.Hub) *Handler {
	return &Handler{svc: svc, creds: creds, issuer: issuer, hub: hub}
}

// Register mounts the API, the websocket endpoint and the static fallback on r.
// Paths with a trailing slash are not redirected; they fall through to the
// JSON 404.
func (h *Handler) Register(r *gin.Engine, opts Options) {
	r.RedirectTrailingSlash = false

	var guard []gin.HandlerFunc
	if opts.AuthRequired {
		guard = append(guard, auth.Bearer(h.issuer))
	}
	mutate := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), handler)
	}

	api := r.Group("/api")
	{
		api.POST("/login", h.Login)
		api.GET("/dashboard", h.Dashboard)

		api.GET("/class-members", h.ListMembers)
		api.POST("/class-members", mutate(h.CreateMember)...)
		api.DELETE("/class-members/:id", mutate(h.DeleteMember)...)

		api.GET("/committee", h.ListCommittee)
		api.POST("/committee", mutate(h.CreateCommitteeMember)...)
		api.DELETE("/committee/:id", mutate(h.DeleteCommitteeMember)...)

		api.GET("/activities", h.ListActivities)
		api.GET("/activities/stats", h.ActivityStats)
		api.POST("/activities", mutate(h.CreateActivity)...)
		api.DELETE("/activities/:id", mutate(h.DeleteActivity)...)

		api.GET("/schedules", h.ListSchedules)
		api.GET("/schedules/stats", h.ScheduleStats)
		api.POST("/schedules", mutate(h.CreateSchedule)...)
		api.DELETE("/schedules/:id", mutate(h.DeleteSchedule)...)

		api.GET("/messages", h.ListMessages)
		api.POST("/messages", mutate(h.CreateMessage)...)
	}

	if h.hub != nil {
		r.GET("/ws", func(c *gin.Context) { h.hub.ServeWS(c.Writer, c.Request) })
	}
	r.NoRoute(h.fallback(opts.PublicDir))
}

// fallback upgrades stray websocket handshakes, serves the frontend and
// answers everything else with the JSON 404.
func (h *Handler) fallback(publicDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.hub != nil && presence.IsWebSocketUpgrade(c.Request) {
			h.hub.ServeWS(c.Writer, c.Request)
			return
		}
		p := c.Request.URL.Path
		if publicDir != "" && c.Request.Method == http.MethodGet && !strings.HasPrefix(p, "/api/") {
			if file, ok := staticFile(publicDir, p); ok {
				c.File(file)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "endpoint not found"})
	}
}

func staticFile(dir, urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if strings.HasSuffix(clean, "/") {
		clean += "index.html"
	}
	file := filepath.Join(dir, filepath.FromSlash(clean))
	info, err := os.Stat(file)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		file = filepath.Join(file, "index.html")
		if _, err := os.Stat(file); err != nil {
			return "", false
		}
	}
	return file, true
}

// fail writes err using the API's error envelope. Internal errors are logged
// and replaced with the generic message for op.
func fail(c *gin.Context, err error, op string) {
	switch classroom.KindOf(err) {
	case classroom.KindValidation, classroom.KindConflict:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case classroom.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	default:
		log.Printf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to " + op})
	}
}

func ack(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

// bind decodes the JSON body; an absent body leaves in zero-valued so the
// service reports the missing fields.
func bind(c *gin.Context, in any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid JSON body"})
		return false
	}
	return true
}
