package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"classroom/internal/classroom"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login checks a username/password/role triple and issues an access token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	if req.Username == "" || req.Password == "" || req.Role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "username, password and role are required"})
		return
	}

	user, found := h.creds.Authenticate(req.Username, req.Password, req.Role)
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid username, password or role"})
		return
	}

	token, exp, err := h.issuer.Issue(user)
	if err != nil {
		log.Printf("issue token for %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "login successful",
		"user":       user,
		"token":      token,
		"expires_at": exp.Unix(),
	})
}

// Dashboard returns the headline counts.
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

// ---------- class members ----------

// ListMembers lists members, filtered by ?search= and ?role=.
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.svc.ListMembers(c.Request.Context(), classroom.MemberFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
	})
	if err != nil {
		fail(c, err, "list class members")
		return
	}
	c.JSON(http.StatusOK, members)
}

// CreateMember adds a member.
func (h *Handler) CreateMember(c *gin.Context) {
	var in classroom.NewMember
	if !bind(c, &in) {
		return
	}
	if err := h.svc.CreateMember(c.Request.Context(), in); err != nil {
		fail(c, err, "add class member")
		return
	}
	ack(c, "member added")
}

// DeleteMember removes the member with the path id.
func (h *Handler) DeleteMember(c *gin.Context) {
	if err := h.svc.DeleteMember(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "delete class member")
		return
	}
	ack(c, "member deleted")
}

// ---------- committee ----------

// ListCommittee lists committee entries.
func (h *Handler) ListCommittee(c *gin.Context) {
	list, err := h.svc.ListCommittee(c.Request.Context())
	if err != nil {
		fail(c, err, "list committee")
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateCommitteeMember adds a committee entry.
func (h *Handler) CreateCommitteeMember(c *gin.Context) {
	var in classroom.NewCommitteeMember
	if !bind(c, &in) {
		return
	}
	if err := h.svc.CreateCommitteeMember(c.Request.Context(), in); err != nil {
		fail(c, err, "add committee member")
		return
	}
	ack(c, "committee member added")
}

// DeleteCommitteeMember removes the committee entry with the path id.
func (h *Handler) DeleteCommitteeMember(c *gin.Context) {
	if err := h.svc.DeleteCommitteeMember(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "delete committee member")
		return
	}
	ack(c, "committee member deleted")
}

// ---------- activities ----------

// ListActivities lists activities, filtered by date range and type.
func (h *Handler) ListActivities(c *gin.Context) {
	list, err := h.svc.ListActivities(c.Request.Context(), classroom.ActivityFilter{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Type:      c.Query("type"),
	})
	if err != nil {
		fail(c, err, "list activities")
		return
	}
	c.JSON(http.StatusOK, list)
}

// ActivityStats returns activity counts per month.
func (h *Handler) ActivityStats(c *gin.Context) {
	stats, err := h.svc.ActivityStats(c.Request.Context())
	if err != nil {
		fail(c, err, "load activity stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateActivity adds an activity.
func (h *Handler) CreateActivity(c *gin.Context) {
	var in classroom.NewActivity
	if !bind(c, &in) {
		return
	}
	if err := h.svc.CreateActivity(c.Request.Context(), in); err != nil {
		fail(c, err, "add activity")
		return
	}
	ack(c, "activity added")
}

// DeleteActivity removes the activity with the path id.
func (h *Handler) DeleteActivity(c *gin.Context) {
	if err := h.svc.DeleteActivity(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "delete activity")
		return
	}
	ack(c, "activity deleted")
}

// ---------- schedules ----------

// ListSchedules lists duty schedules, filtered by date range and status.
func (h *Handler) ListSchedules(c *gin.Context) {
	list, err := h.svc.ListSchedules(c.Request.Context(), classroom.ScheduleFilter{
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Status:    c.Query("status"),
	})
	if err != nil {
		fail(c, err, "list schedules")
		return
	}
	c.JSON(http.StatusOK, list)
}

// ScheduleStats returns schedule counts and percentages per status.
func (h *Handler) ScheduleStats(c *gin.Context) {
	stats, err := h.svc.ScheduleStats(c.Request.Context())
	if err != nil {
		fail(c, err, "load schedule stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateSchedule adds a duty schedule.
func (h *Handler) CreateSchedule(c *gin.Context) {
	var in classroom.NewSchedule
	if !bind(c, &in) {
		return
	}
	if err := h.svc.CreateSchedule(c.Request.Context(), in); err != nil {
		fail(c, err, "add schedule")
		return
	}
	ack(c, "schedule added")
}

// DeleteSchedule removes the schedule with the path id.
func (h *Handler) DeleteSchedule(c *gin.Context) {
	if err := h.svc.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err, "delete schedule")
		return
	}
	ack(c, "schedule deleted")
}

// ---------- messages ----------

// ListMessages lists guestbook messages, newest first.
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.svc.ListMessages(c.Request.Context())
	if err != nil {
		fail(c, err, "list messages")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// CreateMessage posts a guestbook message.
func (h *Handler) CreateMessage(c *gin.Context) {
	var in classroom.NewMessage
	if !bind(c, &in) {
		return
	}
	if err := h.svc.CreateMessage(c.Request.Context(), in); err != nil {
		fail(c, err, "post message")
		return
	}
	ack(c, "message posted")
}
