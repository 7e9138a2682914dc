package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/models"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type onboardingRequest struct {
	Preferences models.MUserPreferences `json:"preferences"`
}

type feedbackRequest struct {
	Section   string `json:"section"`
	ContentID string `json:"contentId"`
	Vote      string `json:"vote"`
}

// -----------------------------------------------------------------------------
// Service info
// -----------------------------------------------------------------------------

func (s *APIServer) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "AI Crypto Advisor API",
		"version": apiVersion,
		"endpoints": gin.H{
			"health":    "/api/health",
			"ready":     "/api/health/ready",
			"auth":      "/api/auth",
			"user":      "/api/user",
			"dashboard": "/api/dashboard",
			"feedback":  "/api/feedback",
			"cache":     "/api/cache",
			"stream":    "/api/ws/prices",
			"metrics":   "/metrics",
		},
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// -----------------------------------------------------------------------------

// handleReady pings the database and reports cache sizes. It answers 503
// while the database is unreachable.
func (s *APIServer) handleReady(c *gin.Context) {
	database := gin.H{"status": "unknown", "latency": nil}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.deps.Database.Ping(ctx); err != nil {
		database["status"] = "error"
		database["error"] = err.Error()
	} else {
		database["status"] = "connected"
	}
	database["latency"] = fmt.Sprintf("%dms", time.Since(start).Milliseconds())

	caches := gin.H{}
	for name, st := range s.deps.Caches.Stats() {
		caches[name] = gin.H{"keys": st.Keys}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	healthy := database["status"] == "connected"
	status, code := "ready", http.StatusOK
	if !healthy {
		status, code = "not ready", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"success":   healthy,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"checks":    gin.H{"database": database, "cache": caches},
		"uptime":    fmt.Sprintf("%ds", int(time.Since(s.startedAt).Seconds())),
		"memory": gin.H{
			"used":   fmt.Sprintf("%dMB", mem.HeapAlloc>>20),
			"total":  fmt.Sprintf("%dMB", mem.HeapSys>>20),
			"system": fmt.Sprintf("%dMB", helpers.SystemMemoryMB()),
		},
	})
}

// -----------------------------------------------------------------------------
// Auth
// -----------------------------------------------------------------------------

func (s *APIServer) handleRegister(c *gin.Context) {
	var req registerRequest
	if !s.bindJSON(c, &req) {
		return
	}
	result, err := s.deps.Auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, result)
}

func (s *APIServer) handleLogin(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}
	result, err := s.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// -----------------------------------------------------------------------------
// User
// -----------------------------------------------------------------------------

func (s *APIServer) handleOnboarding(c *gin.Context) {
	var req onboardingRequest
	if !s.bindJSON(c, &req) {
		return
	}
	user, err := s.deps.Users.UpdateOnboarding(c.Request.Context(), userID(c), req.Preferences)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

func (s *APIServer) handleProfile(c *gin.Context) {
	user, err := s.deps.Users.GetProfile(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, user)
}

// -----------------------------------------------------------------------------
// Dashboard
// -----------------------------------------------------------------------------

func (s *APIServer) handleDashboard(c *gin.Context) {
	payload, err := s.deps.Dashboard.GetDashboard(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, payload)
}

// -----------------------------------------------------------------------------
// Feedback
// -----------------------------------------------------------------------------

func (s *APIServer) handleSubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if !s.bindJSON(c, &req) {
		return
	}
	fb, err := s.deps.Feedback.Submit(c.Request.Context(), userID(c), req.Section, req.ContentID, req.Vote)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, fb)
}

func (s *APIServer) handleListFeedback(c *gin.Context) {
	items, err := s.deps.Feedback.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if items == nil {
		items = []models.MFeedback{}
	}
	respondOK(c, http.StatusOK, items)
}

// -----------------------------------------------------------------------------
// Cache administration
// -----------------------------------------------------------------------------

func (s *APIServer) handleCacheStats(c *gin.Context) {
	respondOK(c, http.StatusOK, s.deps.Caches.Stats())
}

func (s *APIServer) handleClearCache(c *gin.Context) {
	name := c.Param("name")
	if err := s.deps.Caches.Clear(name); err != nil {
		s.respondError(c, err)
		return
	}
	s.Logger.Info("cache %s cleared", name)
	c.JSON(http.StatusOK, envelope{Success: true, Message: fmt.Sprintf("Cache %s cleared", name)})
}

func (s *APIServer) handleClearCaches(c *gin.Context) {
	s.deps.Caches.ClearAll()
	s.Logger.Info("all caches cleared")
	c.JSON(http.StatusOK, envelope{Success: true, Message: "All caches cleared"})
}
