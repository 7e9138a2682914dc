package server

import (
	"strings"

	"crypto-advisor/src/helpers"

	"github.com/gin-gonic/gin"
)

// handlePriceStream upgrades to a websocket that pushes the caller's price
// set. Browsers cannot set headers on upgrade, so the token may also arrive
// as ?token=.
func (s *APIServer) handlePriceStream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if strings.TrimSpace(token) == "" {
		s.respondError(c, helpers.NewUnauthorized("Access denied. No token provided.", nil))
		return
	}

	claims, err := s.deps.Tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		s.respondError(c, err)
		return
	}

	profile, err := s.deps.Users.GetProfile(c.Request.Context(), claims.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !profile.OnboardingCompleted || len(profile.Preferences.Assets) == 0 {
		s.respondError(c, helpers.NewPreconditionFailed("Please complete onboarding first"))
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Warning("websocket upgrade failed: %v", err)
		return
	}

	client := NewClient(s.hub, conn, claims.ID, profile.Preferences.Assets)
	s.hub.Register(client)
	go client.writePump()
	go client.readPump()
}
