package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scrumdeck/scrumdeck/internal/auth"
	"github.com/scrumdeck/scrumdeck/internal/domain"
	"github.com/scrumdeck/scrumdeck/internal/store"
)

type createScrumRequest struct {
	Name            string `json:"name" binding:"required"`
	Color           string `json:"color"`
	DurationMinutes int    `json:"durationMinutes"`
	SpeakerSeconds  int    `json:"speakerSeconds"`
	Attendees       []struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	} `json:"attendees"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func registerStoreRoutes(api *gin.RouterGroup, st *store.Store, authSvc *auth.Service) {
	api.GET("/scrums", func(c *gin.Context) {
		scrums, err := st.ListScrums(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("list scrums")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve scrum data"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scrums": scrums})
	})

	api.POST("/scrums", func(c *gin.Context) {
		var req createScrumRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields for new scrum"})
			return
		}
		scrum := &domain.Scrum{
			ID:              uuid.NewString(),
			Name:            req.Name,
			Color:           req.Color,
			DurationMinutes: req.DurationMinutes,
			SpeakerSeconds:  req.SpeakerSeconds,
		}
		for _, a := range req.Attendees {
			scrum.Attendees = append(scrum.Attendees, domain.Attendee{Name: a.Name, Color: a.Color})
		}
		if err := st.CreateScrum(c.Request.Context(), scrum); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("create scrum")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create new scrum"})
			return
		}
		c.JSON(http.StatusCreated, scrum)
	})

	api.GET("/users", func(c *gin.Context) {
		accounts, err := st.ListAccounts(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("list accounts")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": accounts})
	})

	api.POST("/users", func(c *gin.Context) {
		var req credentialsRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		token, created, err := authSvc.LoginOrRegister(c.Request.Context(), req.Email, req.Password)
		if err != nil || !created {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create new user"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token})
	})

	api.POST("/auth/login", func(c *gin.Context) {
		var req credentialsRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		token, created, err := authSvc.LoginOrRegister(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Msg("login")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "an unexpected server error occurred"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "created": created})
	})
}
