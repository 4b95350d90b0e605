package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openmixer/mixer/internal/enrich"
	"github.com/openmixer/mixer/internal/match"
	"github.com/openmixer/mixer/internal/pool"
	"github.com/openmixer/mixer/internal/profile"
	"github.com/openmixer/mixer/internal/store"
)

const httpShutdownTimeout = 10 * time.Second

// Matcher runs one matchmaking pass. Implemented by match.Engine.
type Matcher interface {
	FindMatches(ctx context.Context, user profile.Profile, candidates []profile.Profile) (*match.Result, error)
}

// Enricher runs the registration-time profile analysis.
type Enricher interface {
	Enrich(ctx context.Context, p profile.Profile) (*enrich.Report, error)
}

// Server exposes the registration and matchmaking API.
type Server struct {
	store    *store.Store
	enricher Enricher
	matcher  Matcher
	logger   *zap.Logger
}

func New(st *store.Store, enricher Enricher, matcher Matcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:    st,
		enricher: enricher,
		matcher:  matcher,
		logger:   logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/matches", s.handleMatches)
	api.GET("/matches/:user_id", s.handleGetMatches)
	api.GET("/users", s.handleListUsers)

	return router
}

// Run serves the API until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("api server listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleRegister(c *gin.Context) {
	var form map[string]any
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if msg, ok := checkRequiredFields(form, "name", "linkedin_url", "give"); !ok {
		errorResponse(c, http.StatusBadRequest, msg)
		return
	}
	if !hasAskField(form) {
		errorResponse(c, http.StatusBadRequest, "missing required field: ask")
		return
	}

	p, err := profile.FromForm(form)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := p.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	p.EnsureID()

	report, err := s.enricher.Enrich(c.Request.Context(), *p)
	if err != nil {
		s.logger.Error("registration enrichment failed",
			zap.String("name", p.Name),
			zap.Error(err),
		)
		errorResponse(c, http.StatusBadGateway, "profile analysis failed")
		return
	}

	if err := s.store.UpsertProfile(c.Request.Context(), report.Profile); err != nil {
		s.logger.Error("saving profile failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to save profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Successfully processed user: %s", report.Profile.Name),
		"data": gin.H{
			"user_id":              report.Profile.ID,
			"profile":              report.Profile,
			"give_take_evaluation": report.Evaluation,
			"linkedin_fetched":     report.Fetched,
		},
	})
}

type matchesRequest struct {
	User      map[string]any   `json:"user"`
	Attendees []map[string]any `json:"attendees"`
}

func (s *Server) handleMatches(c *gin.Context) {
	var req matchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.User == nil {
		errorResponse(c, http.StatusBadRequest, "missing 'user' field in request")
		return
	}
	if req.Attendees == nil {
		errorResponse(c, http.StatusBadRequest, "missing 'attendees' field in request")
		return
	}

	user, err := profile.FromForm(req.User)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	attendees := make([]profile.Profile, 0, len(req.Attendees))
	for i, raw := range req.Attendees {
		if msg, ok := checkRequiredFields(raw, "name", "give"); !ok {
			errorResponse(c, http.StatusBadRequest, fmt.Sprintf("attendee %d: %s", i, msg))
			return
		}
		if !hasAskField(raw) {
			errorResponse(c, http.StatusBadRequest, fmt.Sprintf("attendee %d: missing required field: ask", i))
			return
		}

		attendee, err := profile.FromForm(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, fmt.Sprintf("attendee %d: %v", i, err))
			return
		}
		attendees = append(attendees, *attendee)
	}

	candidates, err := pool.Run(s.logger, pool.Defaults(), attendees)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.matcher.FindMatches(c.Request.Context(), *user, candidates)
	if err != nil {
		s.logger.Error("matchmaking failed",
			zap.String("user", user.Name),
			zap.Error(err),
		)
		errorResponse(c, http.StatusBadGateway, "matchmaking failed")
		return
	}

	resp := match.Format(result)

	if err := s.store.SaveMatchResult(c.Request.Context(), user.Key(), resp); err != nil {
		s.logger.Warn("saving match result failed",
			zap.String("user_id", user.Key()),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Found %d matches for %s", resp.TotalMatches, user.Name),
		"data":    resp,
	})
}

func (s *Server) handleGetMatches(c *gin.Context) {
	userID := c.Param("user_id")

	resp, err := s.store.GetMatchResult(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, fmt.Sprintf("no matches found for user %s", userID))
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to load matches")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": resp})
}

func (s *Server) handleListUsers(c *gin.Context) {
	profiles, err := s.store.ListProfiles(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"total_users": len(profiles),
			"users":       profiles,
		},
	})
}

// hasAskField reports whether the form carries an ask statement under the
// canonical name or its "take" alias.
func hasAskField(form map[string]any) bool {
	if _, ok := form["ask"]; ok {
		return true
	}
	_, ok := form["take"]
	return ok
}

func checkRequiredFields(form map[string]any, fields ...string) (string, bool) {
	for _, field := range fields {
		value, ok := form[field]
		if !ok {
			return fmt.Sprintf("missing required field: %s", field), false
		}
		if str, isString := value.(string); isString && str == "" {
			return fmt.Sprintf("missing required field: %s", field), false
		}
	}
	return "", true
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}
