// Package api exposes question generation over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/abhisek/examgen/internal/generation"
	"github.com/abhisek/examgen/internal/problemgen"
	"github.com/abhisek/examgen/internal/syllabus"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Generator is the part of the orchestrator the API needs.
type Generator interface {
	GenerateQuestion(ctx context.Context, req problemgen.GenerationRequest) (*problemgen.ValidatedQuestion, error)
}

// Server holds the HTTP handlers.
type Server struct {
	gen     Generator
	catalog *syllabus.Catalog
	costs   CreditCoster
	logger  *zap.Logger
}

// NewServer creates a Server. A nil coster prices everything at zero.
func NewServer(gen Generator, catalog *syllabus.Catalog, costs CreditCoster, logger *zap.Logger) *Server {
	if costs == nil {
		costs = StaticCosts{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		gen:     gen,
		catalog: catalog,
		costs:   costs,
		logger:  logger.Named("api"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", s.health)

	v1 := router.Group("/v1")
	v1.POST("/questions", s.createQuestion)
	v1.GET("/subjects", s.listSubjects)
	v1.GET("/topics/:subject", s.listTopics)

	return router
}

type questionRequest struct {
	ActorID      string `json:"actor_id" binding:"required"`
	Subject      string `json:"subject" binding:"required"`
	Topic        string `json:"topic" binding:"required"`
	Difficulty   string `json:"difficulty" binding:"required"`
	FormLevel    string `json:"form_level"`
	DisplayName  string `json:"display_name"`
	TimeBudgetMS int64  `json:"time_budget_ms" binding:"gte=0,lte=600000"` // at most ten minutes
}

type questionResponse struct {
	Question   *problemgen.ValidatedQuestion `json:"question"`
	CreditCost int                           `json:"credit_cost"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) createQuestion(c *gin.Context) {
	var body questionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_request"})
		return
	}
	difficulty, err := problemgen.ParseDifficulty(body.Difficulty)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_request"})
		return
	}

	req := problemgen.GenerationRequest{
		ActorID:     body.ActorID,
		Subject:     body.Subject,
		Topic:       body.Topic,
		Difficulty:  difficulty,
		FormLevel:   body.FormLevel,
		DisplayName: body.DisplayName,
		TimeBudget:  time.Duration(body.TimeBudgetMS) * time.Millisecond,
	}
	cost := s.costs.CreditCost(req.RateAction(), req.Difficulty)

	q, err := s.gen.GenerateQuestion(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, questionResponse{Question: q, CreditCost: cost})
	case errors.Is(err, generation.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_request"})
	case errors.Is(err, generation.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error(), Code: "rate_limited"})
	case errors.Is(err, generation.ErrAlreadyGenerating):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "already_generating"})
	default:
		s.logger.Error("generate question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}

func (s *Server) listSubjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subjects": s.catalog.Subjects()})
}

func (s *Server) listTopics(c *gin.Context) {
	subject := c.Param("subject")
	topics, err := s.catalog.Topics(subject)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject, "topics": topics})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("http.method", c.Request.Method),
			zap.String("http.path", c.Request.URL.Path),
			zap.Int("http.status_code", c.Writer.Status()),
			zap.Int64("http.latency_ms", time.Since(start).Milliseconds()),
			zap.String("http.client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("http.error", c.Errors.String()))
		}
		s.logger.Info("http request", fields...)
	}
}
