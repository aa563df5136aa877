// Package server exposes the copilot over HTTP: turn submission with SSE
// progress, a WebSocket bridge, and chat history endpoints.
package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	searchpilot "github.com/Desarso/searchpilot"
	"github.com/Desarso/searchpilot/chats"
	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/ui"
)

// TurnPayload is the body of a turn submission.
type TurnPayload struct {
	Form  map[string]string `json:"form,omitempty"`
	Skip  bool              `json:"skip,omitempty"`
	Retry []chats.Message   `json:"retry,omitempty"`
}

// Server wires the copilot to HTTP routes.
type Server struct {
	copilot *searchpilot.Copilot
	log     *logger.Logger
	engine  *gin.Engine
	cron    *cron.Cron

	mu        sync.Mutex
	chatLocks map[string]*sync.Mutex
}

// New builds a server with all routes registered.
func New(copilot *searchpilot.Copilot, log *logger.Logger) *Server {
	s := &Server{
		copilot:   copilot,
		log:       log.WithComponent("server"),
		engine:    gin.Default(),
		chatLocks: make(map[string]*sync.Mutex),
	}

	s.engine.POST("/api/chats/:chatID/turn", s.handleTurn)
	s.engine.GET("/api/chats/:chatID", s.handleGetChat)
	s.engine.GET("/api/users/:userID/chats", s.handleListChats)
	s.engine.GET("/ws/chats/:chatID", s.handleTurnWS)
	s.engine.GET("/healthz", s.handleHealth)

	s.startRetentionJob()
	return s
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// lockChat serializes turns per chat. A conversation state is owned by one
// turn at a time.
func (s *Server) lockChat(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.chatLocks[chatID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.chatLocks[chatID] = l
	return l
}

func (s *Server) handleTurn(c *gin.Context) {
	chatID := c.Param("chatID")

	var payload TurnPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Form == nil && !payload.Skip && len(payload.Retry) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request must contain form fields, skip, or retry messages"})
		return
	}

	lock := s.lockChat(chatID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.copilot.Store.LoadChat(chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	result := s.copilot.Submit(c.Request.Context(), state, searchpilot.TurnRequest{
		Form:  payload.Form,
		Skip:  payload.Skip,
		Retry: payload.Retry,
	})
	c.SSEvent("turn", gin.H{"turnId": result.TurnID, "chatId": state.ChatID})
	c.Writer.Flush()

	uiCh, genCh, colCh := result.UI, result.Generating, result.Collapsed
	for uiCh != nil || genCh != nil || colCh != nil {
		select {
		case ev, ok := <-uiCh:
			if !ok {
				uiCh = nil
				continue
			}
			c.SSEvent("ui", ev)
			c.Writer.Flush()
		case v, ok := <-genCh:
			if !ok {
				genCh = nil
				continue
			}
			c.SSEvent("generating", v)
			c.Writer.Flush()
		case v, ok := <-colCh:
			if !ok {
				colCh = nil
				continue
			}
			c.SSEvent("collapsed", v)
			c.Writer.Flush()
		}
	}
	c.SSEvent("done", nil)
	c.Writer.Flush()
}

func (s *Server) handleGetChat(c *gin.Context) {
	chatID := c.Param("chatID")

	state, err := s.copilot.Store.LoadChat(chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if c.Query("share") == "true" {
		state.IsSharePage = true
	}

	c.JSON(http.StatusOK, gin.H{
		"chatId":   state.ChatID,
		"title":    chats.DeriveTitle(state.Messages),
		"messages": ui.FromState(state),
	})
}

func (s *Server) handleListChats(c *gin.Context) {
	userID := c.Param("userID")

	infos, err := s.copilot.Store.ListChatsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": infos})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.copilot.Store.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// startRetentionJob schedules a daily prune of chats older than the
// configured retention window.
func (s *Server) startRetentionJob() {
	days := s.copilot.Config.RetentionDays
	if days <= 0 {
		return
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc("@daily", func() {
		cutoff := time.Now().AddDate(0, 0, -days)
		pruned, err := s.copilot.Store.PruneBefore(cutoff)
		if err != nil {
			s.log.Error("retention prune failed", "error", err)
			return
		}
		s.log.Info("retention prune completed", "pruned", pruned, "cutoff", cutoff.Format(time.RFC3339))
	})
	if err != nil {
		s.log.Error("failed to schedule retention job", "error", err)
		return
	}
	s.cron.Start()
	s.log.Info(fmt.Sprintf("retention job scheduled, pruning chats older than %d days", days))
}
