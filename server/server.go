// Package server provides an HTTP API that folds uploaded agent chunk streams
// into messages, stores them per conversation and serves the reconstructed
// sandbox state.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/agentstream/pkg/history"
	"github.com/papercomputeco/agentstream/pkg/llm"
	"github.com/papercomputeco/agentstream/pkg/replay"
	"github.com/papercomputeco/agentstream/pkg/storage"
	"github.com/papercomputeco/agentstream/pkg/storage/inmemory"
	"github.com/papercomputeco/agentstream/pkg/storage/sqlite"
)

// Server is the agentstream HTTP API.
type Server struct {
	config Config
	storer storage.Storer
	logger *zap.Logger
	app    *fiber.App
}

// Open creates a Server with the storer selected by config.DBPath.
func Open(ctx context.Context, config Config, logger *zap.Logger) (*Server, error) {
	var storer storage.Storer

	if config.DBPath != "" {
		driver, err := sqlite.NewDriver(ctx, config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		storer = driver
		logger.Info("using SQLite storage", zap.String("path", config.DBPath))
	} else {
		storer = inmemory.NewDriver()
		logger.Info("using in-memory storage")
	}

	return New(config, storer, logger), nil
}

// New creates a Server over an existing storer. The server owns the storer
// and closes it on Close.
func New(config Config, storer storage.Storer, logger *zap.Logger) *Server {
	if config.BodyLimit == 0 {
		config.BodyLimit = DefaultConfig().BodyLimit
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})

	s := &Server{
		config: config,
		storer: storer,
		logger: logger,
		app:    app,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Get("/api/conversations", s.handleListConversations)

	api := app.Group("/api/conversations")
	api.Post("/:id/chunks", s.handleIngest)
	api.Get("/:id/messages", s.handleMessages)
	api.Get("/:id/state", s.handleState)

	return s
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("listen", s.config.ListenAddr))

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting server", zap.String("listen", ln.Addr().String()))

	return s.app.Listener(ln)
}

// Shutdown gracefully stops serving.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Close releases the storer.
func (s *Server) Close() error {
	return s.storer.Close()
}

// IngestResponse lists the messages folded from one uploaded chunk stream.
type IngestResponse struct {
	Messages []llm.ChatMessage `json:"messages"`
}

// handleIngest folds an NDJSON chunk stream into messages and appends each
// completed message to the conversation. A turn left open at the end of the
// body is stored as well, so a client can upload a turn in pieces as long as
// each piece starts at a message-start.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	conversationID := c.Params("id")

	rp := replay.New(s.logger)
	resp := IngestResponse{Messages: []llm.ChatMessage{}}

	store := func(msg *llm.ChatMessage) error {
		if err := s.storer.Append(ctx, conversationID, *msg); err != nil {
			return err
		}
		resp.Messages = append(resp.Messages, *msg)
		return nil
	}

	err := replay.Decode(bytes.NewReader(c.Body()), s.logger, func(chunk llm.StreamChunk) error {
		if msg, ok := rp.Feed(chunk); ok {
			return store(msg)
		}
		return nil
	})
	if err == nil {
		if msg, ok := rp.Flush(); ok {
			err = store(msg)
		}
	}
	if err != nil {
		s.logger.Error("failed to ingest chunks", zap.String("conversation", conversationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to store messages"})
	}

	s.logger.Info("chunks ingested",
		zap.String("conversation", conversationID),
		zap.Int("messages", len(resp.Messages)),
	)

	return c.JSON(resp)
}

func (s *Server) handleMessages(c *fiber.Ctx) error {
	messages, err := s.messages(c)
	if err != nil {
		return s.storageError(c, err)
	}

	return c.JSON(map[string]any{
		"count":    len(messages),
		"messages": messages,
	})
}

func (s *Server) handleState(c *fiber.Ctx) error {
	messages, err := s.messages(c)
	if err != nil {
		return s.storageError(c, err)
	}

	return c.JSON(history.State(messages))
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	ids, err := s.storer.Conversations(c.UserContext())
	if err != nil {
		return s.storageError(c, err)
	}
	if ids == nil {
		ids = []string{}
	}

	return c.JSON(map[string]any{
		"count":         len(ids),
		"conversations": ids,
	})
}

func (s *Server) messages(c *fiber.Ctx) ([]llm.ChatMessage, error) {
	return s.storer.Messages(c.UserContext(), c.Params("id"))
}

func (s *Server) storageError(c *fiber.Ctx, err error) error {
	var notFound storage.ErrNotFound
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "conversation not found"})
	}

	s.logger.Error("storage failure", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "storage failure"})
}
