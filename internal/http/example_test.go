package http_test

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	httpserver "github.com/fyrsmithlabs/figclass/internal/http"
	"github.com/fyrsmithlabs/figclass/internal/logging"
	"github.com/fyrsmithlabs/figclass/internal/pipeline"
)

// ExampleServer demonstrates how to create and start the HTTP server.
func ExampleServer() {
	logger := logging.Nop()

	cfg := &httpserver.Config{
		Host: "localhost",
		Port: 18080,
	}

	server, err := httpserver.NewServer(pipeline.New(nil, nil), logger, cfg)
	if err != nil {
		panic(err)
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Error(context.Background(), "server error", zap.Error(err))
		}
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error(ctx, "shutdown error", zap.Error(err))
	}

	fmt.Println("Server started and stopped successfully")
	// Output: Server started and stopped successfully
}
