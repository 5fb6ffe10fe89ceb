package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/roomcast/roomcast/internal/config"
	"github.com/roomcast/roomcast/internal/session"
	"github.com/roomcast/roomcast/internal/ws"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`roomcast - live group session backend

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT            Port to listen on (default: 8080)
  IDLE_TIMEOUT    Destroy sessions idle this long (default: 30m)
  REAP_INTERVAL   How often the idle reaper runs (default: 1m)
  CODE_LENGTH     Session code length (default: 5)
  BOARD_SIZE      Answer board slots (default: 8)
  AUTO_ADVANCE    Auto-advance timed rounds on expiry (default: false)
  EXPORT_ENABLED  Append session results to file (default: false)
  EXPORT_FILE     Results file path (default: ./roomcast-results.txt)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("roomcast %s\n", version)
		return
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *portFlag != "" {
		cfg.Port = *portFlag
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	store := session.NewStore(cfg)
	sock := ws.New(store)
	io := sock.Mount(r)
	defer io.Close()

	store.StartReaper(context.Background())

	// Minimal REST surface for host bootstrap and join screens
	r.POST("/api/sessions", func(c *gin.Context) {
		var req struct {
			ActivityKind session.ActivityKind  `json:"activityKind"`
			Config       session.SessionConfig `json:"config"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_config"})
			return
		}
		sess, err := store.Create(req.ActivityKind, req.Config)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessionId": sess.Code, "hostToken": sess.HostToken})
	})
	r.GET("/api/sessions/:code", func(c *gin.Context) {
		sess, err := store.Get(c.Param("code"))
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessionId": sess.Code, "activityKind": sess.Kind})
	})

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
