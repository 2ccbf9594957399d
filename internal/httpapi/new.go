package httpapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/demozone/internal/config"
	"github.com/nguyentantai21042004/demozone/internal/ledger"
	"github.com/nguyentantai21042004/demozone/internal/logger"
)

// uploadSet is one upload destination with its extension allow-list.
type uploadSet struct {
	kind string
	dir  string
	exts map[string]struct{}
}

type implServer struct {
	addr           string
	maxUploadBytes int64
	defaultSpeak   int
	ledger         ledger.Ledger
	logger         logger.Logger
	engine         *gin.Engine

	mu       sync.Mutex
	reserved map[string]struct{}
}

// New builds the upload API routes.
func New(cfg *config.Config, l ledger.Ledger, log logger.Logger) Server {
	gin.SetMode(gin.ReleaseMode)

	s := &implServer{
		addr:           cfg.Server.Addr,
		maxUploadBytes: cfg.Server.MaxUploadMB << 20,
		defaultSpeak:   cfg.Session.DefaultMaxSpeakers,
		ledger:         l,
		logger:         log,
		reserved:       make(map[string]struct{}),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger(log))
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors
	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"OPTIONS", "GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", headerRequestID},
		ExposeHeaders:    []string{"Content-Length", headerRequestID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	audio := uploadSet{kind: ledger.KindAudio, dir: cfg.Paths.Audio, exts: extSet(cfg.Server.AudioExts)}
	image := uploadSet{kind: ledger.KindImage, dir: cfg.Paths.Images, exts: extSet(cfg.Server.ImageExts)}

	engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.POST("/upload/audio", s.upload(audio))
	engine.POST("/upload/image", s.upload(image))

	s.engine = engine
	return s
}

func extSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

func (s *implServer) Handler() http.Handler {
	return s.engine
}
