package monitor

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"bilitrack-go/internal/config"
	"bilitrack-go/internal/cookie"
)

// Server exposes the cookie pool over HTTP for operators: aggregate status,
// sanitized per-cookie views and an on-demand batch probe.
type Server struct {
	cfg  *config.Config
	pool *cookie.Pool
}

// NewServer creates the monitor handler set.
func NewServer(cfg *config.Config, pool *cookie.Pool) *Server {
	return &Server{cfg: cfg, pool: pool}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", s.requireKey)
	api.GET("/status", s.handleStatus)
	api.GET("/cookies", s.handleCookies)
	api.POST("/probe", s.handleProbe)

	return r
}

// requireKey accepts Authorization: Bearer <management_key>.
func (s *Server) requireKey(c *gin.Context) {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		if config.CheckManagementKey(s.cfg, strings.TrimSpace(auth[7:])) {
			c.Next()
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.pool.ComprehensiveStatus())
}

func (s *Server) handleCookies(c *gin.Context) {
	status := s.pool.ComprehensiveStatus()
	c.JSON(http.StatusOK, status.CurrentStatus)
}

func (s *Server) handleProbe(c *gin.Context) {
	results := s.pool.ProbeAll(c.Request.Context())
	if len(results) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"results": results,
			"note":    "empty result, probe interval may not have elapsed",
		})
		return
	}
	log.Infof("manual batch probe finished over %d cookie(s)", len(results))
	c.JSON(http.StatusOK, gin.H{"results": results})
}
