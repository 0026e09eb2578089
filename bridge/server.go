// Package bridge exposes a robot driver over HTTP and talks to one
package bridge

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeu5/forage-rl/types"
)

// error kinds carried over the wire so the client can restore the sentinels
const (
	kindNotConnected = "not_connected"
	kindStopped      = "simulation_stopped"
	kindOther        = "driver"
)

type tiltRequest struct {
	Position float64 `json:"position"`
	Speed    int     `json:"speed"`
}

type moveRequest struct {
	Left       int   `json:"left"`
	Right      int   `json:"right"`
	DurationMS int64 `json:"duration_ms"`
}

type foodResponse struct {
	Food int `json:"food"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Server serves a driver, typically the simulator or the robot attached
// to this machine. Driver calls are serialized, except for waiting on a
// stop which would otherwise hold off the stop itself.
type Server struct {
	Addr   string
	driver types.Driver
	logger types.Logger
	server *http.Server

	lock *sync.Mutex
}

func NewServer(addr string, driver types.Driver, logger types.Logger) *Server {
	if logger == nil {
		logger = types.NewNullLogger()
	}
	s := &Server{
		Addr:   addr,
		driver: driver,
		logger: logger,
		lock:   new(sync.Mutex),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.POST("/connect", s.locked(func(c *gin.Context) error { return s.driver.Connect(c.Request.Context()) }))
	r.POST("/disconnect", s.locked(func(c *gin.Context) error { return s.driver.Disconnect(c.Request.Context()) }))
	r.POST("/simulation/start", s.locked(func(c *gin.Context) error { return s.driver.StartSimulation(c.Request.Context()) }))
	r.POST("/simulation/stop", s.locked(func(c *gin.Context) error { return s.driver.StopSimulation(c.Request.Context()) }))
	r.POST("/simulation/wait", s.handleWait)
	r.POST("/phone/tilt", s.handleTilt)
	r.POST("/move", s.handleMove)
	r.GET("/camera/front", s.handleCamera)
	r.GET("/food", s.handleFood)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler is the router, useful to mount the bridge in tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve listens until the context is cancelled and then shuts down
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()
	s.logger.Infof("Bridge listening on %s", s.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) locked(f func(*gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.lock.Lock()
		err := f(c)
		s.lock.Unlock()
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := kindOther
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrNotConnected):
		kind = kindNotConnected
		status = http.StatusConflict
	case errors.Is(err, types.ErrSimulationStopped):
		kind = kindStopped
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	}
	s.logger.Debugf("Request %s failed: %s", c.Request.URL.Path, err)
	c.JSON(status, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) handleWait(c *gin.Context) {
	if err := s.driver.WaitForStop(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) handleTilt(c *gin.Context) {
	req := tiltRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to unmarshal request", Kind: kindOther})
		return
	}
	s.locked(func(c *gin.Context) error {
		return s.driver.SetPhoneTilt(c.Request.Context(), req.Position, req.Speed)
	})(c)
}

func (s *Server) handleMove(c *gin.Context) {
	req := moveRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "failed to unmarshal request", Kind: kindOther})
		return
	}
	s.locked(func(c *gin.Context) error {
		return s.driver.Move(c.Request.Context(), req.Left, req.Right, time.Duration(req.DurationMS)*time.Millisecond)
	})(c)
}

func (s *Server) handleCamera(c *gin.Context) {
	s.lock.Lock()
	img, err := s.driver.ImageFront(c.Request.Context())
	s.lock.Unlock()
	if err != nil {
		s.fail(c, err)
		return
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleFood(c *gin.Context) {
	s.lock.Lock()
	food, err := s.driver.CollectedFood(c.Request.Context())
	s.lock.Unlock()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, foodResponse{Food: food})
}
