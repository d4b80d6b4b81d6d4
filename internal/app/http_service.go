package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// HTTPService 对外 API 的 HTTP 服务
type HTTPService struct {
	name   string
	server *http.Server
}

// HTTPTimeouts HTTP 读写超时
type HTTPTimeouts struct {
	Read  time.Duration
	Write time.Duration
}

// NewHTTPService 创建 HTTP 服务
func NewHTTPService(addr string, handler http.Handler, timeouts HTTPTimeouts) *HTTPService {
	return &HTTPService{
		name: "http",
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.Read,
			ReadTimeout:       timeouts.Read,
			WriteTimeout:      timeouts.Write,
		},
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	if s == nil || s.name == "" {
		return "http"
	}
	return s.name
}

// Start 启动服务，ctx 作为请求的基础上下文
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	s.server.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 停止服务，等待进行中的请求结束
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
