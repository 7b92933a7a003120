// Package api 把协作接口暴露为 HTTP JSON 服务（tvrate serve）。
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/tvrate/internal/app"
	"github.com/John-Robertt/tvrate/internal/domain"
)

// MaxBatch 限制单次批量请求的剧集数。
const MaxBatch = 50

// Reporter 是 api 需要的最小能力（通常是 *app.Service）。
type Reporter interface {
	Resolve(ctx context.Context, name string) (app.Result, error)
	Batch(ctx context.Context, names []string) domain.BatchReport
}

type reportResponse struct {
	Series string `json:"series"`
	Title  string `json:"title,omitempty"`
	Report string `json:"report,omitempty"`
	Kind   string `json:"error_kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

type batchRequest struct {
	Series []string `json:"series" binding:"required"`
}

// NewRouter 注册全部路由。gin 的运行模式由调用方通过 gin.SetMode 决定。
func NewRouter(rep Reporter, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/report", reportHandler(rep))
		apiGroup.POST("/reports", batchHandler(rep))
	}
	return r
}

func reportHandler(rep Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("series"))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 series 参数"})
			return
		}

		res, err := rep.Resolve(c.Request.Context(), name)
		if err != nil {
			c.JSON(statusFor(err), reportResponse{
				Series: name,
				Kind:   string(domain.KindOf(err)),
				Error:  domain.Humanize(err),
			})
			return
		}
		c.JSON(http.StatusOK, reportResponse{Series: name, Title: res.Title, Report: res.Text})
	}
}

func batchHandler(rep Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "请求体必须是 {\"series\": [...]}：" + err.Error()})
			return
		}
		if len(req.Series) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "series 不能为空"})
			return
		}
		if len(req.Series) > MaxBatch {
			c.JSON(http.StatusBadRequest, gin.H{"error": "series 数量超过上限"})
			return
		}

		c.JSON(http.StatusOK, rep.Batch(c.Request.Context(), req.Series))
	}
}

// statusFor 把流水线错误映射为 HTTP 状态码：
// 找不到/结构不符（series/season/parse/average）为 422，上游网络或单集失败为 502。
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindSeries, domain.KindSeason, domain.KindParse, domain.KindAverage:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(started)).
			Msg("http")
	}
}

// Serve 在 addr 上提供 HTTP 服务，ctx 取消时优雅关闭（最多等待 5 秒）。
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP 服务已启动")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("HTTP 服务已关闭")
	return nil
}
