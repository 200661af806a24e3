package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// 全局 Tracer 只会绑定第一次设置的 provider，整个包共用一个记录器
var recorder = tracetest.NewSpanRecorder()

func TestMain(m *testing.M) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	code := m.Run()
	_ = tp.Shutdown(context.Background())
	os.Exit(code)
}

func endedSpan(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range recorder.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("span %q not recorded", name)
	return nil
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/user-streak/:userId", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user-streak/1", nil))

	span := endedSpan(t, "GET /api/user-streak/:userId")
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestEnd(t *testing.T) {
	_, ok := Tracer.Start(context.Background(), "ok")
	End(ok, nil)
	_, failed := Tracer.Start(context.Background(), "failed")
	End(failed, errors.New("boom"))

	assert.Equal(t, codes.Unset, endedSpan(t, "ok").Status().Code)
	failedSpan := endedSpan(t, "failed")
	assert.Equal(t, codes.Error, failedSpan.Status().Code)
	assert.Len(t, failedSpan.Events(), 1)
}
