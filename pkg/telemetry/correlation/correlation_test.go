package correlation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func TestEnsureCorrelationID(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	if cid == "" {
		t.Fatalf("expected generated id")
	}
	again, same := EnsureCorrelationID(ctx)
	if same != cid || ExtractCorrelationID(again) != cid {
		t.Fatalf("expected id to be kept, got %q and %q", cid, same)
	}
	if ExtractCorrelationID(context.Background()) != "" {
		t.Fatalf("empty context must have no id")
	}
}

func TestMetadataIncludesTrace(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(ContextWithCorrelationID(context.Background(), "cid-1"), sc)

	meta := Metadata(ctx)
	if meta["correlation_id"] != "cid-1" || meta["trace_id"] != traceID.String() || meta["span_id"] != spanID.String() {
		t.Fatalf("unexpected metadata %v", meta)
	}
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ExtractCorrelationID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, "from-caller")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "from-caller" || w.Header().Get(HeaderName) != "from-caller" {
		t.Fatalf("expected caller id to be adopted, got body=%q header=%q", w.Body.String(), w.Header().Get(HeaderName))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() == "" || w.Body.String() != w.Header().Get(HeaderName) {
		t.Fatalf("expected minted id echoed back, got body=%q header=%q", w.Body.String(), w.Header().Get(HeaderName))
	}
}
