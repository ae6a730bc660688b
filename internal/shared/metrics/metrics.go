package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	summaryGeneratedTotal atomic.Uint64
	summaryFailedTotal    atomic.Uint64
	summaryReusedTotal    atomic.Uint64
	chatRepliedTotal      atomic.Uint64
	chatFailedTotal       atomic.Uint64

	generationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncSummaryGenerated increments the generated-summary counter.
func IncSummaryGenerated() {
	summaryGeneratedTotal.Add(1)
}

// IncSummaryFailed increments the failed-summary counter.
func IncSummaryFailed() {
	summaryFailedTotal.Add(1)
}

// IncSummaryReused increments the reused-summary counter (open with summary present).
func IncSummaryReused() {
	summaryReusedTotal.Add(1)
}

// IncChatReplied increments the chat reply counter.
func IncChatReplied() {
	chatRepliedTotal.Add(1)
}

// IncChatFailed increments the failed chat reply counter.
func IncChatFailed() {
	chatFailedTotal.Add(1)
}

// ObserveGenerationDurationMs records a provider call duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "summary_generated_total", "Total document summaries generated", summaryGeneratedTotal.Load())
	writeCounter(&buf, "summary_failed_total", "Total summary generations failed", summaryFailedTotal.Load())
	writeCounter(&buf, "summary_reused_total", "Total session opens served by an existing summary", summaryReusedTotal.Load())
	writeCounter(&buf, "chat_replied_total", "Total chat replies generated", chatRepliedTotal.Load())
	writeCounter(&buf, "chat_failed_total", "Total chat replies failed", chatFailedTotal.Load())
	writeHistogram(&buf, "generation_duration_ms", "Provider generation duration in milliseconds", generationDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
