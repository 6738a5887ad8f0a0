package middleware

import (
	"net/http"
	"time"
)

// HTTPMetricsRecorder はリクエスト単位のメトリクス記録に必要なインターフェース。
// metrics.Collectorが満たす。
type HTTPMetricsRecorder interface {
	RecordHTTPRequest(method string, statusCode int, duration time.Duration)
}

// NewMetricsMiddleware はリクエストごとにメソッド・ステータス・処理時間を記録するミドルウェアを返す。
func NewMetricsMiddleware(recorder HTTPMetricsRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			recorder.RecordHTTPRequest(r.Method, rec.statusCode, time.Since(start))
		})
	}
}
