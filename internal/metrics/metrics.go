// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービスとチャットサービスから利用する。
type MetricsCollector interface {
	RecordLogin(method string)
	RecordOTPIssued()
	RecordOTPVerifyFailure(reason string)
	RecordEmailDelivery(success bool)
	RecordChatExchange(isCrisis bool)
	RecordLLMLatency(duration time.Duration)
	RecordLLMFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins        *prometheus.CounterVec
	otpIssued     prometheus.Counter
	otpVerifyFail *prometheus.CounterVec
	emailSent     prometheus.Counter
	emailFail     prometheus.Counter
	chatExchanges prometheus.Counter
	crisisFlagged prometheus.Counter
	llmLatency    prometheus.Histogram
	llmFail       prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saathi_logins_total",
			Help: "ログイン成功の合計数（経路別）",
		}, []string{"method"}),
		otpIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saathi_otp_issued_total",
			Help: "発行されたワンタイムコードの合計数",
		}),
		otpVerifyFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saathi_otp_verify_fail_total",
			Help: "ワンタイムコード検証失敗の合計数（理由別）",
		}, []string{"reason"}),
		emailSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saathi_email_sent_total",
			Help: "メール配送成功の合計数",
		}),
		emailFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saathi_email_fail_total",
			Help: "メール配送失敗の合計数",
		}),
		chatExchanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saathi_chat_exchanges_total",
			Help: "チャット往復の合計数",
		}),
		crisisFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saathi_crisis_flagged_total",
			Help: "クライシス判定されたメッセージの合計数",
		}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "saathi_llm_latency_seconds",
			Help:    "LLM呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		llmFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saathi_llm_fail_total",
			Help: "LLM呼び出し失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.logins,
		c.otpIssued,
		c.otpVerifyFail,
		c.emailSent,
		c.emailFail,
		c.chatExchanges,
		c.crisisFlagged,
		c.llmLatency,
		c.llmFail,
	)

	return c
}

// RecordLogin はログイン成功を経路別に記録する。methodは otp / anonymous / google。
func (c *Collector) RecordLogin(method string) {
	c.logins.WithLabelValues(method).Inc()
}

// RecordOTPIssued はワンタイムコードの発行を記録する。
func (c *Collector) RecordOTPIssued() {
	c.otpIssued.Inc()
}

// RecordOTPVerifyFailure は検証失敗を理由別に記録する。reasonは not_found / invalid / expired。
func (c *Collector) RecordOTPVerifyFailure(reason string) {
	c.otpVerifyFail.WithLabelValues(reason).Inc()
}

// RecordEmailDelivery はメール配送の成否を記録する。
func (c *Collector) RecordEmailDelivery(success bool) {
	if success {
		c.emailSent.Inc()
	} else {
		c.emailFail.Inc()
	}
}

// RecordChatExchange はチャット往復を記録する。クライシス判定された場合はその数も加算する。
func (c *Collector) RecordChatExchange(isCrisis bool) {
	c.chatExchanges.Inc()
	if isCrisis {
		c.crisisFlagged.Inc()
	}
}

// RecordLLMLatency はLLM呼び出しのレイテンシを記録する。
func (c *Collector) RecordLLMLatency(duration time.Duration) {
	c.llmLatency.Observe(duration.Seconds())
}

// RecordLLMFailure はLLM呼び出しの失敗を記録する。
func (c *Collector) RecordLLMFailure() {
	c.llmFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テスト用。
type NopCollector struct{}

func (NopCollector) RecordLogin(string)             {}
func (NopCollector) RecordOTPIssued()               {}
func (NopCollector) RecordOTPVerifyFailure(string)  {}
func (NopCollector) RecordEmailDelivery(bool)       {}
func (NopCollector) RecordChatExchange(bool)        {}
func (NopCollector) RecordLLMLatency(time.Duration) {}
func (NopCollector) RecordLLMFailure()              {}

// compile-time interface checks
var _ MetricsCollector = (*Collector)(nil)
var _ MetricsCollector = NopCollector{}
