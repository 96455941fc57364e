package config

import "time"

// Default values for configuration
const (
	DefaultConfigPath = "config.yaml"
	DefaultEnvPrefix  = "LINERELAY"

	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultServerAddr            = ":3000"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 2 * time.Minute
	DefaultServerShutdownTimeout = 30 * time.Second
	DefaultGinMode               = "release"

	DefaultLINETimeout = 30 * time.Second

	DefaultAIProvider    = "openai"
	DefaultAIModel       = "gpt-4o-mini"
	DefaultAITemperature = 0.7
	DefaultAIMaxTokens   = 150
	DefaultAITimeout     = time.Minute
	DefaultAIPlainText   = false

	DefaultBreakerMaxFailures = 5
	DefaultBreakerOpenTimeout = time.Minute

	DefaultUsageBaseURL = "https://api.openai.com/v1"
	DefaultUsageTimeout = 30 * time.Second

	ReportChannelLINE     = "line"
	ReportChannelTelegram = "telegram"
	DefaultReportChannel  = ReportChannelLINE
	DefaultReportLocation = "Local"

	UsageReportTask            = "usage_report"
	DefaultUsageReportSchedule = "0 0 9 * * *"
)

// DefaultAIInstruction is the bot persona sent as the system message.
const DefaultAIInstruction = `あなたはLINEグループのLINE Botです。以下の条件で回答してください：
- 日本語で回答する
- 200文字以内で簡潔に答える
- 必要に応じて「詳しくは○○で検索してみてください」と付け加える
- 高校生にも理解できるように説明する
- 専門用語は避けて分かりやすく説明
- ネットミームや流行語を使用する
- ユーモアを交えて、親しみやすい口調で答える
- ただし、LINEの利用規約に違反しない内容である`

// Default user-facing messages
const (
	DefaultMsgErrorFallback    = "申し訳ありません。エラーが発生しました。少し時間をおいてから再度お試しください。"
	DefaultMsgReportHeader     = "📊 OpenAI API 利用状況レポート"
	DefaultMsgReportDisclaimer = "※ 金額はモデル単価からの概算です。実際の請求額とは異なる場合があります。"
)

// envBindings maps config keys to the environment variable names used by
// existing deployments. All other keys use the LINERELAY_ prefix.
var envBindings = map[string]string{
	"line.channel_access_token": "LINE_CHANNEL_ACCESS_TOKEN",
	"line.channel_secret":       "LINE_CHANNEL_SECRET",
	"line.bot_name":             "LINE_BOT_NAME",
	"ai.api_key":                "OPENAI_API_KEY",
	"usage.admin_key":           "OPENAI_ADMIN_KEY",
	"report.recipient":          "LINE_PUSH_TO",
}

var defaults = map[string]any{
	"logger.level": DefaultLogLevel,
	"logger.json":  DefaultLogJSON,

	"server.addr":             DefaultServerAddr,
	"server.read_timeout":     DefaultServerReadTimeout,
	"server.write_timeout":    DefaultServerWriteTimeout,
	"server.shutdown_timeout": DefaultServerShutdownTimeout,
	"server.gin_mode":         DefaultGinMode,

	"line.channel_access_token": "",
	"line.channel_secret":       "",
	"line.bot_name":             "",
	"line.endpoint":             "",
	"line.timeout":              DefaultLINETimeout,

	"ai.provider":    DefaultAIProvider,
	"ai.api_key":     "",
	"ai.base_url":    "",
	"ai.model":       DefaultAIModel,
	"ai.temperature": DefaultAITemperature,
	"ai.max_tokens":  DefaultAIMaxTokens,
	"ai.instruction": DefaultAIInstruction,
	"ai.timeout":     DefaultAITimeout,
	"ai.plain_text":  DefaultAIPlainText,

	"ai.breaker.max_failures": DefaultBreakerMaxFailures,
	"ai.breaker.open_timeout": DefaultBreakerOpenTimeout,

	"usage.admin_key": "",
	"usage.base_url":  DefaultUsageBaseURL,
	"usage.timeout":   DefaultUsageTimeout,

	"report.channel":        DefaultReportChannel,
	"report.recipient":      "",
	"report.telegram_token": "",
	"report.location":       DefaultReportLocation,

	"scheduler.tasks." + UsageReportTask + ".enabled":  false,
	"scheduler.tasks." + UsageReportTask + ".schedule": DefaultUsageReportSchedule,

	"messages.error_fallback":    DefaultMsgErrorFallback,
	"messages.report_header":     DefaultMsgReportHeader,
	"messages.report_disclaimer": DefaultMsgReportDisclaimer,
}
