package model

import "time"

// ----------------------------------------------------
// ================ Config ================

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format     string `envconfig:"FORMAT" default:"json" validate:"oneof=json console"`
	Output     string `envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout stderr file"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/bot.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
}

// BotConfig holds the chat transport settings
type BotConfig struct {
	Token       string `envconfig:"TOKEN" required:"true" validate:"required"`
	OwnerID     int64  `envconfig:"OWNER_ID" required:"true" validate:"required"`
	AuditChatID int64  `envconfig:"AUDIT_CHAT_ID"`
	Workers     int    `envconfig:"WORKERS" default:"8" validate:"min=1,max=256"`
	PollTimeout int    `envconfig:"POLL_TIMEOUT" default:"60" validate:"min=1"`
}

// SessionConfig selects where conversation sessions live
type SessionConfig struct {
	Backend  string        `envconfig:"BACKEND" default:"memory" validate:"oneof=memory redis"`
	TTL      time.Duration `envconfig:"TTL" default:"30m" validate:"gt=0"`
	RedisURL string        `envconfig:"REDIS_URL" validate:"required_if=Backend redis"`
}

// HTTPConfig is shared by every backend client
type HTTPConfig struct {
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s" validate:"gt=0"`
}

// PenpencilConfig configures the token-only batch/subject backend (/pw)
type PenpencilConfig struct {
	BaseURL  string `envconfig:"BASE_URL" default:"https://api.penpencil.xyz" validate:"required,url"`
	ClientID string `envconfig:"CLIENT_ID" default:"5eb393ee95fab7468a79d189" validate:"required"`
	MaxPages int    `envconfig:"MAX_PAGES" default:"200" validate:"min=1"`
}

// ExampurConfig configures the login/course/lesson backend (/kgs)
type ExampurConfig struct {
	BaseURL  string `envconfig:"BASE_URL" default:"https://auth.exampurcache.xyz" validate:"required,url"`
	MaxPages int    `envconfig:"MAX_PAGES" default:"50" validate:"min=1"`
}

// ServerConfig is the health/metrics HTTP endpoint
type ServerConfig struct {
	Port int `envconfig:"PORT" default:"5000" validate:"min=1,max=65535"`
}

// ArtifactConfig controls where transient text files are written
type ArtifactConfig struct {
	Dir string `envconfig:"DIR"`
}
