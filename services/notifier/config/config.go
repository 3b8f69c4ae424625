package config

import "github.com/spf13/viper"

// Config holds typed configuration for the notifier service.
type Config struct {
	LogLevel            string
	MetricsAddr         string
	KafkaBrokers        string
	KafkaGroupID        string
	RedisAddr           string
	PostgresDSN         string
	OTelEndpoint        string
	ReminderCron        string
	ReminderWindowHours float64

	// SMTP; empty host disables the email sink.
	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// WebhookURL; empty disables the webhook sink.
	WebhookURL string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:            v.GetString("log_level"),
		MetricsAddr:         v.GetString("metrics_addr"),
		KafkaBrokers:        v.GetString("kafka_brokers"),
		KafkaGroupID:        v.GetString("kafka_group_id"),
		RedisAddr:           v.GetString("redis_addr"),
		PostgresDSN:         v.GetString("postgres_dsn"),
		OTelEndpoint:        v.GetString("otel_endpoint"),
		ReminderCron:        v.GetString("reminder_cron"),
		ReminderWindowHours: v.GetFloat64("reminder_window_hours"),
		SMTPHost:            v.GetString("smtp_host"),
		SMTPPort:            v.GetInt("smtp_port"),
		SMTPFrom:            v.GetString("smtp_from"),
		SMTPUsername:        v.GetString("smtp_username"),
		SMTPPassword:        v.GetString("smtp_password"),
		WebhookURL:          v.GetString("webhook_url"),
	}
}
