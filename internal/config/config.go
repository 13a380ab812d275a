package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange struct {
		RESTEndpoint string  `yaml:"rest_endpoint"`
		WSEndpoint   string  `yaml:"ws_endpoint"`
		MinOrderKRW  float64 `yaml:"min_order_krw"`
	} `yaml:"exchange"`
	Watch struct {
		File          string `yaml:"file"`
		IntervalSec   int    `yaml:"interval_sec"`
		CandleWindow  int    `yaml:"candle_window"`
		HourlyStatus  bool   `yaml:"hourly_status"`
		UseTickStream bool   `yaml:"use_tick_stream"`
	} `yaml:"watch"`
	Notify struct {
		// Channel selects the notifier: "slack", "telegram" or "log".
		Channel string `yaml:"channel"`
	} `yaml:"notify"`
	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Secrets holds credentials taken from the environment, never from the
// config file.
type Secrets struct {
	UpbitAccessKey  string
	UpbitSecretKey  string
	SlackWebhookURL string
	TelegramToken   string
	TelegramChatID  string
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Exchange.RESTEndpoint == "" {
		c.Exchange.RESTEndpoint = "https://api.upbit.com/v1"
	}
	if c.Exchange.WSEndpoint == "" {
		c.Exchange.WSEndpoint = "wss://api.upbit.com/websocket/v1"
	}
	if c.Exchange.MinOrderKRW == 0 {
		c.Exchange.MinOrderKRW = 5000
	}
	if c.Watch.File == "" {
		c.Watch.File = "watchlist.xlsx"
	}
	if c.Watch.IntervalSec == 0 {
		c.Watch.IntervalSec = 60
	}
	if c.Watch.CandleWindow == 0 {
		c.Watch.CandleWindow = 3
	}
	if c.Notify.Channel == "" {
		c.Notify.Channel = "log"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "fired.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Watch.IntervalSec) * time.Second
}

// SecretsFromEnv reads credentials from the environment. Only the exchange
// keys are mandatory; notifier credentials are validated against the chosen
// channel.
func SecretsFromEnv(channel string) (*Secrets, error) {
	s := &Secrets{
		UpbitAccessKey:  os.Getenv("UPBIT_ACCESS_KEY"),
		UpbitSecretKey:  os.Getenv("UPBIT_SECRET_KEY"),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:  os.Getenv("TELEGRAM_CHAT_ID"),
	}
	if s.UpbitAccessKey == "" || s.UpbitSecretKey == "" {
		return nil, fmt.Errorf("UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY must be set")
	}
	switch channel {
	case "slack":
		if s.SlackWebhookURL == "" {
			return nil, fmt.Errorf("SLACK_WEBHOOK_URL must be set for the slack channel")
		}
	case "telegram":
		if s.TelegramToken == "" || s.TelegramChatID == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set for the telegram channel")
		}
	}
	return s, nil
}
