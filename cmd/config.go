package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	TokenSecret          string        `env:"TOKEN_SECRET,required=true"`
	RoomBufferSize       int           `env:"ROOM_BUFFER_SIZE,default=64"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	AppendTimeout        time.Duration `env:"APPEND_TIMEOUT,default=2s"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=1s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
	AllowedOrigins       []string      `env:"ALLOWED_ORIGINS"`
}
