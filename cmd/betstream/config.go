package main

import "time"

type Config struct {
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	BufferSize      int           `env:"BUFFER_SIZE,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	HealthInterval  time.Duration `env:"HEALTH_INTERVAL,required=true"`
	TypingExpiry    time.Duration `env:"TYPING_EXPIRY"`
	Channel         string        `env:"CHANNEL,default=general"`
	UserID          string        `env:"USER_ID,required=true"`
	// REDIS_ADDR switches the transport from the in-memory hub to Redis
	RedisAddr string `env:"REDIS_ADDR"`
}
