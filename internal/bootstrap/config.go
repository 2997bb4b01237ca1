package bootstrap

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string

	SampleRate     int
	FrameMs        int
	Channels       int
	RecordSeconds  int
	PollIntervalMs int
	OverlapSeconds int

	VADAggressiveness int

	WhisperAddr      string
	WhisperTimeoutMs int
	Language         string
	ReducedPrecision bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8000"),

		SampleRate:     getEnvInt("SAMPLE_RATE", 16000),
		FrameMs:        getEnvInt("FRAME_MS", 30),
		Channels:       getEnvInt("CHANNELS", 1),
		RecordSeconds:  getEnvInt("RECORD_SECONDS", 3),
		PollIntervalMs: getEnvInt("POLL_INTERVAL_MS", 100),
		OverlapSeconds: getEnvInt("OVERLAP_SECONDS", 1),

		VADAggressiveness: getEnvInt("VAD_AGGRESSIVENESS", 3),

		WhisperAddr:      getEnv("WHISPER_ADDR", "http://localhost:9000/transcribe"),
		WhisperTimeoutMs: getEnvInt("WHISPER_TIMEOUT_MS", 30000),
		Language:         getEnv("LANGUAGE", "en"),
		ReducedPrecision: getEnv("REDUCED_PRECISION", "false") == "true",

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) OverlapWindow() time.Duration {
	return time.Duration(c.OverlapSeconds) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
