package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the broadcast service's runtime configuration, sourced from
// the environment with a .env file as a local-development convenience.
type Config struct {
	Port string

	FFmpegPath   string
	AudioBitrate string // encoder output bitrate, e.g. "128k"

	// YouTube fetcher
	YoutubeCookie          string
	YoutubeCookieFile      string
	YoutubeUserAgent       string
	DisableExternalFetcher bool
	ExternalFetcherFirst   bool
	ExternalFetcherFormat  string
	ExternalFetcherPath    string

	// SoundCloud fetcher
	SoundcloudClientID string

	// Identity / access policy
	JWTSecret        string
	AccessPolicyFile string
	SessionSecret    string
	ClientOrigin     string

	// MySQL
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Logging
	LogLevel      string
	LogOutputPath string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvBool gets an environment variable as a bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvInt gets an environment variable as an int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
		AudioBitrate: getEnv("AUDIO_BITRATE", "128k"),

		YoutubeCookie:          os.Getenv("YOUTUBE_COOKIE"),
		YoutubeCookieFile:      os.Getenv("YOUTUBE_COOKIE_FILE"),
		YoutubeUserAgent:       getEnv("YOUTUBE_USER_AGENT", "Mozilla/5.0"),
		DisableExternalFetcher: getEnvBool("DISABLE_EXTERNAL_FETCHER", false),
		ExternalFetcherFirst:   getEnvBool("EXTERNAL_FETCHER_FIRST", false),
		ExternalFetcherFormat:  getEnv("EXTERNAL_FETCHER_FORMAT", "bestaudio[ext=m4a]/bestaudio"),
		ExternalFetcherPath:    getEnv("EXTERNAL_FETCHER_PATH", "yt-dlp"),

		SoundcloudClientID: os.Getenv("SOUNDCLOUD_CLIENT_ID"),

		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		AccessPolicyFile: getEnv("ACCESS_POLICY_FILE", "config/access_policy.json"),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me-in-production"),
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "*"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "oneradio"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "oneradio"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogOutputPath: getEnv("LOG_OUTPUT_PATH", ""),
	}
}
