package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	MongoURI      string
	DBName        string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string

	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string

	StoryPath  string
	StoryS3Key string

	PreviewLimit       int
	CheckpointInterval time.Duration
	ReaderIdle         time.Duration
	CORSOrigins        []string
}

func Load() (*Config, error) {
	_ = os.Setenv("AWS_REGION", getEnv("AWS_REGION", "us-east-1"))
	return &Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:             getEnv("MONGODB_DB", "stories"),
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		S3Bucket:           getEnv("AWS_S3_BUCKET", ""),
		S3Region:           getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:        getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StoryPath:          getEnv("STORY_PATH", ""),
		StoryS3Key:         getEnv("STORY_S3_KEY", ""),
		PreviewLimit:       getInt("PREVIEW_LIMIT", 2),
		CheckpointInterval: time.Duration(getInt("CHECKPOINT_INTERVAL_SECONDS", 30)) * time.Second,
		ReaderIdle:         time.Duration(getInt("READER_IDLE_MINUTES", 30)) * time.Minute,
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "")),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt falls back on unset, malformed or negative values.
func getInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("env %s=%q is not a non-negative integer; using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RequiredEnvVars are checked at startup; app exits if any are unset.
var RequiredEnvVars = []string{
	"MONGODB_URI",
	"MONGODB_DB",
	"JWT_SECRET",
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"ADMIN_EMAIL",
	"ADMIN_PASSWORD",
	"AWS_S3_BUCKET",
	"AWS_REGION",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"STORY_PATH",
	"STORY_S3_KEY",
	"PREVIEW_LIMIT",
	"CHECKPOINT_INTERVAL_SECONDS",
	"READER_IDLE_MINUTES",
	"CORS_ORIGINS",
}

var secretEnvVars = map[string]bool{
	"JWT_SECRET":            true,
	"ADMIN_PASSWORD":        true,
	"AWS_ACCESS_KEY_ID":     true,
	"AWS_SECRET_ACCESS_KEY": true,
}

// ValidateEnv returns the required variables that are unset and logs the
// status of the optional ones without printing secrets.
func ValidateEnv() []string {
	var missing []string
	for _, key := range RequiredEnvVars {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		} else {
			log.Printf("env %s loaded", key)
		}
	}
	for _, key := range OptionalEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		switch {
		case v == "":
			log.Printf("env %s not set (optional)", key)
		case secretEnvVars[key]:
			log.Printf("env %s loaded", key)
		default:
			log.Printf("env %s = %s", key, v)
		}
	}
	if os.Getenv("JWT_SECRET") == "change-me-in-production" {
		missing = append(missing, "JWT_SECRET (still the default)")
	}
	return missing
}
