package config

import (
	"log"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Persistence.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Authentication.
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`
	AdminToken  string `mapstructure:"ADMIN_TOKEN"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB    int    `mapstructure:"REDIS_AUTH_DB"`
	RedisBookingDB int    `mapstructure:"REDIS_BOOKING_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Marketplace rules.
	Currency                 string  `mapstructure:"CURRENCY"`
	BookingHorizonDays       int     `mapstructure:"BOOKING_HORIZON_DAYS"`
	BookingSessionTTLMinutes int     `mapstructure:"BOOKING_SESSION_TTL_MINUTES"`
	PlatformFeeRate          float64 `mapstructure:"PLATFORM_FEE_RATE"`
	Timezone                 string  `mapstructure:"TIMEZONE"`

	// Integrations.
	StripeKey               string `mapstructure:"STRIPE_KEY"`
	CloudinaryCloudName     string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey        string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret     string `mapstructure:"CLOUDINARY_API_SECRET"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
}

var AppConfig Config

func init() {
	AppConfig = Defaults()
}

// Defaults returns the configuration used when nothing overrides a key.
func Defaults() Config {
	return Config{
		AppPort:                  "8080",
		Env:                      "development",
		LogLevel:                 "info",
		MaxRequestsPerMin:        100,
		DatabaseURL:              "mongodb://localhost:27017",
		DatabaseName:             "tecnicosrd",
		JWTTTLHours:              72,
		RedisAddr:                "localhost:6379",
		RedisCacheDB:             0,
		RedisAuthDB:              1,
		RedisBookingDB:           2,
		RedisQueueDB:             3,
		Currency:                 "DOP",
		BookingHorizonDays:       14,
		BookingSessionTTLMinutes: 30,
		PlatformFeeRate:          0.10,
		Timezone:                 "America/Santo_Domingo",
	}
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	d := Defaults()
	viper.SetDefault("APP_PORT", d.AppPort)
	viper.SetDefault("ENV", d.Env)
	viper.SetDefault("LOG_LEVEL", d.LogLevel)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", d.MaxRequestsPerMin)
	viper.SetDefault("DATABASE_URL", d.DatabaseURL)
	viper.SetDefault("DATABASE_NAME", d.DatabaseName)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_TTL_HOURS", d.JWTTTLHours)
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("REDIS_ADDR", d.RedisAddr)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", d.RedisCacheDB)
	viper.SetDefault("REDIS_AUTH_DB", d.RedisAuthDB)
	viper.SetDefault("REDIS_BOOKING_DB", d.RedisBookingDB)
	viper.SetDefault("REDIS_QUEUE_DB", d.RedisQueueDB)
	viper.SetDefault("CURRENCY", d.Currency)
	viper.SetDefault("BOOKING_HORIZON_DAYS", d.BookingHorizonDays)
	viper.SetDefault("BOOKING_SESSION_TTL_MINUTES", d.BookingSessionTTLMinutes)
	viper.SetDefault("PLATFORM_FEE_RATE", d.PlatformFeeRate)
	viper.SetDefault("TIMEZONE", d.Timezone)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location returns the marketplace time zone, falling back to UTC-4 for an unknown name.
// The fallback is named by its offset so Mongo date operators accept it.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		log.Printf("config: unknown timezone %q, using -04:00: %v", AppConfig.Timezone, err)
		return time.FixedZone("-04:00", -4*60*60)
	}
	return loc
}

// JWTTTL is the lifetime of issued access tokens.
func JWTTTL() time.Duration {
	if AppConfig.JWTTTLHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(AppConfig.JWTTTLHours) * time.Hour
}
