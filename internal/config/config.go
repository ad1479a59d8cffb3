package config

import (
	"log"
	"os"
)

type Config struct {
	Port        string
	DBDSN       string
	LogFile     string
	SiteURL     string
	JWTSecret   string
	SupaURL     string
	SupaAnonKey string
	SupaSvcKey  string
}

func Load() Config {
	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DBDSN:       getenv("DB_DSN", "greenhaus.db"), // sqlite file in project root
		LogFile:     getenv("LOG_FILE", "./greenhaus.log"),
		SiteURL:     getenv("SITE_URL", "http://localhost:8080"),
		JWTSecret:   getenv("JWT_SECRET", "dev-only-secret"),
		SupaURL:     os.Getenv("SUPABASE_URL"),
		SupaAnonKey: os.Getenv("SUPABASE_ANON_KEY"),
		SupaSvcKey:  os.Getenv("SUPABASE_SERVICE_KEY"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s SITE_URL=%s", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.SiteURL)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
