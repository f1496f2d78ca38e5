package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application settings, populated from the environment.
type Config struct {
	Port                    string `envconfig:"PORT" default:"8080"`
	Env                     string `envconfig:"ENV" default:"development"`
	NodeID                  string `envconfig:"NODE_ID"`
	JWTSecret               string `envconfig:"JWT_SECRET" default:"supersecretjwtkey"`
	FirebaseCredentialsPath string `envconfig:"FIREBASE_CREDENTIALS_PATH" default:"./firebase_credentials.json"`
	PostgresConnStr         string `envconfig:"POSTGRES_CONN_STR"`
	MongoURI                string `envconfig:"MONGO_URI"`
	MongoDatabase           string `envconfig:"MONGO_DATABASE" default:"proconnect"`
}

// Load reads .env (when present) and resolves the Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
