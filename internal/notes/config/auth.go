package config

// AuthConfig включает проверку Bearer-токенов на маршрутах /notes.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled" env:"NOTES_AUTH_ENABLED" env-default:"false"`
	SecretKey string `yaml:"secret_key" env:"NOTES_AUTH_SECRET_KEY" env-default:""`
	Issuer    string `yaml:"issuer" env:"NOTES_AUTH_ISSUER" env-default:""`
}
