package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultBcryptCost         = 10
	defaultPasswordMinLength  = 6
	defaultPasswordMaxLength  = 72
	defaultResetTokenTTL      = time.Hour
	defaultFrontendURL        = "http://localhost:5173"
	defaultUsernameRetries    = 5
	defaultMongoCollection    = "users"
	defaultMongoTimeout       = 10 * time.Second
	defaultSMTPPort           = 587
	defaultSMTPTimeout        = 15 * time.Second

	envProduction = "production"
)

// Store drivers accepted by store.driver.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// OAuth ID token providers accepted by oauth.provider. An empty provider
// trusts the profile sent by the client.
const (
	OAuthProviderGoogle   = "google"
	OAuthProviderFirebase = "firebase"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
		CORS CORSConfig `json:"cors" yaml:"cors"`
	} `json:"http" yaml:"http"`

	Store StoreConfig `json:"store" yaml:"store"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Mongo *MongoConfig `json:"mongo" yaml:"mongo"`

	Redis *RedisConfig `json:"redis" yaml:"redis"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	PasswordStrength *PasswordStrengthConfig `json:"passwordStrength" yaml:"passwordStrength"`

	PasswordReset *PasswordResetConfig `json:"passwordReset" yaml:"passwordReset"`

	OAuth *OAuthConfig `json:"oauth" yaml:"oauth"`

	SMTP *SMTPConfig `json:"smtp" yaml:"smtp"`

	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	// PubSub configuration for auth event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// CORSConfig lists the browser origins allowed to send credentialed requests.
type CORSConfig struct {
	AllowOrigins     []string `json:"allowOrigins" yaml:"allowOrigins"`
	AllowCredentials bool     `json:"allowCredentials" yaml:"allowCredentials"`
}

// StoreConfig selects the user record store.
type StoreConfig struct {
	Driver      string `json:"driver" yaml:"driver"`
	AutoMigrate bool   `json:"autoMigrate" yaml:"autoMigrate"`
}

type MongoConfig struct {
	URI            string        `json:"uri" yaml:"uri"`
	Database       string        `json:"database" yaml:"database"`
	Collection     string        `json:"collection" yaml:"collection"`
	ConnectTimeout time.Duration `json:"connectTimeout" yaml:"connectTimeout"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`
}

// PasswordStrengthConfig defines password strength requirements
type PasswordStrengthConfig struct {
	MinLength int `json:"minLength" yaml:"minLength"`
	MaxLength int `json:"maxLength" yaml:"maxLength"`
}

// PasswordResetConfig controls reset token lifetime and the link sent by email.
type PasswordResetConfig struct {
	TokenTTL    time.Duration `json:"tokenTTL" yaml:"tokenTTL"`
	FrontendURL string        `json:"frontendURL" yaml:"frontendURL"`
}

// OAuthConfig selects how ID tokens posted to /auth/google are verified.
type OAuthConfig struct {
	Provider        string `json:"provider" yaml:"provider"`
	ClientID        string `json:"clientId" yaml:"clientId"`
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
	UsernameRetries int    `json:"usernameRetries" yaml:"usernameRetries"`
}

type SMTPConfig struct {
	Host      string        `json:"host" yaml:"host"`
	Port      int           `json:"port" yaml:"port"`
	Username  string        `json:"username" yaml:"username"`
	Password  string        `json:"password" yaml:"password"`
	From      string        `json:"from" yaml:"from"`
	TLSPolicy string        `json:"tlsPolicy" yaml:"tlsPolicy"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

// RateLimitConfig bounds credential-guessing endpoints per client IP.
type RateLimitConfig struct {
	Enabled       bool        `json:"enabled" yaml:"enabled"`
	SignIn        LimitWindow `json:"signIn" yaml:"signIn"`
	PasswordReset LimitWindow `json:"passwordReset" yaml:"passwordReset"`
}

type LimitWindow struct {
	Limit  int           `json:"limit" yaml:"limit"`
	Window time.Duration `json:"window" yaml:"window"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

// IsProduction reports whether cookies must carry the Secure attribute.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env.Env, envProduction)
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// SMTP_FROM -> smtp.from, SECRETKEY_ACCESS -> secretKey.access
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env failed")
	}

	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if strings.TrimSpace(cfg.SecretKey.Access) == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	if cfg.Postgres != nil {
		// POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, ...
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreDriverPostgres
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = defaultBcryptCost
	}

	if cfg.PasswordStrength == nil {
		cfg.PasswordStrength = &PasswordStrengthConfig{}
	}
	if cfg.PasswordStrength.MinLength == 0 {
		cfg.PasswordStrength.MinLength = defaultPasswordMinLength
	}
	if cfg.PasswordStrength.MaxLength == 0 {
		cfg.PasswordStrength.MaxLength = defaultPasswordMaxLength
	}

	if cfg.PasswordReset == nil {
		cfg.PasswordReset = &PasswordResetConfig{}
	}
	if cfg.PasswordReset.TokenTTL == 0 {
		cfg.PasswordReset.TokenTTL = defaultResetTokenTTL
	}
	if cfg.PasswordReset.FrontendURL == "" {
		cfg.PasswordReset.FrontendURL = defaultFrontendURL
	}

	if cfg.OAuth == nil {
		cfg.OAuth = &OAuthConfig{}
	}
	if cfg.OAuth.UsernameRetries == 0 {
		cfg.OAuth.UsernameRetries = defaultUsernameRetries
	}

	if cfg.Mongo != nil {
		if cfg.Mongo.Collection == "" {
			cfg.Mongo.Collection = defaultMongoCollection
		}
		if cfg.Mongo.ConnectTimeout == 0 {
			cfg.Mongo.ConnectTimeout = defaultMongoTimeout
		}
	}

	if cfg.SMTP != nil {
		if cfg.SMTP.Port == 0 {
			cfg.SMTP.Port = defaultSMTPPort
		}
		if cfg.SMTP.Timeout == 0 {
			cfg.SMTP.Timeout = defaultSMTPTimeout
		}
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
