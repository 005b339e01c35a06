package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはサーバー全体の設定
type Config struct {
	Port string `mapstructure:"PORT"` // サーバーポート（8080）

	DatabaseURL      string `mapstructure:"DATABASE_URL"` // あれば最優先
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     int    `mapstructure:"POSTGRES_PORT"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	JWTSecret string `mapstructure:"JWT_SECRET"` // JWT署名シークレット

	GoEnv   string `mapstructure:"GO_ENV"`   // dev/prod
	LogFile string `mapstructure:"LOG_FILE"` // 空ならstdoutだけ
	FEURL   string `mapstructure:"FE_URL"`   // フロントURL（CORS）

	// 空ならイベントは送らない
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"` // カンマ区切り
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`
}

// ClientConfig はCLI（cakecart）の設定
type ClientConfig struct {
	APIURL string `mapstructure:"CAKECART_API_URL"`
	Home   string `mapstructure:"CAKECART_HOME"` // bboltファイルの置き場所
	GoEnv  string `mapstructure:"GO_ENV"`

	// カートの保存先: bolt / file / redis / postgres / memory
	Slot        string `mapstructure:"CAKECART_SLOT"`
	RedisAddr   string `mapstructure:"CAKECART_REDIS_ADDR"`
	Session     string `mapstructure:"CAKECART_SESSION"` // redis/postgresのキー接頭辞
	DatabaseURL string `mapstructure:"CAKECART_DATABASE_URL"`
}

var slotKinds = map[string]bool{"bolt": true, "file": true, "redis": true, "postgres": true, "memory": true}

// DSN はgorm/postgres用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// KafkaBrokerList はKAFKA_BROKERSを分割する
func (c Config) KafkaBrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Loadは.env（あれば）と環境変数から読む
func Load(envFiles ...string) (Config, error) {
	loadDotenv(envFiles)

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_DB", "cakedelight")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("KAFKA_ORDER_TOPIC", "orders")
	bindEnv(v, Config{})

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" && cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.GoEnv != "dev" && cfg.GoEnv != "prod" && cfg.GoEnv != "test" {
		return Config{}, fmt.Errorf("GO_ENV must be dev, prod or test")
	}

	cfg.Port = strings.TrimPrefix(cfg.Port, ":")
	return cfg, nil
}

// LoadClientはCLI用の設定を読む
func LoadClient(envFiles ...string) (ClientConfig, error) {
	loadDotenv(envFiles)

	v := viper.New()
	v.SetDefault("CAKECART_API_URL", "http://localhost:8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("CAKECART_SLOT", "bolt")
	v.SetDefault("CAKECART_REDIS_ADDR", "localhost:6379")
	v.SetDefault("CAKECART_SESSION", "default")
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("CAKECART_HOME", filepath.Join(home, ".cakecart"))
	}
	bindEnv(v, ClientConfig{})

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config unmarshal: %w", err)
	}
	if cfg.Home == "" {
		return ClientConfig{}, fmt.Errorf("CAKECART_HOME is required")
	}
	cfg.Slot = strings.ToLower(strings.TrimSpace(cfg.Slot))
	if !slotKinds[cfg.Slot] {
		return ClientConfig{}, fmt.Errorf("CAKECART_SLOT must be one of bolt, file, redis, postgres, memory")
	}
	if cfg.Slot == "postgres" && cfg.DatabaseURL == "" {
		return ClientConfig{}, fmt.Errorf("CAKECART_DATABASE_URL is required")
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, nil
}

// 無い.envは無視する（本番は環境変数だけ）
func loadDotenv(files []string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// AutomaticEnvだけではUnmarshalにキーが載らないので明示的にBindする
func bindEnv(v *viper.Viper, target interface{}) {
	v.AutomaticEnv()
	for _, key := range envKeys(target) {
		_ = v.BindEnv(key)
	}
}
