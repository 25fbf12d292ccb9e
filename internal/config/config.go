package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Drafts   DraftConfig    `yaml:"drafts"`
	Auth     AuthConfig     `yaml:"auth"`
	Telegram TelegramConfig `yaml:"telegram"`
	CORS     CORSConfig     `yaml:"cors"`
	Payment  PaymentConfig  `yaml:"payment"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Capacity CapacityConfig `yaml:"capacity"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File, when set, also writes JSON logs to a rotated file.
	File string `yaml:"file"`
}

type APIConfig struct {
	BaseURL          string        `yaml:"baseUrl"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetryAttempts int           `yaml:"maxRetryAttempts"`
	CatalogCacheTTL  time.Duration `yaml:"catalogCacheTtl"`
}

type DraftConfig struct {
	Driver     string        `yaml:"driver"`
	SQLitePath string        `yaml:"sqlitePath"`
	TTL        time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type PaymentConfig struct {
	BankName        string `yaml:"bankName"`
	AccountNumber   string `yaml:"accountNumber"`
	BeneficiaryName string `yaml:"beneficiaryName"`
	BankQRCodeRef   string `yaml:"bankQrCodeRef"`
	ReferencePrefix string `yaml:"referencePrefix"`
	VNPayQRCodeRef  string `yaml:"vnpayQrCodeRef"`
	MoMoQRCodeRef   string `yaml:"momoQrCodeRef"`
}

type PricingConfig struct {
	TaxRatePercent    float64 `yaml:"taxRatePercent"`
	ChildPricePercent float64 `yaml:"childPricePercent"`
}

type FlowCapacity struct {
	MaxOccupants int    `yaml:"maxOccupants"`
	Policy       string `yaml:"policy"`
}

type CapacityConfig struct {
	Flight FlowCapacity `yaml:"flight"`
	Hotel  FlowCapacity `yaml:"hotel"`
	Tour   FlowCapacity `yaml:"tour"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "waypoint")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "waypoint")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("API_BASE_URL", "http://localhost:3000/api")
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("API_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("DRAFT_DRIVER", "memory")
	v.SetDefault("SQLITE_PATH", "waypoint-drafts.db")
	v.SetDefault("DRAFT_TTL", "24h")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_ID", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	v.SetDefault("PAYMENT_BANK_NAME", "Vietcombank")
	v.SetDefault("PAYMENT_BANK_ACCOUNT_NUMBER", "0071001234567")
	v.SetDefault("PAYMENT_BANK_BENEFICIARY", "WAYPOINT TRAVEL JSC")
	v.SetDefault("PAYMENT_BANK_QR_REF", "/static/payments/bank-transfer-qr.png")
	v.SetDefault("PAYMENT_REFERENCE_PREFIX", "WAYPOINT")
	v.SetDefault("PAYMENT_VNPAY_QR_REF", "/static/payments/vnpay-test-qr.png")
	v.SetDefault("PAYMENT_MOMO_QR_REF", "/static/payments/momo-test-qr.png")

	v.SetDefault("TAX_RATE", 5)
	v.SetDefault("CHILD_PRICE_PERCENT", 75)

	v.SetDefault("MAX_OCCUPANTS_FLIGHT", 10)
	v.SetDefault("MAX_OCCUPANTS_HOTEL", 20)
	v.SetDefault("MAX_OCCUPANTS_TOUR", 20)
	v.SetDefault("CAPACITY_POLICY_FLIGHT", "blocking")
	v.SetDefault("CAPACITY_POLICY_HOTEL", "advisory")
	v.SetDefault("CAPACITY_POLICY_TOUR", "blocking")
}

// Load reads configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return build(v)
}

// Defaults is the configuration with no environment applied.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := build(v)
	return cfg
}

func build(v *viper.Viper) (*Config, error) {
	durations := map[string]time.Duration{}
	for _, key := range []string{"DB_CONN_MAX_LIFETIME", "API_TIMEOUT", "CATALOG_CACHE_TTL", "DRAFT_TTL"} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
		API: APIConfig{
			BaseURL:          v.GetString("API_BASE_URL"),
			Timeout:          durations["API_TIMEOUT"],
			MaxRetryAttempts: v.GetInt("API_MAX_RETRY_ATTEMPTS"),
			CatalogCacheTTL:  durations["CATALOG_CACHE_TTL"],
		},
		Drafts: DraftConfig{
			Driver:     strings.ToLower(v.GetString("DRAFT_DRIVER")),
			SQLitePath: v.GetString("SQLITE_PATH"),
			TTL:        durations["DRAFT_TTL"],
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
		},
		Telegram: TelegramConfig{
			BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
			ChatID:   v.GetString("TELEGRAM_CHAT_ID"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Payment: PaymentConfig{
			BankName:        v.GetString("PAYMENT_BANK_NAME"),
			AccountNumber:   v.GetString("PAYMENT_BANK_ACCOUNT_NUMBER"),
			BeneficiaryName: v.GetString("PAYMENT_BANK_BENEFICIARY"),
			BankQRCodeRef:   v.GetString("PAYMENT_BANK_QR_REF"),
			ReferencePrefix: v.GetString("PAYMENT_REFERENCE_PREFIX"),
			VNPayQRCodeRef:  v.GetString("PAYMENT_VNPAY_QR_REF"),
			MoMoQRCodeRef:   v.GetString("PAYMENT_MOMO_QR_REF"),
		},
		Pricing: PricingConfig{
			TaxRatePercent:    v.GetFloat64("TAX_RATE"),
			ChildPricePercent: v.GetFloat64("CHILD_PRICE_PERCENT"),
		},
		Capacity: CapacityConfig{
			Flight: FlowCapacity{MaxOccupants: v.GetInt("MAX_OCCUPANTS_FLIGHT"), Policy: v.GetString("CAPACITY_POLICY_FLIGHT")},
			Hotel:  FlowCapacity{MaxOccupants: v.GetInt("MAX_OCCUPANTS_HOTEL"), Policy: v.GetString("CAPACITY_POLICY_HOTEL")},
			Tour:   FlowCapacity{MaxOccupants: v.GetInt("MAX_OCCUPANTS_TOUR"), Policy: v.GetString("CAPACITY_POLICY_TOUR")},
		},
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
