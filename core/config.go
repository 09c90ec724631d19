package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server    ServerConfig
		Database  DatabaseConfig
		Payroll   PayrollConfig
		School    SchoolConfig
		Inventory InventoryConfig
		Storage   StorageConfig
	}

	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres (lib/pq) or pgx
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// PayrollConfig holds the statutory rates as fractions of the taxable gross.
	PayrollConfig struct {
		NSSFRate decimal.Decimal
		WCFRate  decimal.Decimal
	}

	SchoolConfig struct {
		GraduationClass string
		Currency        string
	}

	// InventoryConfig holds the low-stock policy.
	InventoryConfig struct {
		RawLowFloor     decimal.Decimal
		RawLowRatio     decimal.Decimal
		KitchenLowFloor decimal.Decimal
	}

	StorageConfig struct {
		UploadDir string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// DriverName returns the database/sql driver registered for Engine.
func (dbc DatabaseConfig) DriverName() string {
	if dbc.Engine == "pgx" {
		return "pgx"
	}
	return "postgres"
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and
// the environment (prefixed with the env name, e.g. PROD_DATABASE_HOST).
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("appName", "Montessori")
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "5dc2#b%3u0r!xq^w8kz@9e-fj)n1_t4h&m7p(yv*la6sg+c")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 12*time.Hour)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "montessori")
	conf.SetDefault("database.user", "montessori")
	conf.SetDefault("database.password", "montessori")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("payroll.nssfRate", "0.10")
	conf.SetDefault("payroll.wcfRate", "0.00")

	conf.SetDefault("school.graduationClass", "Standard 7")
	conf.SetDefault("school.currency", "TZS")

	conf.SetDefault("inventory.rawLowFloor", "50")
	conf.SetDefault("inventory.rawLowRatio", "0.10")
	conf.SetDefault("inventory.kitchenLowFloor", "10")

	conf.SetDefault("storage.uploadDir", "uploads")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:      conf.GetString("appName"),
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:               conf.GetString("server.host"),
			DebugHost:          conf.GetString("server.debugHost"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetInt("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Payroll: PayrollConfig{
			NSSFRate: mustDecimal(conf, "payroll.nssfRate"),
			WCFRate:  mustDecimal(conf, "payroll.wcfRate"),
		},
		School: SchoolConfig{
			GraduationClass: conf.GetString("school.graduationClass"),
			Currency:        conf.GetString("school.currency"),
		},
		Inventory: InventoryConfig{
			RawLowFloor:     mustDecimal(conf, "inventory.rawLowFloor"),
			RawLowRatio:     mustDecimal(conf, "inventory.rawLowRatio"),
			KitchenLowFloor: mustDecimal(conf, "inventory.kitchenLowFloor"),
		},
		Storage: StorageConfig{
			UploadDir: conf.GetString("storage.uploadDir"),
		},
	}
}

func mustDecimal(conf *viper.Viper, key string) decimal.Decimal {
	d, err := decimal.NewFromString(conf.GetString(key))
	if err != nil {
		log.Fatalf("config.%s: %v", key, err)
	}
	return d
}
