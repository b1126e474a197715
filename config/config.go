package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию движка
type Config struct {
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Log struct {
		Dir string // пустая строка — логи пишутся в stderr
	}
	Ledger struct {
		NumberAttempts int           // число попыток генерации номера счета
		NumberBackoff  time.Duration // начальная пауза между попытками
	}
}

// NewConfig загружает конфигурацию из переменных окружения
// со значениями по умолчанию
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Настройки базы данных
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bank_db")

	// Настройки SMTP
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")

	// Настройки логирования
	v.SetDefault("LOG_DIR", "")

	// Настройки генерации номеров счетов
	v.SetDefault("LEDGER_NUMBER_ATTEMPTS", 10)
	v.SetDefault("LEDGER_NUMBER_BACKOFF", "10ms")

	cfg := &Config{}
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetInt("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")

	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")

	cfg.Log.Dir = v.GetString("LOG_DIR")

	cfg.Ledger.NumberAttempts = v.GetInt("LEDGER_NUMBER_ATTEMPTS")
	cfg.Ledger.NumberBackoff = v.GetDuration("LEDGER_NUMBER_BACKOFF")

	return cfg, nil
}
