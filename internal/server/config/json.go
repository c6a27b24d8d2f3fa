package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	StorageBackend               string         `json:"storage_backend"`
	DatabaseDSN                  string         `json:"database_dsn"`
	RedisURL                     string         `json:"redis_url"`
	RedisPrefix                  string         `json:"redis_prefix"`
	AccessTokenSecret            string         `json:"access_token_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenSecret           string         `json:"refresh_token_secret"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RefreshRecordLifetime        timex.Duration `json:"refresh_record_lifetime"`
	ResetTokenLifetime           timex.Duration `json:"reset_token_lifetime"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	AppURL                       string         `json:"app_url"`
	PostmarkServerToken          string         `json:"postmark_server_token"`
	PostmarkAccountToken         string         `json:"postmark_account_token"`
	SenderEmail                  string         `json:"sender_email"`
	SupportEmail                 string         `json:"support_email"`
	DevMailDir                   string         `json:"dev_mail_dir"`
	SMTPHost                     string         `json:"smtp_host"`
	SMTPPort                     int            `json:"smtp_port"`
	SMTPUser                     string         `json:"smtp_user"`
	SMTPPassword                 string         `json:"smtp_password"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field present in it into config. Missing or zero fields keep their current
// value. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.RedisPrefix, c.RedisPrefix)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setString(&config.AppURL, c.AppURL)
	setString(&config.PostmarkServerToken, c.PostmarkServerToken)
	setString(&config.PostmarkAccountToken, c.PostmarkAccountToken)
	setString(&config.SenderEmail, c.SenderEmail)
	setString(&config.SupportEmail, c.SupportEmail)
	setString(&config.DevMailDir, c.DevMailDir)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RefreshRecordLifetime.Duration != 0 {
		config.RefreshRecordLifetime = c.RefreshRecordLifetime.Duration
	}
	if c.ResetTokenLifetime.Duration != 0 {
		config.ResetTokenLifetime = c.ResetTokenLifetime.Duration
	}
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
