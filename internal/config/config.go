/**
 * @description
 * This package handles configuration management for the billing service. It
 * uses the Viper library to read configuration from environment variables,
 * providing defaults for the broker topology and the bill run schedule.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the billing service.
// These values are loaded from environment variables.
type Config struct {
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	RabbitMQURL       string `mapstructure:"RABBITMQ_URL"`
	BillingEventsExch string `mapstructure:"BILLING_EVENTS_EXCHANGE"`
	BillRunSchedule   string `mapstructure:"BILL_RUN_SCHEDULE"`
	BillRunAmount     string `mapstructure:"BILL_RUN_AMOUNT"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("BILLING_EVENTS_EXCHANGE", "billing_events")
	viper.SetDefault("BILL_RUN_SCHEDULE", "0 2 * * *") // daily at 02:00
	viper.SetDefault("BILL_RUN_AMOUNT", "0")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("BILLING_EVENTS_EXCHANGE")
	_ = viper.BindEnv("BILL_RUN_SCHEDULE")
	_ = viper.BindEnv("BILL_RUN_AMOUNT")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if strings.TrimSpace(config.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return &config, nil
}
