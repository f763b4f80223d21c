package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"required,oneof=trace debug info warn warning error fatal panic"`
	FieldsDir string

	MaxPlayers           int           `validate:"gte=1,lte=4"`
	MineDensity          float64       `validate:"gt=0,lt=1"`
	FreezeDuration       time.Duration `validate:"gt=0"`
	Stage1Duration       time.Duration `validate:"gt=0"`
	AttackDuration       time.Duration `validate:"gt=0"`
	LockDuration         time.Duration `validate:"gt=0"`
	AttackRadius         int           `validate:"gte=1"`
	AttackMineChance     float64       `validate:"gte=0,lte=1"`
	SelectionMinDistance float64       `validate:"gte=0"`
	TickInterval         time.Duration `validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		Port:                 "8080",
		LogLevel:             "info",
		MaxPlayers:           4,
		MineDensity:          0.3,
		FreezeDuration:       5 * time.Second,
		Stage1Duration:       3 * time.Minute,
		AttackDuration:       3 * time.Minute,
		LockDuration:         3 * time.Minute,
		AttackRadius:         5,
		AttackMineChance:     0.2,
		SelectionMinDistance: 10,
		TickInterval:         100 * time.Millisecond,
	}
}

// AttackStartsAt and the two below are measured from the start of STAGE1.
func (c Config) AttackStartsAt() time.Duration {
	return c.Stage1Duration
}

func (c Config) LockStartsAt() time.Duration {
	return c.Stage1Duration + c.AttackDuration
}

func (c Config) FinishingStartsAt() time.Duration {
	return c.Stage1Duration + c.AttackDuration + c.LockDuration
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig overlays environment variables on DefaultConfig.
func LoadConfig(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := DefaultConfig()
	var err error
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" && err == nil {
			*dst, err = strconv.Atoi(v)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	float := func(key string, dst *float64) {
		if v := getenv(key); v != "" && err == nil {
			*dst, err = strconv.ParseFloat(v, 64)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" && err == nil {
			*dst, err = time.ParseDuration(v)
			if err != nil {
				err = fmt.Errorf("%s: %w", key, err)
			}
		}
	}

	str("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("FIELDS_DIR", &c.FieldsDir)
	num("MAX_PLAYERS", &c.MaxPlayers)
	float("MINE_DENSITY", &c.MineDensity)
	dur("FREEZE_DURATION", &c.FreezeDuration)
	dur("STAGE1_DURATION", &c.Stage1Duration)
	dur("ATTACK_DURATION", &c.AttackDuration)
	dur("LOCK_DURATION", &c.LockDuration)
	num("ATTACK_RADIUS", &c.AttackRadius)
	float("ATTACK_MINE_PROBABILITY", &c.AttackMineChance)
	float("SELECTION_MIN_DISTANCE", &c.SelectionMinDistance)
	dur("TICK_INTERVAL", &c.TickInterval)
	if err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) ApplyLogLevel() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, keeping %s", c.LogLevel, log.GetLevel())
		return
	}
	log.SetLevel(level)
}
