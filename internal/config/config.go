package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const mask = "**********"

var ErrInvalid = errors.New("config: invalid settings")

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// Enabled reports whether the image archive is configured.
func (s S3) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type Config struct {
	TelegramToken string

	OpenAIKey     string
	OpenAIBaseURL string
	Model         string
	MaxTokens     int
	Temperature   float32
	SystemPrompt  string
	MaxRetries    int
	RetryBackoff  time.Duration
	ImageModel    string

	ConvoMode             string
	ConvoRetention        time.Duration
	AutoEngageProbability float64
	AutoEngageMinMessages int
	AutoReactProbability  float64

	ImageFeature       bool
	ImageTag           string
	ImageUserTokens    int
	ImageTokenLifespan time.Duration

	AdminChatIDs []int64
	AdminToken   string
	Port         int

	S3 S3
}

// LoadEnvFile reads a .env file into the process environment. A missing
// default file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && path == ".env" {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load resolves every template setting from lookup (os.LookupEnv in main),
// falling back to template defaults, and logs the effective values.
func Load(lookup func(string) (string, bool), log *zap.Logger) (*Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	settings, err := Template()
	if err != nil {
		return nil, err
	}

	values, err := resolve(settings, lookup, log)
	if err != nil {
		return nil, err
	}
	return build(values)
}

func resolve(settings []Setting, lookup func(string) (string, bool), log *zap.Logger) (map[string]string, error) {
	values := make(map[string]string, len(settings))
	var errs error

	for _, s := range settings {
		raw, ok := lookup(s.Name)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			if s.Required {
				errs = multierr.Append(errs, fmt.Errorf("%s not set and is required", s.Name))
				continue
			}
			log.Info("setting not set, using default", zap.String("name", s.Name), zap.String("value", shown(s, s.Default)))
			values[s.Name] = s.Default
			continue
		}

		if err := validate(s, raw); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		log.Info("setting", zap.String("name", s.Name), zap.String("value", shown(s, raw)))
		values[s.Name] = raw
	}

	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, errs)
	}
	return values, nil
}

func validate(s Setting, raw string) error {
	if len(s.Allowed) > 0 && !slices.Contains(s.Allowed, raw) {
		return fmt.Errorf("%s=%s is invalid, allowed value(s): %s", s.Name, shown(s, raw), strings.Join(s.Allowed, ","))
	}

	var n float64
	switch s.Kind {
	case KindInt:
		i, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s=%s is invalid, expected an integer", s.Name, shown(s, raw))
		}
		n = float64(i)
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%s=%s is invalid, expected a number", s.Name, shown(s, raw))
		}
		n = f
	case KindList:
		for _, item := range splitList(raw) {
			if _, err := strconv.ParseInt(item, 10, 64); err != nil {
				return fmt.Errorf("%s: %q is not a chat id", s.Name, item)
			}
		}
		return nil
	default:
		return nil
	}

	if s.Min != nil && n < *s.Min {
		return fmt.Errorf("%s=%s is below the minimum %v", s.Name, raw, *s.Min)
	}
	if s.Max != nil && n > *s.Max {
		return fmt.Errorf("%s=%s is above the maximum %v", s.Name, raw, *s.Max)
	}
	return nil
}

func shown(s Setting, v string) string {
	if s.Secret && v != "" {
		return mask
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// build converts already validated values, so parse errors here mean the
// template default itself is broken.
func build(v map[string]string) (*Config, error) {
	p := parser{values: v}
	cfg := &Config{
		TelegramToken: v["TELEGRAM_BOT_TOKEN"],

		OpenAIKey:     v["OPENAI_API_KEY"],
		OpenAIBaseURL: v["OPENAI_BASE_URL"],
		Model:         v["OPENAI_PARAM_MODEL"],
		MaxTokens:     p.int("OPENAI_PARAM_MAX_TOKENS"),
		Temperature:   float32(p.float("OPENAI_PARAM_TEMPERATURE")),
		SystemPrompt:  v["OPENAI_PARAM_SYSTEM_PROMPT"],
		MaxRetries:    p.int("OPENAI_MAX_RETRIES"),
		RetryBackoff:  time.Duration(p.int("OPENAI_RETRY_BACKOFF_MS")) * time.Millisecond,
		ImageModel:    v["OPENAI_IMAGE_MODEL"],

		ConvoMode:             v["BOT_CONVO_MODE"],
		ConvoRetention:        time.Duration(p.int("BOT_CONVO_RETAIN_SEC")) * time.Second,
		AutoEngageProbability: p.float("BOT_AUTO_ENGAGE_PROBABILITY"),
		AutoEngageMinMessages: p.int("BOT_AUTO_ENGAGE_MIN_MESSAGES"),
		AutoReactProbability:  p.float("BOT_AUTO_REACT_PROBABILITY"),

		ImageFeature:       v["BOT_CREATE_IMAGE_FEATURE"] == "enabled",
		ImageTag:           v["BOT_CREATE_IMAGE_TAG"],
		ImageUserTokens:    p.int("BOT_CREATE_IMAGE_USER_TOKENS"),
		ImageTokenLifespan: time.Duration(p.int("BOT_CREATE_IMAGE_USER_TOKENS_EXPIRE_SEC")) * time.Second,

		AdminChatIDs: p.ids("ADMIN_CHAT_IDS"),
		AdminToken:   v["ADMIN_TOKEN"],
		Port:         p.int("PORT"),

		S3: S3{
			Endpoint:  v["S3_ENDPOINT"],
			AccessKey: v["S3_ACCESS_KEY"],
			SecretKey: v["S3_SECRET_KEY"],
			Bucket:    v["S3_BUCKET"],
			Region:    v["S3_REGION"],
		},
	}
	if p.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, p.err)
	}
	return cfg, nil
}

type parser struct {
	values map[string]string
	err    error
}

func (p *parser) int(name string) int {
	n, err := strconv.Atoi(p.values[name])
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: %w", name, err))
	}
	return n
}

func (p *parser) float(name string) float64 {
	f, err := strconv.ParseFloat(p.values[name], 64)
	if err != nil {
		p.err = multierr.Append(p.err, fmt.Errorf("%s: %w", name, err))
	}
	return f
}

func (p *parser) ids(name string) []int64 {
	var out []int64
	for _, item := range splitList(p.values[name]) {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			p.err = multierr.Append(p.err, fmt.Errorf("%s: %w", name, err))
			continue
		}
		out = append(out, id)
	}
	return out
}
