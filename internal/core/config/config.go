package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/geohash-codec/pkg/geohash"
)

type EventsCfg struct {
	Enabled   bool
	Topic     string
	Brokers   []string
	QueueSize int
}

type CacheCfg struct {
	Enabled   bool
	RedisAddr string
	KeyPrefix string
	TTL       time.Duration
	OpTimeout time.Duration
	LRUSize   int
}

type Config struct {
	Addr          string
	LogLevel      string
	DefaultLength uint32
	MaxLength     uint32
	H3Res         int
	Cache         CacheCfg
	Events        EventsCfg
}

func FromEnv() Config {
	maxLen := getint("GEOHASH_MAX_LEN", 12)
	if maxLen < 1 {
		maxLen = 1
	}
	if maxLen > geohash.MaxLength {
		maxLen = geohash.MaxLength
	}
	defLen := getint("GEOHASH_DEFAULT_LEN", 8)
	if defLen < 1 || defLen > maxLen {
		defLen = min(8, maxLen)
	}

	res := getint("H3_RES", 8)
	if res < 0 || res > 15 {
		res = 8
	}

	return Config{
		Addr:          getenv("ADDR", ":8090"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		DefaultLength: uint32(defLen),
		MaxLength:     uint32(maxLen),
		H3Res:         res,
		Cache: CacheCfg{
			Enabled:   getbool("CACHE_ENABLED", false),
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
			KeyPrefix: getenv("CACHE_KEY_PREFIX", "geohash"),
			TTL:       getduration("CACHE_TTL", 10*time.Minute),
			OpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			LRUSize:   getint("LRU_SIZE", 4096),
		},
		Events: EventsCfg{
			Enabled:   getbool("EVENTS_ENABLED", false),
			Topic:     getenv("KAFKA_TOPIC", "geohash-events"),
			Brokers:   splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			QueueSize: getint("EVENTS_QUEUE", 1024),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "a:9092, b:9092" into a list, dropping blanks
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
