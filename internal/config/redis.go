package config

// Redis backs the shared rate limiter (multi-instance deployments) and the
// user directory response cache.  Both degrade to process-local behaviour or
// no caching when the client is nil.

import (
    "context"
    "crypto/tls"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient returns a ping-checked client, or nil when no Redis is
// configured or the server is unreachable.  Variables, first match wins:
//
//	REDIS_URL                redis:// or rediss:// URL
//	REDIS_HOST + REDIS_PORT  explicit address
//	REDIS_ADDR               host:port
//
// REDIS_PASSWORD, REDIS_DB and REDIS_TLS ("true" or "1") refine the
// non-URL forms.
func NewRedisClient() *redis.Client {
    opts, ok := redisOptions()
    if !ok {
        return nil
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}

// redisOptions builds client options from the environment.  The second
// result is false when no Redis variable is set.
func redisOptions() (*redis.Options, bool) {
    if u := os.Getenv("REDIS_URL"); u != "" {
        opts, err := redis.ParseURL(u)
        if err != nil {
            return nil, false
        }
        return opts, true
    }
    host := os.Getenv("REDIS_HOST")
    port := os.Getenv("REDIS_PORT")
    addr := os.Getenv("REDIS_ADDR")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        return nil, false
    }
    dbNum := 0
    if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
        if n, err := strconv.Atoi(dbStr); err == nil {
            dbNum = n
        }
    }
    var tlsConf *tls.Config
    if tlsEnv := os.Getenv("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return &redis.Options{
        Addr:         addr,
        Password:     os.Getenv("REDIS_PASSWORD"),
        DB:           dbNum,
        TLSConfig:    tlsConf,
        DialTimeout:  2 * time.Second,
        ReadTimeout:  time.Second,
        WriteTimeout: time.Second,
    }, true
}
