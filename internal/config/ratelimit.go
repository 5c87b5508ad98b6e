package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Policy is a fixed-window allowance: Limit requests per Window.
type Policy struct {
    Limit  int
    Window time.Duration
}

type RateLimitConfig struct {
    Enabled  bool
    Backend  string // "memory" or "redis"
    Prefix   string
    Debug    bool
    Signup   Policy
    Signin   Policy
    Forgot   Policy
    Reset    Policy
    Settings Policy
    Tutor    Policy
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:  envBool("RATE_LIMIT_ENABLED", true),
        Backend:  strings.ToLower(envStr("RATE_LIMIT_BACKEND", "memory")),
        Prefix:   envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:    envBool("RATE_LIMIT_DEBUG", false),
        Signup:   envPolicy("RATE_LIMIT_SIGNUP", Policy{5, time.Hour}),
        Signin:   envPolicy("RATE_LIMIT_SIGNIN", Policy{10, 10 * time.Minute}),
        Forgot:   envPolicy("RATE_LIMIT_FORGOT", Policy{3, 15 * time.Minute}),
        Reset:    envPolicy("RATE_LIMIT_RESET", Policy{5, 15 * time.Minute}),
        Settings: envPolicy("RATE_LIMIT_SETTINGS", Policy{10, 15 * time.Minute}),
        Tutor:    envPolicy("RATE_LIMIT_TUTOR", Policy{60, 5 * time.Minute}),
    }
    if def.Backend != "redis" { def.Backend = "memory" }
    return def
}

// envPolicy parses "<limit>/<window>", e.g. "5/1h".  Malformed or
// non-positive values fall back to d.
func envPolicy(k string, d Policy) Policy {
    v := os.Getenv(k)
    if v == "" { return d }
    limit, window, ok := strings.Cut(v, "/")
    if !ok { return d }
    n, err := strconv.Atoi(strings.TrimSpace(limit))
    if err != nil || n < 1 { return d }
    w, err := time.ParseDuration(strings.TrimSpace(window))
    if err != nil || w <= 0 { return d }
    return Policy{Limit: n, Window: w}
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
