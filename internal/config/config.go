// Package config centralizes the operator's process inputs: every
// recognized environment variable resolved once at startup into a Config
// value handlers receive explicitly, never read again from the process
// environment.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// ChildResourceRef names an additional child kind the engine should watch
// beyond the six built-in keys, per EXTRA_CHILD_RESOURCES.
type ChildResourceRef struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// Config is the fully resolved process configuration.
type Config struct {
	APIGroup   string
	APIVersion string
	CRDName    string

	Namespaces  []string
	ClusterWide bool

	IdleCheckInterval     time.Duration
	PendingCheckInterval  time.Duration
	ResourceCheckInterval time.Duration
	ResourceCheckEnabled  bool

	CPUUsageMillicoresIdleThreshold float64
	UnschedulableFailureThreshold   time.Duration

	InitContainerRestartLimit int32
	ContainerRestartLimit     int32

	SelectorLabels      map[string]string
	ExtraChildResources []ChildResourceRef

	MetricsEnabled bool
	MetricsPort    int
}

// Load resolves configuration from the environment, applying the documented
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		APIGroup:   getEnv("CRD_API_GROUP", "amalthea.dev"),
		APIVersion: getEnv("CRD_API_VERSION", "v1alpha1"),
		CRDName:    getEnv("CRD_NAME", "JupyterServer"),

		ClusterWide: getEnvBool("CLUSTER_WIDE", false),

		CPUUsageMillicoresIdleThreshold: getEnvFloat("CPU_USAGE_MILLICORES_IDLE_THRESHOLD", 200),
		UnschedulableFailureThreshold:   getEnvSeconds("UNSCHEDULABLE_FAILURE_THRESHOLD_SECONDS", 60),

		InitContainerRestartLimit: int32(getEnvInt("JUPYTER_SERVER_INIT_CONTAINER_RESTART_LIMIT", 1)),
		ContainerRestartLimit:     int32(getEnvInt("JUPYTER_SERVER_CONTAINER_RESTART_LIMIT", 3)),

		ResourceCheckEnabled: getEnvBool("JUPYTER_SERVER_RESOURCE_CHECK_ENABLED", false),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsPort:    getEnvInt("METRICS_PORT", 8765),
	}

	cfg.IdleCheckInterval = getEnvSeconds("JUPYTER_SERVER_IDLE_CHECK_INTERVAL_SECONDS", 30)
	cfg.PendingCheckInterval = getEnvSeconds("JUPYTER_SERVER_PENDING_CHECK_INTERVAL_SECONDS", 30)
	cfg.ResourceCheckInterval = getEnvSeconds("JUPYTER_SERVER_RESOURCE_CHECK_INTERVAL_SECONDS", 60)

	if ns := os.Getenv("NAMESPACES"); ns != "" {
		for _, n := range strings.Split(ns, ",") {
			n = strings.TrimSpace(n)
			if n != "" {
				cfg.Namespaces = append(cfg.Namespaces, n)
			}
		}
	}

	if raw := os.Getenv("AMALTHEA_SELECTOR_LABELS"); raw != "" {
		m := map[string]string{}
		if err := yaml.Unmarshal([]byte(raw), &m); err != nil {
			return Config{}, err
		}
		cfg.SelectorLabels = m
	}

	if raw := os.Getenv("EXTRA_CHILD_RESOURCES"); raw != "" {
		var refs []ChildResourceRef
		if err := json.Unmarshal([]byte(raw), &refs); err != nil {
			return Config{}, err
		}
		cfg.ExtraChildResources = refs
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	n := getEnvInt(key, defaultSeconds)
	return time.Duration(n) * time.Second
}
