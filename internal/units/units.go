// Package units parses the raw numeric-suffix shapes returned by the
// cluster metrics.k8s.io endpoint, which are
// not always well-formed Kubernetes resource.Quantity strings (bare
// nanocore integers with no unit suffix show up in some metrics-server
// versions). Anything that arrives as a normal quantity string elsewhere in
// the operator (e.g. spec.jupyterServer.resources) is parsed directly with
// k8s.io/apimachinery/pkg/api/resource instead of this package.
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// decimal and binary byte-suffix multipliers.
var memoryMultipliers = map[string]float64{
	"":   1,
	"K":  1e3,
	"M":  1e6,
	"G":  1e9,
	"T":  1e12,
	"P":  1e15,
	"E":  1e18,
	"Ki": 1 << 10,
	"Mi": 1 << 20,
	"Gi": 1 << 30,
	"Ti": 1 << 40,
	"Pi": 1 << 50,
	"Ei": 1 << 60,
}

// ParseMillicores converts a cluster-metrics CPU usage string to millicores.
// Suffixes: "n" = nanocores (1e-6 millicores), "m" = millicores, none =
// cores (1000 millicores).
func ParseMillicores(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty cpu usage value")
	}
	switch {
	case strings.HasSuffix(s, "n"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "n"), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing nanocore cpu value %q: %w", s, err)
		}
		return v * 1e-6, nil
	case strings.HasSuffix(s, "m"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "m"), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing millicore cpu value %q: %w", s, err)
		}
		return v, nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing core cpu value %q: %w", s, err)
		}
		return v * 1000, nil
	}
}

// ParseBytes converts a cluster-metrics memory usage string to bytes,
// recognizing both decimal (K, M, G, T, P, E) and binary (Ki, Mi, Gi, Ti,
// Pi, Ei) suffixes; an unsuffixed value is already bytes.
func ParseBytes(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty memory usage value")
	}
	suffix := ""
	for _, candidate := range []string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "K", "M", "G", "T", "P", "E"} {
		if strings.HasSuffix(s, candidate) {
			suffix = candidate
			break
		}
	}
	numeric := strings.TrimSuffix(s, suffix)
	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing memory value %q: %w", s, err)
	}
	mult, ok := memoryMultipliers[suffix]
	if !ok {
		return 0, fmt.Errorf("unrecognized memory suffix %q in %q", suffix, s)
	}
	return v * mult, nil
}
