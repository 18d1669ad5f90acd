package cmd

import (
	"fmt"
	"net/url"

	"github.com/fogtools/fogtest/pkg/metrics"
)

type metricsFlags struct {
	Enabled  *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"` // pointer because we want to distinguish unset from false
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
}

func (m metricsFlags) IsEnabled() bool {
	return m.Enabled != nil && *m.Enabled
}

// metricsStore builds the InfluxDB store publishing run metrics, or nil
// when metrics collection is disabled
func (in *cliOptionInputs) metricsStore() (metrics.Store, error) {
	m := in.params.root.metrics
	if !m.IsEnabled() {
		return nil, nil
	}

	opts := make([]metrics.StoreOption, 0, 4)
	if m.URL != "" {
		u, err := url.Parse(m.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid metrics URL %q: %w", m.URL, err)
		}
		// credentials embedded in the URL are recognized, explicit flags win
		if u.User != nil {
			if m.User == "" {
				m.User = u.User.Username()
			}
			if m.Password == "" {
				m.Password, _ = u.User.Password()
			}
			u.User = nil
		}
		opts = append(opts, metrics.WithAddr(u.String()))
	}
	if m.User != "" {
		opts = append(opts, metrics.WithUser(m.User))
	}
	if m.Password != "" {
		opts = append(opts, metrics.WithPassword(m.Password))
	}
	if m.Database != "" {
		opts = append(opts, metrics.WithDatabase(m.Database))
	}
	return metrics.NewStore(opts...)
}
