package metrics

import (
	"time"

	influxdb "github.com/influxdata/influxdb/client/v2"
)

// StoreOption configures an influxdb client
type StoreOption func(*influxDB)

// WithDatabase sets the database to use
func WithDatabase(db string) StoreOption {
	return func(s *influxDB) {
		if db != "" {
			s.database = db
		}
	}
}

// WithAddr sets the influxdb server URL
func WithAddr(addr string) StoreOption {
	return func(s *influxDB) {
		if addr != "" {
			s.config.Addr = addr
		}
	}
}

// WithUser sets the database user to connect to an influxdb database
func WithUser(user string) StoreOption {
	return func(s *influxDB) {
		s.config.Username = user
	}
}

// WithPassword sets the database password to connect to an influxdb database
func WithPassword(pwd string) StoreOption {
	return func(s *influxDB) {
		s.config.Password = pwd
	}
}

// WithTimeout bounds the time allowed for writes to the database
func WithTimeout(timeout time.Duration) StoreOption {
	return func(s *influxDB) {
		if timeout > 0 {
			s.config.Timeout = timeout
		}
	}
}

// WithClient sets a preconfigured influxdb client
func WithClient(client influxdb.Client) StoreOption {
	return func(s *influxDB) {
		if client != nil {
			s.client = client
		}
	}
}
