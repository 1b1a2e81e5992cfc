package stepping

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the engine's tunable bounds: the fixpoint iteration cap
// (scheduler's integrate_til_zero loop), the SQL batch-upsert size
// (sqlzset's Inc commit), and the frontier poll backoff bound (sqlzset's
// WaitForFrontier). Supplied to Store constructors (spec §10.3) so a
// deployment can tune all three from one source instead of editing
// package constants. Grounded on the teacher's contrib/graphql gqlgen.yml
// loader (LoadGQLGenConfig): a YAML document unmarshalled into a struct
// with defaults filled in for anything the file omits.
type Config struct {
	// FixpointIterationCap bounds integrate_til_zero's inner loop (spec
	// §7: "bounded by a hard iteration cap (~1000)").
	FixpointIterationCap int `yaml:"fixpoint_iteration_cap,omitempty"`

	// SQLBatchSize bounds how many upserted rows sqlzset.Store.Inc
	// batches into a single INSERT statement (spec §4.4's batch-of-1000
	// description).
	SQLBatchSize int `yaml:"sql_batch_size,omitempty"`

	// FrontierPollMin and FrontierPollMax bound sqlzset.WaitForFrontier's
	// exponential backoff (spec §4.4/§5).
	FrontierPollMin time.Duration `yaml:"frontier_poll_min,omitempty"`
	FrontierPollMax time.Duration `yaml:"frontier_poll_max,omitempty"`
}

// DefaultConfig returns the engine's built-in bounds: the values every
// constructor used before Config existed (scheduler.MaxFixpointIterations,
// a 1000-row SQL batch, and a 10ms-5s frontier backoff).
func DefaultConfig() Config {
	return Config{
		FixpointIterationCap: 1000,
		SQLBatchSize:         1000,
		FrontierPollMin:      10 * time.Millisecond,
		FrontierPollMax:      5 * time.Second,
	}
}

// WithDefaults fills any zero-valued field in c with DefaultConfig's
// value, so a caller-supplied Config may set only the bounds it cares
// about.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.FixpointIterationCap <= 0 {
		c.FixpointIterationCap = d.FixpointIterationCap
	}
	if c.SQLBatchSize <= 0 {
		c.SQLBatchSize = d.SQLBatchSize
	}
	if c.FrontierPollMin <= 0 {
		c.FrontierPollMin = d.FrontierPollMin
	}
	if c.FrontierPollMax <= 0 {
		c.FrontierPollMax = d.FrontierPollMax
	}
	return c
}

// LoadConfig loads a Config from a YAML file at path, defaulting any bound
// the file omits. A missing file yields DefaultConfig rather than an
// error, matching LoadGQLGenConfig's "no file means built-in defaults"
// convention.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c.WithDefaults(), nil
}
