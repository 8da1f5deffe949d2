// Package config loads the relay settings from defaults, a YAML file and
// ROS private parameters, and validates the result against a CUE schema.
package config

import (
	"os"
	"time"

	"github.com/edwinhayes/lio2px4/relay"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is the cause of every validation error.
var ErrInvalid = errors.New("invalid configuration")

type Topics struct {
	State       string `yaml:"state" json:"state"`
	OdometryIn  string `yaml:"odometry_in" json:"odometry_in"`
	OdometryOut string `yaml:"odometry_out" json:"odometry_out"`
}

// Config mirrors the YAML file. Intervals are in seconds.
type Config struct {
	Policy             string  `yaml:"policy" json:"policy"`
	ChildFrameID       string  `yaml:"child_frame_id" json:"child_frame_id"`
	Orientation        string  `yaml:"orientation" json:"orientation"`
	Mode               string  `yaml:"mode" json:"mode"`
	MinPublishInterval float64 `yaml:"min_publish_interval" json:"min_publish_interval"`
	GatePollInterval   float64 `yaml:"gate_poll_interval" json:"gate_poll_interval"`
	Topics             Topics  `yaml:"topics" json:"topics"`
	QueueSize          int     `yaml:"queue_size" json:"queue_size"`
	LogLevel           string  `yaml:"log_level" json:"log_level"`

	// LogLevels overrides LogLevel per module ("ros" or "relay").
	LogLevels map[string]string `yaml:"log_levels" json:"log_levels,omitempty"`
}

func Default() Config {
	return Config{
		Policy:             string(relay.PassthroughRelabel),
		Orientation:        string(relay.OrientationComponent),
		Mode:               string(relay.ModeTimer),
		MinPublishInterval: 0.02,
		GatePollInterval:   0.05,
		Topics: Topics{
			State:       "mavros/state",
			OdometryIn:  "odometry/imu",
			OdometryOut: "mavros/odometry/out",
		},
		QueueSize: 10,
		LogLevel:  "info",
	}
}

// Load reads path over the defaults and validates the result. Keys missing
// from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse %s", path)
	}
	if err := Validate(cfg); err != nil {
		return cfg, errors.WithMessage(err, path)
	}
	return cfg, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Relay converts the file representation into relay settings.
func (c Config) Relay() relay.Config {
	return relay.Config{
		Policy:             relay.Policy(c.Policy),
		ChildFrameID:       c.ChildFrameID,
		Orientation:        relay.OrientationMode(c.Orientation),
		Mode:               relay.Mode(c.Mode),
		MinPublishInterval: seconds(c.MinPublishInterval),
		GatePollInterval:   seconds(c.GatePollInterval),
		StateTopic:         c.Topics.State,
		InputTopic:         c.Topics.OdometryIn,
		OutputTopic:        c.Topics.OdometryOut,
		QueueSize:          c.QueueSize,
	}
}
