package config

import (
	"github.com/pkg/errors"
)

// ParamSource is satisfied by ros.Node.
type ParamSource interface {
	HasParam(name string) (bool, error)
	GetParam(name string) (interface{}, error)
}

// ApplyParams overrides cfg with the node's private parameters, e.g.
// ~policy or ~min_publish_interval, and validates the result.
func ApplyParams(cfg *Config, params ParamSource) error {
	text := map[string]*string{
		"~policy":         &cfg.Policy,
		"~child_frame_id": &cfg.ChildFrameID,
		"~orientation":    &cfg.Orientation,
		"~mode":           &cfg.Mode,
		"~state_topic":    &cfg.Topics.State,
		"~input_topic":    &cfg.Topics.OdometryIn,
		"~output_topic":   &cfg.Topics.OdometryOut,
	}
	for name, field := range text {
		value, ok, err := lookup(params, name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		s, isString := value.(string)
		if !isString {
			return errors.Wrapf(ErrInvalid, "parameter %s must be a string, got %T", name, value)
		}
		*field = s
	}

	floats := map[string]*float64{
		"~min_publish_interval": &cfg.MinPublishInterval,
		"~gate_poll_interval":   &cfg.GatePollInterval,
	}
	for name, field := range floats {
		value, ok, err := lookup(params, name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			*field = v
		case int32:
			*field = float64(v)
		default:
			return errors.Wrapf(ErrInvalid, "parameter %s must be a number, got %T", name, value)
		}
	}

	value, ok, err := lookup(params, "~queue_size")
	if err != nil {
		return err
	}
	if ok {
		v, isInt := value.(int32)
		if !isInt {
			return errors.Wrapf(ErrInvalid, "parameter ~queue_size must be an integer, got %T", value)
		}
		cfg.QueueSize = int(v)
	}
	return Validate(*cfg)
}

func lookup(params ParamSource, name string) (interface{}, bool, error) {
	has, err := params.HasParam(name)
	if err != nil {
		return nil, false, errors.Wrapf(err, "check parameter %s", name)
	}
	if !has {
		return nil, false, nil
	}
	value, err := params.GetParam(name)
	if err != nil {
		return nil, false, errors.Wrapf(err, "read parameter %s", name)
	}
	return value, true, nil
}
