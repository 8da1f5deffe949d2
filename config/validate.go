package config

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pkg/errors"
)

const schema = `
#Topic: string & =~"^[~/A-Za-z][A-Za-z0-9_/]*$"
#Level: "debug" | "info" | "warn" | "warning" | "error" | "fatal"

#Config: {
	policy:               "passthrough-relabel" | "axis-remap"
	child_frame_id:       string
	orientation:          "component" | "rotation"
	mode:                 "timer" | "event"
	min_publish_interval: number & >0 & <=1
	gate_poll_interval:   number & >0 & <=10
	topics: {
		state:        #Topic
		odometry_in:  #Topic
		odometry_out: #Topic
	}
	queue_size: int & >=1 & <=1000
	log_level:  #Level
	log_levels?: {
		ros?:   #Level
		relay?: #Level
	}
}
`

// Validate checks cfg against the CUE schema. The returned error has
// ErrInvalid as its cause.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return errors.Wrap(err, "compile config schema")
	}
	value := def.Unify(ctx.Encode(cfg))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	return nil
}
