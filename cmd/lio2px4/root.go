package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/edwinhayes/lio2px4/config"
	"github.com/edwinhayes/lio2px4/relay"
	"github.com/edwinhayes/lio2px4/ros"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const nodeName = "lio2px4"

var (
	configPath         string
	policy             string
	mode               string
	childFrameID       string
	orientation        string
	minPublishInterval float64
	gatePollInterval   float64
	logLevel           string
	moduleLogLevels    map[string]string
	anonymous          bool
)

var rootCmd = &cobra.Command{
	Use:   "lio2px4 [ROS arguments]",
	Short: "Relay LIO-SAM odometry to PX4",
	Long: "lio2px4 waits for MAVROS to report a flight controller connection, then forwards " +
		"odometry from LIO-SAM to mavros/odometry/out, relabelled or converted to FRD and rate limited.",
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         run,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.StringVar(&policy, "policy", "", "conversion policy: passthrough-relabel or axis-remap")
	flags.StringVar(&mode, "mode", "", "rate gate: timer or event")
	flags.StringVar(&childFrameID, "child-frame-id", "", "child frame id of published odometry")
	flags.StringVar(&orientation, "orientation", "", "axis-remap orientation handling: component or rotation")
	flags.Float64Var(&minPublishInterval, "min-publish-interval", 0, "minimum seconds between publishes")
	flags.Float64Var(&gatePollInterval, "gate-poll-interval", 0, "seconds between connection wait log lines")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringToStringVar(&moduleLogLevels, "module-log-level", nil, "per module log level, e.g. ros=warn,relay=debug")
	flags.BoolVar(&anonymous, "anonymous", false, "append a random suffix to the node name")
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("child-frame-id") {
		cfg.ChildFrameID = childFrameID
	}
	if flags.Changed("orientation") {
		cfg.Orientation = orientation
	}
	if flags.Changed("min-publish-interval") {
		cfg.MinPublishInterval = minPublishInterval
	}
	if flags.Changed("gate-poll-interval") {
		cfg.GatePollInterval = gatePollInterval
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("module-log-level") {
		levels := make(map[string]string, len(cfg.LogLevels)+len(moduleLogLevels))
		for module, level := range cfg.LogLevels {
			levels[module] = level
		}
		for module, level := range moduleLogLevels {
			levels[module] = level
		}
		cfg.LogLevels = levels
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	applyFlags(cmd, &cfg)

	logger := ros.NewDefaultLogger()
	if err := setLogLevels(logger, cfg); err != nil {
		return err
	}

	opts := []ros.NodeOption{ros.WithLogger(logger)}
	if anonymous {
		opts = append(opts, ros.Anonymous())
	}
	node, err := ros.NewNode(nodeName, args, opts...)
	if err != nil {
		return errors.Wrap(err, "create node")
	}
	defer node.Shutdown()
	if rest := node.NonRosArgs(); len(rest) > 0 {
		logger.Warnf("Ignoring arguments %v", rest)
	}

	// Private parameters sit between the file and the flags.
	if err := config.ApplyParams(&cfg, node); err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := setLogLevels(logger, cfg); err != nil {
		return err
	}
	logger.Debugf("Configuration: %+v", cfg)

	r, err := relay.New(cfg.Relay(), node, relay.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-node.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	go node.Spin(ctx)

	return r.Run(ctx)
}

func setLogLevel(logger ros.Logger, name string) error {
	level, err := ros.ParseLogLevel(name)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	logger.SetSeverity(level)
	return nil
}

// setLogLevels applies the default level and then the per module ones.
func setLogLevels(logger ros.Logger, cfg config.Config) error {
	if err := setLogLevel(logger, cfg.LogLevel); err != nil {
		return err
	}
	for module, name := range cfg.LogLevels {
		if err := setLogLevel(logger.WithModule(module), name); err != nil {
			return errors.WithMessage(err, module)
		}
	}
	return nil
}
