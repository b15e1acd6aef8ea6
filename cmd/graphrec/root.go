package main

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipelined/graph/log"
)

var (
	cfgFile string
	logger  = log.GetLogger()
)

// RootCmd is the base command of graphrec.
var RootCmd = &cobra.Command{
	Use:   "graphrec",
	Short: "Render and record an audio graph",
	Long: `graphrec builds a small audio graph: a tone feeds a dry and a wet
gain, both are mixed into the destination and captured by a recorder.

Configuration is read from flags, GRAPHREC_* environment variables and
an optional config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.graphrec.yaml)")
	RootCmd.PersistentFlags().Int("samplerate", 44100, "sample rate")
	RootCmd.PersistentFlags().Int("quantum", 128, "frames per render quantum")
	RootCmd.PersistentFlags().Int("channels", 2, "destination channels")
	RootCmd.PersistentFlags().Float64("frequency", 440, "tone frequency in Hz")
	RootCmd.PersistentFlags().Float64("dry", 0.8, "dry gain")
	RootCmd.PersistentFlags().Float64("wet", 0.4, "wet gain")
	RootCmd.PersistentFlags().Float64("tremolo", 4, "wet gain modulation rate in Hz, 0 disables it")
	RootCmd.PersistentFlags().Duration("duration", 0, "rendered signal duration")
	RootCmd.PersistentFlags().Bool("metric", false, "print processing metrics when done")
	RootCmd.PersistentFlags().Bool("debug", false, "debug logging")
}

func initConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".graphrec")
		viper.AddConfigPath("$HOME")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("graphrec")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Infof("using config file: %v", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
		return err
	}

	bind := map[string]string{
		"audio.samplerate": "samplerate",
		"audio.quantum":    "quantum",
		"audio.channels":   "channels",
		"tone.frequency":   "frequency",
		"mix.dry":          "dry",
		"mix.wet":          "wet",
		"mix.tremolo":      "tremolo",
		"duration":         "duration",
		"metric":           "metric",
		"debug":            "debug",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, RootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return err
		}
	}
	if viper.GetBool("debug") {
		logger.SetLevel(logrus.DebugLevel)
	}
	return checkParameterValues()
}
