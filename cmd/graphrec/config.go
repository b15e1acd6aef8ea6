package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pipelined/graph"
)

type parmError struct {
	parm string
	msg  string
}

func (p *parmError) Error() string {
	return fmt.Sprintf("%v: %v", p.parm, p.msg)
}

// config is a snapshot of viper settings.
type config struct {
	sampleRate int
	quantum    int
	channels   int
	frequency  float64
	dry        float64
	wet        float64
	tremolo    float64
	duration   time.Duration
	metric     bool
}

func checkParameterValues() error {
	if sr := viper.GetInt("audio.samplerate"); sr < 8000 || sr > 192000 {
		return &parmError{parm: "audio.samplerate", msg: "allowed values are [8000...192000]"}
	}
	if q := viper.GetInt("audio.quantum"); q <= 0 || q > 8192 {
		return &parmError{parm: "audio.quantum", msg: "allowed values are [1...8192]"}
	}
	if chs := viper.GetInt("audio.channels"); chs < 1 || chs > graph.MaxChannels {
		return &parmError{parm: "audio.channels", msg: fmt.Sprintf("allowed values are [1...%d]", graph.MaxChannels)}
	}
	if f := viper.GetFloat64("tone.frequency"); f <= 0 || f >= float64(viper.GetInt("audio.samplerate"))/2 {
		return &parmError{parm: "tone.frequency", msg: "value must be in (0, samplerate/2)"}
	}
	if viper.GetDuration("duration") < 0 {
		return &parmError{parm: "duration", msg: "value must be >= 0"}
	}
	return nil
}

// viper lookups are slow, so settings are copied once.
func readConfig() config {
	return config{
		sampleRate: viper.GetInt("audio.samplerate"),
		quantum:    viper.GetInt("audio.quantum"),
		channels:   viper.GetInt("audio.channels"),
		frequency:  viper.GetFloat64("tone.frequency"),
		dry:        viper.GetFloat64("mix.dry"),
		wet:        viper.GetFloat64("mix.wet"),
		tremolo:    viper.GetFloat64("mix.tremolo"),
		duration:   viper.GetDuration("duration"),
		metric:     viper.GetBool("metric"),
	}
}
