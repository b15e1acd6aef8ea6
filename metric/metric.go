// Package metric publishes processing counters of graph nodes with expvar.
// Counters are aggregated per processor type.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const processorsLabel = "graph.processors"

const (
	// QuantumCounter measures number of processed quanta.
	QuantumCounter = "Quanta"
	// FrameCounter measures number of processed frames.
	FrameCounter = "Frames"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of processed signal.
	DurationCounter = "Duration"
	// NodeCounter counts number of metered nodes.
	NodeCounter = "Nodes"
)

var (
	processors = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		QuantumCounter,
		FrameCounter,
		LatencyCounter,
		DurationCounter,
		NodeCounter,
	}
)

// Get metrics values for provided processor type.
func Get(processor interface{}) map[string]string {
	return getCounters(getType(processor))
}

// GetAll returns counters for all measured processors.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	processors.Lock()
	defer processors.Unlock()
	for processor := range processors.m {
		m[processor] = getCounters(processor)
	}
	return m
}

func getCounters(processorType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(processorType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone
// metrics capture until node is actually rendered.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when quantum is processed.
type MeasureFunc func(frames int)

// Meter creates new meter closure to capture processor counters.
func Meter(processor interface{}, sampleRate int) ResetFunc {
	t := getType(processor)
	metric := processors.get(t)
	metric.nodes.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		var (
			quantumSize     int
			quantumDuration time.Duration
		)
		return func(frames int) {
			metric.latency.set(time.Since(calledAt))
			metric.quanta.Add(1)
			metric.frames.Add(int64(frames))
			// recalculate duration only when quantum size has changed
			if quantumSize != frames {
				quantumSize = frames
				quantumDuration = DurationOf(sampleRate, frames)
			}
			metric.duration.add(quantumDuration)
			calledAt = time.Now()
		}
	}
}

// DurationOf returns time duration of frames at provided sample rate.
func DurationOf(sampleRate, frames int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(processorType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[processorType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(processorType)
	m.m[processorType] = metric
	return metric
}

type metric struct {
	nodes    *expvar.Int
	quanta   *expvar.Int
	frames   *expvar.Int
	latency  *duration
	duration *duration
}

func newMetric(processorType string) metric {
	m := metric{
		nodes:    expvar.NewInt(key(processorType, NodeCounter)),
		quanta:   expvar.NewInt(key(processorType, QuantumCounter)),
		frames:   expvar.NewInt(key(processorType, FrameCounter)),
		latency:  &duration{},
		duration: &duration{},
	}
	expvar.Publish(key(processorType, LatencyCounter), m.latency)
	expvar.Publish(key(processorType, DurationCounter), m.duration)
	return m
}

func key(processorType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", processorsLabel, processorType, counter)
}

func getType(processor interface{}) string {
	rv := reflect.ValueOf(processor)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d atomic.Int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(v.d.Load()).String())
}

func (v *duration) add(delta time.Duration) {
	v.d.Add(int64(delta))
}

func (v *duration) set(value time.Duration) {
	v.d.Store(int64(value))
}
