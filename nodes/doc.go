// Package nodes provides basic node types: sources, gain and recorder.
// They cover routing needs only, no DSP beyond sums and gains is done
// here.
package nodes
