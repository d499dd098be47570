package engine

import "time"

// Observer receives engine progress. Calls for one lookup never overlap, but
// concurrent lookups share the observer.
type Observer interface {
	WaveStarted(wave, launched int)
	SourceSettled(service string, err error, elapsed time.Duration)
	WaveFinished(wave int, err error)
	LookupFinished(err error, elapsed time.Duration)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) WaveStarted(int, int)                       {}
func (NopObserver) SourceSettled(string, error, time.Duration) {}
func (NopObserver) WaveFinished(int, error)                    {}
func (NopObserver) LookupFinished(error, time.Duration)        {}

type observers []Observer

func (o observers) WaveStarted(wave, launched int) {
	for _, ob := range o {
		ob.WaveStarted(wave, launched)
	}
}

func (o observers) SourceSettled(service string, err error, elapsed time.Duration) {
	for _, ob := range o {
		ob.SourceSettled(service, err, elapsed)
	}
}

func (o observers) WaveFinished(wave int, err error) {
	for _, ob := range o {
		ob.WaveFinished(wave, err)
	}
}

func (o observers) LookupFinished(err error, elapsed time.Duration) {
	for _, ob := range o {
		ob.LookupFinished(err, elapsed)
	}
}
