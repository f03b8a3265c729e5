package service

// Observer receives domain events for instrumentation. *metrics.Metrics
// satisfies it.
type Observer interface {
	PointsBooked(kind string, amount int)
	Verification(accepted bool)
	Claim(result string)
}

type nopObserver struct{}

func (nopObserver) PointsBooked(string, int) {}
func (nopObserver) Verification(bool)        {}
func (nopObserver) Claim(string)             {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
