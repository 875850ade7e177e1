package engine

// smoother is an exponential moving average over the elbow angle:
// smoothed' = alpha*smoothed + (1-alpha)*raw. It only advances on frames that
// yield a raw angle; frames without one simply don't touch it.
type smoother struct {
	alpha float64
	value float64
}

// reseed snaps the smoother to the given angle. Called on lock-in so the
// first reps aren't dragged toward whatever the angle was during lock-in.
func (s *smoother) reseed(v float64) {
	s.value = v
}

// update folds a raw sample into the average and returns the new value.
func (s *smoother) update(raw float64) float64 {
	s.value = s.alpha*s.value + (1-s.alpha)*raw
	return s.value
}
