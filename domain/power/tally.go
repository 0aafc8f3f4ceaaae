package power

// Tally is the running count behind a power estimate. Merge is associative
// and commutative with the zero Tally as identity, so partial tallies from
// any split of the repetitions combine to the same total.
type Tally struct {
	Completed  int `json:"completed"`
	Rejections int `json:"rejections"`
}

// Observe adds one repetition's decision
func (t Tally) Observe(rejected bool) Tally {
	t.Completed++
	if rejected {
		t.Rejections++
	}
	return t
}

// Merge combines two tallies
func (t Tally) Merge(other Tally) Tally {
	return Tally{
		Completed:  t.Completed + other.Completed,
		Rejections: t.Rejections + other.Rejections,
	}
}

// Rate is the rejection rate, or 0 before any repetition completes
func (t Tally) Rate() float64 {
	if t.Completed == 0 {
		return 0
	}
	return float64(t.Rejections) / float64(t.Completed)
}

// TallyOf folds a set of outcomes
func TallyOf(outcomes []Outcome) Tally {
	var t Tally
	for _, o := range outcomes {
		t = t.Observe(o.Rejected)
	}
	return t
}
