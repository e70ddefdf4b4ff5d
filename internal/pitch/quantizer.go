package pitch

// Silence marks a block with no accepted pitch.
const Silence = -1

// Decision is what the quantizer asks the output to do after one block.
// Off and On are Silence when nothing changes.
type Decision struct {
	Off int
	On  int
}

// Changed reports whether the decision sends anything.
func (d Decision) Changed() bool {
	return d.Off != Silence || d.On != Silence
}

// Quantizer debounces a stream of detected notes. It keeps the last Window
// detections (silence included), takes the most frequent one, and only acts
// when it was seen at least Debounce times. Ties between equally frequent
// entries go to the one seen first in the window.
type Quantizer struct {
	window   int
	debounce int
	history  []int
	current  int
}

// NewQuantizer creates a quantizer. window and debounce below 1 count as 1,
// which disables that filter.
func NewQuantizer(window, debounce int) *Quantizer {
	return &Quantizer{
		window:   max(1, window),
		debounce: max(1, debounce),
		current:  Silence,
	}
}

// Current returns the sounding note or Silence.
func (q *Quantizer) Current() int {
	return q.current
}

// Push adds one detection (a note or Silence) and returns the resulting
// transition.
func (q *Quantizer) Push(note int) Decision {
	q.history = append(q.history, note)
	if len(q.history) > q.window {
		q.history = q.history[len(q.history)-q.window:]
	}

	winner, count := q.majority()
	d := Decision{Off: Silence, On: Silence}
	if count < q.debounce {
		return d
	}

	if winner == Silence {
		if q.current != Silence {
			d.Off = q.current
			q.current = Silence
		}
		return d
	}
	if winner != q.current {
		d.Off = q.current
		d.On = winner
		q.current = winner
	}
	return d
}

// Reset forgets history and returns the note that was sounding, if any.
func (q *Quantizer) Reset() int {
	prev := q.current
	q.history = q.history[:0]
	q.current = Silence
	return prev
}

func (q *Quantizer) majority() (note, count int) {
	counts := make(map[int]int, len(q.history))
	var order []int
	for _, n := range q.history {
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}
	note, count = Silence, 0
	for _, n := range order {
		if counts[n] > count {
			note, count = n, counts[n]
		}
	}
	return note, count
}
