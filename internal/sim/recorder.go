package sim

import "github.com/san-kum/orbitsim/internal/physics"

// Recorder samples the bodies every Every ticks, keeping at most MaxFrames
// frames. It is used from the integrator goroutine only; read Frames after
// Run returns.
type Recorder struct {
	every     uint64
	maxFrames int
	frames    []Frame
	dropped   int
}

func NewRecorder(every uint64, maxFrames int) *Recorder {
	if every == 0 {
		every = 1
	}
	return &Recorder{
		every:     every,
		maxFrames: maxFrames,
		frames:    make([]Frame, 0, 64),
	}
}

func (r *Recorder) OnTick(tick uint64, s *physics.Simulation) {
	if tick%r.every != 0 {
		return
	}
	r.add(tick, s)
}

// OnReseed records the fresh configuration as tick 0 of the new seed.
func (r *Recorder) OnReseed(seed uint64, s *physics.Simulation) {
	r.add(0, s)
}

func (r *Recorder) add(tick uint64, s *physics.Simulation) {
	if r.maxFrames > 0 && len(r.frames) >= r.maxFrames {
		r.dropped++
		return
	}
	r.frames = append(r.frames, Frame{
		Tick:   tick,
		Seed:   s.Seed(),
		Bodies: s.CloneBodies(),
	})
}

func (r *Recorder) Frames() []Frame { return r.frames }
func (r *Recorder) Dropped() int    { return r.dropped }
