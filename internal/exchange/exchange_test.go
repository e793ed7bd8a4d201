package exchange_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/orbitsim/internal/exchange"
	"github.com/san-kum/orbitsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ = Describe("Exchange", func() {
	var ex *exchange.Exchange

	BeforeEach(func() {
		ex = exchange.New()
	})

	Describe("snapshots", func() {
		It("reports no snapshot before the first publish", func() {
			_, ok := ex.Snapshot()
			Expect(ok).To(BeFalse())
		})

		It("returns the most recently published bodies", func() {
			sim := physics.New(3)
			ex.Publish(3, 1, sim.Bodies)
			sim.Update()
			ex.Publish(3, 2, sim.Bodies)

			snap, ok := ex.Snapshot()
			Expect(ok).To(BeTrue())
			Expect(snap.Seed).To(Equal(uint64(3)))
			Expect(snap.Tick).To(Equal(uint64(2)))
			Expect(snap.Bodies).To(Equal(sim.Bodies))
		})

		It("is isolated from the publisher's slice", func() {
			bodies := physics.New(3).CloneBodies()
			ex.Publish(3, 1, bodies)
			bodies[0].Pos = r2.Vec{X: 42}

			snap, _ := ex.Snapshot()
			Expect(snap.Bodies[0].Pos).NotTo(Equal(r2.Vec{X: 42}))
		})

		It("is isolated from other readers", func() {
			ex.Publish(3, 1, physics.New(3).Bodies)

			first, _ := ex.Snapshot()
			first.Bodies[1].Mass = -1

			second, _ := ex.Snapshot()
			Expect(second.Bodies[1].Mass).To(Equal(1.0))
		})

		It("never exposes a torn body list under concurrent access", func() {
			a := physics.New(1).CloneBodies()
			b := physics.New(2).CloneBodies()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 2000; i++ {
					if i%2 == 0 {
						ex.Publish(1, uint64(i), a)
					} else {
						ex.Publish(2, uint64(i), b)
					}
				}
			}()

			for i := 0; i < 2000; i++ {
				snap, ok := ex.Snapshot()
				if !ok {
					continue
				}
				if snap.Seed == 1 {
					Expect(snap.Bodies).To(Equal(a))
				} else {
					Expect(snap.Bodies).To(Equal(b))
				}
			}
			wg.Wait()
		})
	})

	Describe("tick counter", func() {
		It("increments monotonically and can be reset by the consumer", func() {
			Expect(ex.IncTick()).To(Equal(uint64(1)))
			Expect(ex.IncTick()).To(Equal(uint64(2)))
			Expect(ex.Tick()).To(Equal(uint64(2)))

			ex.ResetTick()
			Expect(ex.Tick()).To(BeZero())
			Expect(ex.IncTick()).To(Equal(uint64(1)))
		})
	})

	Describe("reseed slot", func() {
		It("is empty initially", func() {
			_, ok := ex.TakeReseed()
			Expect(ok).To(BeFalse())
		})

		It("hands a request out exactly once", func() {
			ex.RequestReseed(7)

			seed, ok := ex.TakeReseed()
			Expect(ok).To(BeTrue())
			Expect(seed).To(Equal(uint64(7)))

			_, ok = ex.TakeReseed()
			Expect(ok).To(BeFalse())
		})

		It("keeps only the newest unconsumed request", func() {
			ex.RequestReseed(7)
			ex.RequestReseed(8)

			seed, ok := ex.TakeReseed()
			Expect(ok).To(BeTrue())
			Expect(seed).To(Equal(uint64(8)))
		})

		It("accepts seed zero", func() {
			ex.RequestReseed(0)
			seed, ok := ex.TakeReseed()
			Expect(ok).To(BeTrue())
			Expect(seed).To(BeZero())
		})

		It("resets the tick counter on Reseed", func() {
			ex.IncTick()
			ex.IncTick()
			ex.Reseed(11)

			Expect(ex.Tick()).To(BeZero())
			seed, ok := ex.TakeReseed()
			Expect(ok).To(BeTrue())
			Expect(seed).To(Equal(uint64(11)))
		})
	})

	Describe("pause flag", func() {
		It("toggles", func() {
			Expect(ex.Paused()).To(BeFalse())
			Expect(ex.TogglePause()).To(BeTrue())
			Expect(ex.Paused()).To(BeTrue())
			Expect(ex.TogglePause()).To(BeFalse())

			ex.SetPaused(true)
			Expect(ex.Paused()).To(BeTrue())
		})
	})
})
