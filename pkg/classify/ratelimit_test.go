package classify

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeClock drives the limiter deterministically: sleeps advance the clock
// instead of blocking.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func newTestLimiter(rpm int) (*rateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 7, 16, 9, 0, 0, 0, time.UTC)}
	l := newRateLimiter(rpm)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

var _ = Describe("rateLimiter", func() {
	It("spaces consecutive requests by the minimum gap", func() {
		l, clock := newTestLimiter(60) // one request per second

		Expect(l.wait(context.Background())).To(Succeed())
		Expect(clock.sleeps).To(BeEmpty())

		Expect(l.wait(context.Background())).To(Succeed())
		Expect(clock.sleeps).To(HaveLen(1))
		Expect(clock.sleeps[0]).To(Equal(time.Second))
	})

	It("passes immediately when the gap has already elapsed", func() {
		l, clock := newTestLimiter(60)

		Expect(l.wait(context.Background())).To(Succeed())
		clock.now = clock.now.Add(2 * time.Second)

		Expect(l.wait(context.Background())).To(Succeed())
		Expect(clock.sleeps).To(BeEmpty())
	})

	It("parks until the minute boundary at 90% of the ceiling", func() {
		l, clock := newTestLimiter(10) // ceiling kicks in at 9 requests

		for range 9 {
			Expect(l.wait(context.Background())).To(Succeed())
		}
		Expect(l.BoundarySleeps()).To(BeZero())

		start := clock.now
		Expect(l.wait(context.Background())).To(Succeed())
		Expect(l.BoundarySleeps()).To(Equal(1))
		// The tenth request lands in the next wall-clock minute.
		Expect(clock.now.Truncate(time.Minute).After(start.Truncate(time.Minute))).To(BeTrue())
	})

	It("resets the counter when the minute rolls over", func() {
		l, clock := newTestLimiter(10)

		for range 9 {
			Expect(l.wait(context.Background())).To(Succeed())
		}

		clock.now = clock.now.Add(time.Minute)
		Expect(l.wait(context.Background())).To(Succeed())
		Expect(l.BoundarySleeps()).To(BeZero())
	})

	It("is a no-op for a non-positive rpm", func() {
		l, clock := newTestLimiter(0)

		for range 100 {
			Expect(l.wait(context.Background())).To(Succeed())
		}
		Expect(clock.sleeps).To(BeEmpty())
	})

	It("honors context cancellation while sleeping", func() {
		l, _ := newTestLimiter(60)
		l.sleep = sleepContext // real sleep so cancellation can interrupt

		ctx, cancel := context.WithCancel(context.Background())
		Expect(l.wait(ctx)).To(Succeed())

		cancel()
		Expect(l.wait(ctx)).To(MatchError(context.Canceled))
	})
})
