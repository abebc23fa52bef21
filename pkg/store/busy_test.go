package store

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// busyErr mimics the driver's SQLITE_BUSY error surface.
type busyErr struct{}

func (busyErr) Error() string { return "database is locked (5) (SQLITE_BUSY)" }
func (busyErr) Code() int     { return 5 }

var _ = Describe("retryBusy", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("retries a busy writer until it succeeds", func() {
		attempts := 0
		err := retryBusy(ctx, time.Millisecond, func() error {
			attempts++
			if attempts < 3 {
				return busyErr{}
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(attempts).To(Equal(3))
	})

	It("returns non-busy errors unchanged after one attempt", func() {
		boom := errors.New("constraint failed")
		attempts := 0
		err := retryBusy(ctx, time.Millisecond, func() error {
			attempts++
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(attempts).To(Equal(1))
	})

	It("yields ErrBusy after exhausting the retry budget", func() {
		attempts := 0
		err := retryBusy(ctx, time.Millisecond, func() error {
			attempts++
			return busyErr{}
		})
		Expect(err).To(MatchError(ErrBusy))
		Expect(attempts).To(Equal(busyRetryAttempts))
	})

	It("honors cancellation while backing off", func() {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		err := retryBusy(cancelCtx, time.Hour, func() error {
			return busyErr{}
		})
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("nextBusyDelay", func() {
	It("doubles up to the cap and then holds", func() {
		delay := busyRetryInitialBackoff
		Expect(delay).To(Equal(1600 * time.Millisecond))

		delay = nextBusyDelay(delay)
		Expect(delay).To(Equal(3200 * time.Millisecond))

		delay = nextBusyDelay(delay)
		Expect(delay).To(Equal(6400 * time.Millisecond))

		delay = nextBusyDelay(delay)
		Expect(delay).To(Equal(busyRetryMaxBackoff))

		Expect(nextBusyDelay(delay)).To(Equal(busyRetryMaxBackoff))
	})
})

var _ = Describe("isBusy", func() {
	It("recognizes the driver's busy code", func() {
		Expect(isBusy(busyErr{})).To(BeTrue())
	})

	It("recognizes busy and locked message text", func() {
		Expect(isBusy(errors.New("stmt: SQLITE_BUSY"))).To(BeTrue())
		Expect(isBusy(errors.New("database is locked"))).To(BeTrue())
	})

	It("passes other errors through", func() {
		Expect(isBusy(nil)).To(BeFalse())
		Expect(isBusy(errors.New("no such table"))).To(BeFalse())
	})
})
