package control_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidsim/internal/control"
	"github.com/san-kum/pidsim/internal/dynamo"
)

const tol = 1e-12

func mustCalculate(p *control.PID[float64], sp, pv, dt float64) float64 {
	GinkgoHelper()
	u, err := p.Calculate(sp, pv, dt)
	Expect(err).NotTo(HaveOccurred())
	return u
}

var _ = Describe("PID", func() {
	var pid *control.PID[float64]

	BeforeEach(func() {
		pid = control.NewPID(0.85, 0.15, 0.3)
		Expect(pid.SetOutputLimits(-5, 5)).To(Succeed())
	})

	It("matches the demo controller's first step", func() {
		Expect(mustCalculate(pid, 3.5, 0.0, 1.0)).To(BeNumerically("~", 4.55, tol))
	})

	It("records the unclamped error before clamping", func() {
		p := control.NewPID(10.0, 0, 0)
		Expect(p.SetOutputLimits(-1, 1)).To(Succeed())

		Expect(mustCalculate(p, 3, 0, 1)).To(Equal(1.0))
		Expect(p.PreviousError()).To(Equal(3.0))
	})

	It("uses a zero previous error on the first derivative", func() {
		p := control.NewPID(0, 0, 2.0)
		Expect(mustCalculate(p, 1, 0, 0.5)).To(BeNumerically("~", 4.0, tol))
		Expect(mustCalculate(p, 1, 0, 0.5)).To(BeNumerically("~", 0.0, tol))
	})

	DescribeTable("pure proportional response is stateless",
		func(kp, sp, pv float64) {
			p := control.NewPID(kp, 0, 0)
			Expect(p.SetOutputLimits(-5, 5)).To(Succeed())
			want := math.Max(-5, math.Min(5, kp*(sp-pv)))
			for i := 0; i < 5; i++ {
				Expect(mustCalculate(p, sp, pv, 0.1)).To(BeNumerically("~", want, tol))
			}
		},
		Entry("inside limits", 0.5, 2.0, 1.0),
		Entry("clamped high", 4.0, 3.0, 0.0),
		Entry("clamped low", 4.0, -3.0, 0.0),
		Entry("zero error", 7.0, 1.5, 1.5),
	)

	It("accumulates the integral linearly for a constant error", func() {
		p := control.NewPID(0, 0.5, 0)
		const e, dt = 2.0, 0.1
		for n := 1; n <= 20; n++ {
			u := mustCalculate(p, e, 0, dt)
			Expect(u).To(BeNumerically("~", 0.5*e*dt*float64(n), 1e-9))
		}
		Expect(p.Integral()).To(BeNumerically("~", 0.5*e*dt*20, 1e-9))
	})

	It("keeps integrating while the output is clamped", func() {
		p := control.NewPID[float64](0, 1, 0)
		Expect(p.SetOutputLimits(-1, 1)).To(Succeed())
		for i := 0; i < 10; i++ {
			Expect(mustCalculate(p, 1, 0, 1)).To(BeNumerically("<=", 1.0))
		}
		Expect(p.Integral()).To(BeNumerically("~", 10.0, tol))
	})

	It("behaves like a fresh controller after Reset", func() {
		inputs := [][2]float64{{3.5, 0}, {3.5, 1.2}, {0, 2.9}, {-3.5, 0.4}}
		for _, in := range inputs {
			mustCalculate(pid, in[0], in[1], 1)
		}
		pid.Reset()
		Expect(pid.Integral()).To(BeZero())
		Expect(pid.PreviousError()).To(BeZero())

		fresh := control.NewPID(0.85, 0.15, 0.3)
		Expect(fresh.SetOutputLimits(-5, 5)).To(Succeed())
		for _, in := range inputs {
			Expect(mustCalculate(pid, in[0], in[1], 1)).To(Equal(mustCalculate(fresh, in[0], in[1], 1)))
		}
	})

	It("keeps gains and limits across Reset", func() {
		pid.Reset()
		Expect(pid.Kp).To(Equal(0.85))
		lo, hi := pid.OutputLimits()
		Expect(lo).To(Equal(-5.0))
		Expect(hi).To(Equal(5.0))
	})

	It("never leaves the output limits", func() {
		for i := 0; i < 200; i++ {
			sp := 10 * math.Sin(float64(i)*0.37)
			pv := 7 * math.Cos(float64(i)*0.11)
			u := mustCalculate(pid, sp, pv, 0.25)
			Expect(u).To(And(BeNumerically(">=", -5.0), BeNumerically("<=", 5.0)))
		}
	})

	Context("with an invalid time step", func() {
		DescribeTable("rejects the step without touching state",
			func(dt float64) {
				mustCalculate(pid, 1, 0, 1)
				integral, prev := pid.Integral(), pid.PreviousError()

				_, err := pid.Calculate(2, 0, dt)
				Expect(err).To(MatchError(dynamo.ErrNonPositiveStep))
				Expect(pid.Integral()).To(Equal(integral))
				Expect(pid.PreviousError()).To(Equal(prev))
			},
			Entry("zero", 0.0),
			Entry("negative", -0.5),
			Entry("NaN", math.NaN()),
		)
	})

	Context("output limits", func() {
		It("defaults to the representable range", func() {
			p := control.NewPID(1.0, 0, 0)
			lo, hi := p.OutputLimits()
			Expect(lo).To(Equal(-math.MaxFloat64))
			Expect(hi).To(Equal(math.MaxFloat64))

			p32 := control.NewPID[float32](1, 0, 0)
			lo32, hi32 := p32.OutputLimits()
			Expect(lo32).To(Equal(float32(-math.MaxFloat32)))
			Expect(hi32).To(Equal(float32(math.MaxFloat32)))
		})

		It("rejects inverted or NaN bounds and keeps the previous ones", func() {
			Expect(pid.SetOutputLimits(2, 1)).To(MatchError(dynamo.ErrInvalidLimits))
			Expect(pid.SetOutputLimits(math.NaN(), 1)).To(MatchError(dynamo.ErrInvalidLimits))
			lo, hi := pid.OutputLimits()
			Expect(lo).To(Equal(-5.0))
			Expect(hi).To(Equal(5.0))
		})

		It("accepts a degenerate range", func() {
			Expect(pid.SetOutputLimits(1.5, 1.5)).To(Succeed())
			Expect(mustCalculate(pid, 100, 0, 1)).To(Equal(1.5))
		})
	})

	Context("live tuning", func() {
		It("exposes and updates gains", func() {
			Expect(pid.GetParams()).To(HaveKeyWithValue("kd", 0.3))
			Expect(pid.SetParam("ki", 0.4)).To(Succeed())
			Expect(pid.Ki).To(Equal(0.4))
			Expect(pid.SetParam("target", 1)).To(MatchError(dynamo.ErrUnknownParam))
		})
	})

	It("works with float32 elements", func() {
		p := control.NewPID[float32](0.85, 0.15, 0.3)
		Expect(p.SetOutputLimits(-5, 5)).To(Succeed())
		u, err := p.Calculate(3.5, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(u)).To(BeNumerically("~", 4.55, 1e-5))
	})
})

var _ = Describe("Manual", func() {
	It("holds its actuation regardless of error", func() {
		m := control.NewManual(1.0)
		for _, sp := range []float64{-3, 0, 3} {
			u, err := m.Calculate(sp, 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal(1.0))
		}
	})

	It("rejects a zero step", func() {
		_, err := control.NewManual(1.0).Calculate(0, 0, 0)
		Expect(err).To(MatchError(dynamo.ErrNonPositiveStep))
	})
})
