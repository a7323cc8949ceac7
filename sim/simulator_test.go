package sim_test

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
	"github.com/sarchlab/csim/trace"
)

func newSimulator(g cache.Geometry, opts ...sim.Option) *sim.Simulator {
	m, err := cache.New(g)
	Expect(err).NotTo(HaveOccurred())
	return sim.New(m, opts...)
}

func runText(s *sim.Simulator, text string) sim.Summary {
	sum, err := s.Run(trace.NewReader(strings.NewReader(text)))
	Expect(err).NotTo(HaveOccurred())
	Expect(sum.Check()).To(Succeed())
	return sum
}

type failingSource struct {
	records []trace.Record
	err     error
}

func (f *failingSource) Next() (trace.Record, error) {
	if len(f.records) == 0 {
		return trace.Record{}, f.err
	}
	rec := f.records[0]
	f.records = f.records[1:]
	return rec, nil
}

var _ = Describe("Simulator", func() {
	fullyAssociative := cache.Geometry{SetBits: 0, Associativity: 2, BlockBits: 0}

	It("should evict once a third tag arrives", func() {
		s := newSimulator(fullyAssociative)
		sum := runText(s, " L 0,1\n L 8,1\n L 16,1\n")
		Expect(sum.Hits).To(Equal(uint64(0)))
		Expect(sum.Misses).To(Equal(uint64(3)))
		Expect(sum.Evictions).To(Equal(uint64(1)))
	})

	It("should hit on tag reuse", func() {
		s := newSimulator(fullyAssociative)
		sum := runText(s, " L 0,1\n L 0,1\n")
		Expect(sum).To(Equal(sim.Summary{Hits: 1, Misses: 1, Accesses: 2}))
	})

	It("should count the store half of a modify as a hit", func() {
		s := newSimulator(cache.Geometry{SetBits: 1, Associativity: 1, BlockBits: 0})
		sum := runText(s, " M 0,1\n")
		Expect(sum).To(Equal(sim.Summary{Hits: 1, Misses: 1, Accesses: 1, Modifies: 1}))
	})

	It("should give a modify that hits two hits", func() {
		s := newSimulator(cache.Geometry{SetBits: 1, Associativity: 1, BlockBits: 0})
		sum := runText(s, " L 0,1\n M 0,1\n")
		Expect(sum.Hits).To(Equal(uint64(2)))
		Expect(sum.Misses).To(Equal(uint64(1)))
	})

	It("should reproduce the csim-ref yi.trace result", func() {
		yi := ` L 10,1
 M 20,1
 L 22,1
 S 18,1
 L 110,1
 L 210,1
 M 12,1
`
		s := newSimulator(cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 4})
		sum := runText(s, yi)
		Expect(sum.Hits).To(Equal(uint64(4)))
		Expect(sum.Misses).To(Equal(uint64(5)))
		Expect(sum.Evictions).To(Equal(uint64(3)))
	})

	It("should neither classify nor clock instruction fetches", func() {
		s := newSimulator(fullyAssociative)
		sum := runText(s, "I 0,4\n L 0,1\nI 8,4\nI 16,4\n L 8,1\n")
		Expect(sum.Accesses).To(Equal(uint64(2)))
		Expect(s.Clock()).To(Equal(uint64(2)))

		_, ok := s.Step(trace.Record{Op: trace.Instruction, Address: 0x40})
		Expect(ok).To(BeFalse())
		Expect(s.Clock()).To(Equal(uint64(2)))

		c := s.Model().(*cache.Cache)
		Expect(c.Set(0)[0].LastUsed).To(Equal(uint64(1)))
		Expect(c.Set(0)[1].LastUsed).To(Equal(uint64(2)))
	})

	It("should stamp each result with the logical time", func() {
		s := newSimulator(fullyAssociative)
		for i := uint64(1); i <= 3; i++ {
			res, ok := s.Step(trace.Record{Op: trace.Store, Address: i * 8, Size: 1})
			Expect(ok).To(BeTrue())
			Expect(res.Time).To(Equal(i))
			Expect(res.ExtraHit).To(BeFalse())
		}
	})

	It("should notify observers in order", func() {
		var seen []string
		s := newSimulator(fullyAssociative,
			sim.WithObserver(sim.ObserverFunc(func(r sim.Result) {
				seen = append(seen, "a:"+r.Outcome.String())
			})),
			sim.WithObserver(sim.ObserverFunc(func(r sim.Result) {
				seen = append(seen, "b:"+r.Outcome.String())
			})),
		)

		runText(s, " L 0,1\n L 0,1\n")
		Expect(seen).To(Equal([]string{"a:miss", "b:miss", "a:hit", "b:hit"}))
	})

	It("should return the partial summary when the source fails", func() {
		boom := errors.New("boom")
		s := newSimulator(fullyAssociative)
		sum, err := s.Run(&failingSource{
			records: []trace.Record{{Op: trace.Load, Address: 0}, {Op: trace.Load, Address: 0}},
			err:     boom,
		})
		Expect(err).To(MatchError(boom))
		Expect(sum).To(Equal(sim.Summary{Hits: 1, Misses: 1, Accesses: 2}))
	})

	It("should stop at a malformed record", func() {
		s := newSimulator(fullyAssociative)
		sum, err := s.Run(trace.NewReader(strings.NewReader(" L 0,1\n L nope\n L 8,1\n")))
		Expect(err).To(MatchError(trace.ErrMalformedRecord))
		Expect(sum.Accesses).To(Equal(uint64(1)))
	})

	It("should run in-memory traces", func() {
		s := newSimulator(fullyAssociative)
		sum := s.RunRecords([]trace.Record{
			{Op: trace.Load, Address: 0},
			{Op: trace.Instruction, Address: 4},
			{Op: trace.Modify, Address: 0},
		})
		Expect(sum).To(Equal(sim.Summary{Hits: 2, Misses: 1, Accesses: 2, Modifies: 1}))
	})

	It("should keep the counter identities on random traces", func() {
		ops := []trace.Op{trace.Load, trace.Store, trace.Modify, trace.Instruction}
		r := rand.New(rand.NewPCG(21, 42))

		for _, g := range []cache.Geometry{
			{SetBits: 0, Associativity: 1, BlockBits: 0},
			{SetBits: 2, Associativity: 2, BlockBits: 2},
			{SetBits: 4, Associativity: 4, BlockBits: 4},
		} {
			var records []trace.Record
			var data uint64
			for i := 0; i < 3000; i++ {
				op := ops[r.IntN(len(ops))]
				if op.IsData() {
					data++
				}
				records = append(records, trace.Record{Op: op, Address: r.Uint64N(0x800), Size: 4})
			}

			s := newSimulator(g)
			sum := s.RunRecords(records)
			Expect(sum.Check()).To(Succeed(), "geometry %s", g)
			Expect(sum.Accesses).To(Equal(data))
			Expect(s.Clock()).To(Equal(data))
			Expect(sum.Evictions).To(BeNumerically("<=", sum.Misses))
		}
	})
})

var _ = Describe("Summary", func() {
	It("should compute the hit rate", func() {
		Expect(sim.Summary{}.HitRate()).To(BeZero())
		Expect(sim.Summary{Hits: 3, Misses: 1}.HitRate()).To(BeNumerically("~", 0.75))
	})

	It("should reject impossible counters", func() {
		Expect(sim.Summary{Misses: 1, Evictions: 2, Accesses: 1}.Check()).NotTo(Succeed())
		Expect(sim.Summary{Hits: 2, Accesses: 1}.Check()).NotTo(Succeed())
	})
})

var _ = Describe("VerboseObserver", func() {
	It("should print csim-ref style lines", func() {
		var buf bytes.Buffer
		s := newSimulator(cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 4},
			sim.WithObserver(sim.VerboseObserver(&buf)))

		runText(s, " L 10,1\n M 20,1\n L 22,1\n S 18,1\n L 110,1\n L 210,1\n M 12,1\n")

		Expect(buf.String()).To(Equal(strings.Join([]string{
			"L 10,1 miss",
			"M 20,1 miss hit",
			"L 22,1 hit",
			"S 18,1 hit",
			"L 110,1 miss eviction",
			"L 210,1 miss eviction",
			"M 12,1 miss eviction hit",
		}, "\n") + "\n"))
	})

	It("should render the address in hex", func() {
		var buf bytes.Buffer
		sim.VerboseObserver(&buf).Observe(sim.Result{
			Record:  trace.Record{Op: trace.Load, Address: 0xABC, Size: 8},
			Outcome: cache.Hit,
		})
		Expect(buf.String()).To(Equal(fmt.Sprintf("L %x,8 hit\n", 0xABC)))
	})
})
