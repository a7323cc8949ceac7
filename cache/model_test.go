package cache_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
)

var _ = Describe("Model", func() {
	Describe("ParseKind", func() {
		It("should accept every known kind", func() {
			for _, k := range cache.Kinds() {
				parsed, err := cache.ParseKind(" " + string(k) + " ")
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(k))
			}
		})

		It("should be case insensitive", func() {
			Expect(cache.ParseKind("AKITA")).To(Equal(cache.KindAkita))
		})

		It("should reject unknown kinds", func() {
			_, err := cache.ParseKind("plru")
			Expect(err).To(MatchError(cache.ErrUnknownModel))
		})
	})

	It("should default to the table model", func() {
		m, err := cache.NewModel("", cache.Geometry{SetBits: 1, Associativity: 1, BlockBits: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(BeAssignableToTypeOf(&cache.Cache{}))
	})

	It("should refuse an unknown kind", func() {
		_, err := cache.NewModel("nope", cache.Geometry{SetBits: 1, Associativity: 1, BlockBits: 1})
		Expect(err).To(MatchError(cache.ErrUnknownModel))
	})

	It("should refuse geometries akita cannot size", func() {
		_, err := cache.NewModel(cache.KindAkita, cache.Geometry{SetBits: 0, Associativity: 1, BlockBits: 63})
		Expect(err).To(MatchError(cache.ErrUnsupportedGeometry))
	})

	DescribeTable("every kind should validate the geometry",
		func(kind cache.Kind) {
			_, err := cache.NewModel(kind, cache.Geometry{SetBits: 1, Associativity: 0, BlockBits: 1})
			Expect(err).To(MatchError(cache.ErrInvalidGeometry))
		},
		Entry("table", cache.KindTable),
		Entry("list", cache.KindList),
		Entry("akita", cache.KindAkita),
	)

	DescribeTable("every kind should classify like the table",
		func(g cache.Geometry, span uint64, seed uint64) {
			models := map[cache.Kind]cache.Model{}
			for _, k := range cache.Kinds() {
				m, err := cache.NewModel(k, g)
				Expect(err).NotTo(HaveOccurred())
				Expect(m.Geometry()).To(Equal(g))
				models[k] = m
			}

			r := rand.New(rand.NewPCG(seed, seed+1))
			for now := uint64(1); now <= 5000; now++ {
				addr := r.Uint64N(span)
				want := models[cache.KindTable].Access(addr, now)

				for _, k := range []cache.Kind{cache.KindList, cache.KindAkita} {
					Expect(models[k].Access(addr, now)).To(Equal(want),
						"kind %s, access %d, address %#x", k, now, addr)
				}
			}
		},
		Entry("direct mapped", cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 4}, uint64(0x2000), uint64(1)),
		Entry("two way", cache.Geometry{SetBits: 2, Associativity: 2, BlockBits: 3}, uint64(0x400), uint64(2)),
		Entry("fully associative", cache.Geometry{SetBits: 0, Associativity: 8, BlockBits: 2}, uint64(0x100), uint64(3)),
		Entry("wide sets", cache.Geometry{SetBits: 3, Associativity: 16, BlockBits: 6}, uint64(0x40000), uint64(4)),
		Entry("byte blocks", cache.Geometry{SetBits: 5, Associativity: 4, BlockBits: 0}, uint64(0x1000), uint64(5)),
	)

	DescribeTable("every kind should start over after reset",
		func(kind cache.Kind) {
			m, err := cache.NewModel(kind, cache.Geometry{SetBits: 1, Associativity: 2, BlockBits: 2})
			Expect(err).NotTo(HaveOccurred())

			Expect(m.Access(0x10, 1)).To(Equal(cache.MissFill))
			Expect(m.Access(0x10, 2)).To(Equal(cache.Hit))
			m.Reset()
			Expect(m.Access(0x10, 3)).To(Equal(cache.MissFill))
		},
		Entry("table", cache.KindTable),
		Entry("list", cache.KindList),
		Entry("akita", cache.KindAkita),
	)
})
