package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

// GetWorkloads returns the standard set of synthetic workloads. Each one
// targets a specific cache behavior.
func GetWorkloads() []Workload {
	return []Workload{
		sequentialSweep(),
		stridedConflict(),
		thrash(),
		randomAccess(),
		matrixTranspose(),
		modifyHeavy(),
	}
}

// GetCoreWorkloads returns a small set for quick validation.
func GetCoreWorkloads() []Workload {
	return []Workload{
		sequentialSweep(),
		thrash(),
		matrixTranspose(),
	}
}

// 1. Sequential sweep - spatial locality, one miss per block
func sequentialSweep() Workload {
	return Workload{
		Name:        "sequential_sweep",
		Description: "4-byte loads over 1 KiB - one compulsory miss per 16-byte block",
		Geometry:    cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 4},
		Records: func() []trace.Record {
			var recs []trace.Record
			for addr := uint64(0); addr < 1024; addr += 4 {
				recs = append(recs, load(addr, 4))
			}
			return recs
		},
	}
}

// 2. Strided conflict - one access per block, blocks spread over every set
func stridedConflict() Workload {
	return Workload{
		Name:        "strided_conflict",
		Description: "64-byte stride over 16 KiB, four passes - capacity misses in an 8 KiB cache",
		Geometry:    cache.Geometry{SetBits: 5, Associativity: 4, BlockBits: 6},
		Records: func() []trace.Record {
			var recs []trace.Record
			for pass := 0; pass < 4; pass++ {
				for addr := uint64(0); addr < 16*1024; addr += 64 {
					recs = append(recs, load(addr, 8))
				}
			}
			return recs
		},
	}
}

// 3. Thrash - one more tag than ways, cycled through a single set
func thrash() Workload {
	g := cache.Geometry{SetBits: 3, Associativity: 4, BlockBits: 5}
	stride := g.NumSets() * g.BlockSize()

	return Workload{
		Name:        "thrash",
		Description: "E+1 tags cycled through set 0 - LRU misses on every access",
		Geometry:    g,
		Records: func() []trace.Record {
			var recs []trace.Record
			for round := 0; round < 10; round++ {
				for i := 0; i <= g.Associativity; i++ {
					recs = append(recs, load(uint64(i)*stride, 8))
				}
			}
			return recs
		},
	}
}

// 4. Random - seeded uniform mix of loads, stores, and modifies
func randomAccess() Workload {
	return Workload{
		Name:        "random",
		Description: "10000 seeded random accesses over 64 KiB",
		Geometry:    cache.Geometry{SetBits: 6, Associativity: 2, BlockBits: 5},
		Records: func() []trace.Record {
			rng := rand.New(rand.NewPCG(1, 2))
			ops := []trace.Op{trace.Load, trace.Store, trace.Modify}

			recs := make([]trace.Record, 0, 10000)
			for i := 0; i < 10000; i++ {
				recs = append(recs, trace.Record{
					Op:      ops[rng.IntN(len(ops))],
					Address: rng.Uint64N(64 * 1024),
					Size:    8,
				})
			}
			return recs
		},
	}
}

// 5. Matrix transpose - naive 32x32 int transpose in a direct-mapped 1 KiB cache
func matrixTranspose() Workload {
	const (
		n     = 32
		baseA = uint64(0x10c080)
		baseB = uint64(0x14c080)
	)

	return Workload{
		Name:        "matrix_transpose",
		Description: "naive B[j][i] = A[i][j] for 32x32 ints - diagonal conflicts between A and B",
		Geometry:    cache.Geometry{SetBits: 5, Associativity: 1, BlockBits: 5},
		Records: func() []trace.Record {
			recs := make([]trace.Record, 0, 2*n*n)
			for i := uint64(0); i < n; i++ {
				for j := uint64(0); j < n; j++ {
					recs = append(recs,
						load(baseA+4*(i*n+j), 4),
						trace.Record{Op: trace.Store, Address: baseB + 4*(j*n+i), Size: 4},
					)
				}
			}
			return recs
		},
	}
}

// 6. Modify heavy - read-modify-write over a sliding window
func modifyHeavy() Workload {
	return Workload{
		Name:        "modify_heavy",
		Description: "M accesses over a window sliding through 2 KiB",
		Geometry:    cache.Geometry{SetBits: 2, Associativity: 2, BlockBits: 3},
		Records: func() []trace.Record {
			var recs []trace.Record
			for base := uint64(0); base < 2048; base += 16 {
				for off := uint64(0); off < 64; off += 8 {
					recs = append(recs, trace.Record{
						Op: trace.Modify, Address: base + off, Size: 8,
					})
				}
			}
			return recs
		},
	}
}

func load(addr, size uint64) trace.Record {
	return trace.Record{Op: trace.Load, Address: addr, Size: size}
}
