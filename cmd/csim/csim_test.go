package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const yiTrace = ` L 10,1
 M 20,1
 L 22,1
 S 18,1
 L 110,1
 L 210,1
 M 12,1
`

var _ = Describe("csim", func() {
	var (
		dir     string
		tr      string
		results string
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		tr = filepath.Join(dir, "yi.trace")
		results = filepath.Join(dir, ".csim_results")
		Expect(os.WriteFile(tr, []byte(yiTrace), 0o644)).To(Succeed())

		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
	})

	csim := func(args ...string) int {
		args = append([]string{"--results-file", results}, args...)
		return execute(args, stdout, stderr)
	}

	It("should print the summary and write the results file", func() {
		Expect(csim("-s", "4", "-E", "1", "-b", "4", "-t", tr)).To(Equal(0))
		Expect(stdout.String()).To(Equal("hits:4 misses:5 evictions:3\n"))

		data, err := os.ReadFile(results)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("4 5 3\n"))
	})

	It("should print every access in verbose mode", func() {
		Expect(csim("-v", "-s", "4", "-E", "1", "-b", "4", "-t", tr)).To(Equal(0))
		Expect(stdout.String()).To(Equal(`L 10,1 miss
M 20,1 miss hit
L 22,1 hit
S 18,1 hit
L 110,1 miss eviction
L 210,1 miss eviction
M 12,1 miss eviction hit
hits:4 misses:5 evictions:3
`))
	})

	It("should accept long flag names", func() {
		Expect(csim("--set-bits=4", "--associativity=1", "--block-bits=4",
			"--trace", tr)).To(Equal(0))
		Expect(stdout.String()).To(Equal("hits:4 misses:5 evictions:3\n"))
	})

	It("should agree across models", func() {
		for _, model := range []string{"table", "list", "akita"} {
			stdout.Reset()
			Expect(csim("--model", model, "-s", "1", "-E", "2", "-b", "4", "-t", tr)).To(Equal(0))
			Expect(stdout.String()).To(Equal("hits:4 misses:5 evictions:2\n"), model)
		}
	})

	It("should print a JSON report", func() {
		Expect(csim("--format", "json", "-s", "4", "-E", "1", "-b", "4", "-t", tr)).To(Equal(0))

		var report struct {
			RunID     string `json:"run_id"`
			Hits      uint64 `json:"hits"`
			Misses    uint64 `json:"misses"`
			Evictions uint64 `json:"evictions"`
			Model     string `json:"model"`
		}
		Expect(json.Unmarshal(stdout.Bytes(), &report)).To(Succeed())
		Expect(report.RunID).NotTo(BeEmpty())
		Expect(report.Hits).To(Equal(uint64(4)))
		Expect(report.Misses).To(Equal(uint64(5)))
		Expect(report.Evictions).To(Equal(uint64(3)))
		Expect(report.Model).To(Equal("table"))
	})

	It("should record every access", func() {
		rec := filepath.Join(dir, "run.csv")
		Expect(csim("--record", rec, "-s", "4", "-E", "1", "-b", "4", "-t", tr)).To(Equal(0))

		data, err := os.ReadFile(rec)
		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		Expect(lines).To(HaveLen(8))
		Expect(lines[7]).To(HavePrefix("7,7,M,0x12,1,1,0x0,miss eviction,true"))
	})

	It("should read settings from the environment", func() {
		GinkgoT().Setenv("CSIM_SET_BITS", "4")
		GinkgoT().Setenv("CSIM_ASSOCIATIVITY", "1")
		GinkgoT().Setenv("CSIM_BLOCK_BITS", "4")
		GinkgoT().Setenv("CSIM_TRACE", tr)

		Expect(csim()).To(Equal(0))
		Expect(stdout.String()).To(Equal("hits:4 misses:5 evictions:3\n"))
	})

	It("should read settings from a config file", func() {
		cfg := filepath.Join(dir, "csim.yaml")
		Expect(os.WriteFile(cfg, []byte("set-bits: 4\nassociativity: 1\nblock-bits: 4\n"), 0o644)).
			To(Succeed())

		Expect(csim("--config", cfg, "-t", tr)).To(Equal(0))
		Expect(stdout.String()).To(Equal("hits:4 misses:5 evictions:3\n"))
	})

	It("should print the usage for -h", func() {
		Expect(csim("-h")).To(Equal(0))
		Expect(stdout.String()).To(HavePrefix("Usage: csim [-hv] -s <num> -E <num> -b <num> -t <file>"))
	})

	It("should fail with the usage when arguments are missing", func() {
		Expect(csim("-s", "4", "-b", "4")).To(Equal(1))
		Expect(stdout.String()).To(BeEmpty())
		Expect(stderr.String()).To(HavePrefix(
			"csim: Missing required command line argument (-E, -t)\nUsage: csim"))
		Expect(results).NotTo(BeAnExistingFile())
	})

	It("should fail with the usage on an unknown flag", func() {
		Expect(csim("-x")).To(Equal(1))
		Expect(stderr.String()).To(ContainSubstring("Usage: csim"))
	})

	It("should fail on an invalid geometry", func() {
		Expect(csim("-s", "4", "-E", "0", "-b", "4", "-t", tr)).To(Equal(1))
		Expect(stdout.String()).To(BeEmpty())
		Expect(stderr.String()).To(ContainSubstring("invalid cache geometry"))
		Expect(stderr.String()).NotTo(ContainSubstring("Usage"))
	})

	It("should fail when the line count overflows", func() {
		Expect(csim("-s", "2", "-E", "4611686018427387904", "-b", "0", "-t", tr)).To(Equal(1))
		Expect(stdout.String()).To(BeEmpty())
		Expect(stderr.String()).To(ContainSubstring("invalid cache geometry"))
	})

	It("should fail on a non-numeric setting from the environment", func() {
		GinkgoT().Setenv("CSIM_SET_BITS", "abc")

		Expect(csim("-E", "1", "-b", "4", "-t", tr)).To(Equal(1))
		Expect(stdout.String()).To(BeEmpty())
		Expect(stderr.String()).To(ContainSubstring("invalid configuration"))
	})

	It("should fail on a missing trace", func() {
		Expect(csim("-s", "4", "-E", "1", "-b", "4", "-t", filepath.Join(dir, "nope"))).To(Equal(1))
		Expect(stdout.String()).To(BeEmpty())
		Expect(stderr.String()).To(ContainSubstring("trace unreadable"))
	})

	It("should fail on a malformed trace without printing a summary", func() {
		Expect(os.WriteFile(tr, []byte(" L 10,1\n Q 20,1\n"), 0o644)).To(Succeed())

		Expect(csim("-s", "4", "-E", "1", "-b", "4", "-t", tr)).To(Equal(1))
		Expect(stdout.String()).To(BeEmpty())
		Expect(stderr.String()).To(ContainSubstring("line 2"))
		Expect(results).NotTo(BeAnExistingFile())
	})
})
