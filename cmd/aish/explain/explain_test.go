package explaincmder_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	explaincmder "github.com/papercomputeco/aish/cmd/aish/explain"
	testutils "github.com/papercomputeco/aish/pkg/utils/test"
)

var _ = Describe("Explain command execution", func() {
	var (
		tmpDir  string
		origDir string
		server  *testutils.MockCompletionServer
		stdout  bytes.Buffer
		stderr  bytes.Buffer
	)

	execute := func(stdin string, args ...string) error {
		cmd := explaincmder.NewExplainCmd()
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs(append([]string{"--key", "k", "--endpoint", server.Endpoint()}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "aish-explain-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		Expect(os.MkdirAll(filepath.Join(tmpDir, ".aish"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		server = testutils.NewMockCompletionServer(testutils.Answer("Deletes logs ", "older than a week."))
		stdout.Reset()
		stderr.Reset()
	})

	AfterEach(func() {
		server.Close()
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("streams the explanation of the script in the arguments", func() {
		Expect(execute("", "find", ".", "-mtime", "+7", "-delete")).To(Succeed())
		Expect(stdout.String()).To(Equal("Deletes logs older than a week.\n"))
		Expect(server.Queries()[0]).To(ContainSubstring("find . -mtime +7 -delete"))
	})

	It("keeps script options that collide with its own flags", func() {
		Expect(execute("", "--markdown", "sort", "-m", "-k", "2", "a.txt")).To(Succeed())
		Expect(server.Queries()[0]).To(ContainSubstring("sort -m -k 2 a.txt"))
		Expect(stderr.String()).To(ContainSubstring("Explaining script"))
	})

	It("reads the script from input", func() {
		Expect(execute("rm -rf ./tmp\n")).To(Succeed())
		Expect(server.Queries()[0]).To(ContainSubstring("rm -rf ./tmp"))
	})

	It("writes the requested language into the prompt", func() {
		Expect(execute("", "--language", "fr", "ls")).To(Succeed())
		Expect(server.Queries()[0]).To(ContainSubstring("French"))
	})

	It("fails without a script", func() {
		Expect(execute("")).To(MatchError(ContainSubstring("no script")))
	})

	It("renders markdown once the answer is complete", func() {
		Expect(execute("", "--markdown", "ls")).To(Succeed())
		Expect(stdout.String()).To(ContainSubstring("older than a week"))
		Expect(stderr.String()).To(ContainSubstring("Explaining script"))
	})
})
