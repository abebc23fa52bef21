package configcmder_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/openhemicycle/hemicycle/cmd/hemicycle/config"
)

func TestConfigCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Command Suite")
}

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "hemicycle-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .hemicycle dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".hemicycle"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	newCmd := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("sets and gets a value round-trip", func() {
		Expect(newCmd("set", "classifier.provider", "anthropic")).To(Succeed())
		Expect(newCmd("get", "classifier.provider")).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".hemicycle", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`provider = "anthropic"`))
	})

	It("rejects setting an unknown key", func() {
		Expect(newCmd("set", "bogus.key", "x")).To(HaveOccurred())
	})

	It("rejects getting an unknown key", func() {
		Expect(newCmd("get", "bogus.key")).To(HaveOccurred())
	})

	It("lists configuration without error", func() {
		Expect(newCmd("list")).To(Succeed())
	})
})
