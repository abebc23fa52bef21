package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var (
		origHome string
		origXDG  string
		origDB   string
		origSQ   string
		origCwd  string
	)

	BeforeEach(func() {
		origHome = os.Getenv("HOME")
		origXDG = os.Getenv("XDG_DATA_HOME")
		origDB = os.Getenv("HEMICYCLE_DB")
		origSQ = os.Getenv("HEMICYCLE_SQLITE")
		var err error
		origCwd, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.Setenv("HOME", origHome)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", origXDG)).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_DB", origDB)).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_SQLITE", origSQ)).To(Succeed())
		Expect(os.Chdir(origCwd)).To(Succeed())
	})

	It("prefers the explicit override", func() {
		path, err := ResolveSQLitePath("/tmp/override.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/override.db"))
	})

	It("prefers HEMICYCLE_SQLITE when set", func() {
		Expect(os.Setenv("HEMICYCLE_SQLITE", "/tmp/custom.db")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_DB", "")).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("falls back to HEMICYCLE_DB", func() {
		Expect(os.Setenv("HEMICYCLE_SQLITE", "")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_DB", "/tmp/fallback.db")).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/fallback.db"))
	})

	It("resolves ~/.hemicycle/hemicycle.db when present", func() {
		homeDir, err := os.MkdirTemp("", "hemicycle-home-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(homeDir)
		})

		tmpDir, err := os.MkdirTemp("", "hemicycle-cwd-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(tmpDir)
		})

		Expect(os.Setenv("HOME", homeDir)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", "")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_SQLITE", "")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_DB", "")).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		dbDir := filepath.Join(homeDir, ".hemicycle")
		Expect(os.MkdirAll(dbDir, 0o755)).To(Succeed())
		dbPath := filepath.Join(dbDir, "hemicycle.db")
		Expect(os.WriteFile(dbPath, []byte{}, 0o600)).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(dbPath))
	})

	It("resolves a local hemicycle.db in the working directory", func() {
		homeDir, err := os.MkdirTemp("", "hemicycle-home-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(homeDir)
		})

		tmpDir, err := os.MkdirTemp("", "hemicycle-cwd-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(tmpDir)
		})

		Expect(os.Setenv("HOME", homeDir)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", "")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_SQLITE", "")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_DB", "")).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		Expect(os.WriteFile("hemicycle.db", []byte{}, 0o600)).To(Succeed())

		path, err := ResolveSQLitePath("")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("hemicycle.db"))
	})

	It("errors when no database can be found", func() {
		homeDir, err := os.MkdirTemp("", "hemicycle-home-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(homeDir)
		})

		tmpDir, err := os.MkdirTemp("", "hemicycle-cwd-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(tmpDir)
		})

		Expect(os.Setenv("HOME", homeDir)).To(Succeed())
		Expect(os.Setenv("XDG_DATA_HOME", "")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_SQLITE", "")).To(Succeed())
		Expect(os.Setenv("HEMICYCLE_DB", "")).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		_, err = ResolveSQLitePath("")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("--sqlite"))
	})
})
