package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const failingReport = `<?xml version="1.0" encoding="UTF-8"?>
<robot generator="Robot 6.1.1">
<suite name="Shop">
  <test name="Home Page">
    <kw name="Open Browser"><status status="PASS"/></kw>
    <status status="PASS"/>
  </test>
  <test name="Login">
    <kw name="Click Element">
      <status status="FAIL">Element 'id=login' is not visible after 5 seconds.
Stacktrace: at org.openqa.selenium.Wait</status>
    </kw>
    <status status="FAIL"/>
  </test>
  <test name="Search">
    <kw name="Input Text">
      <status status="FAIL">Element with locator 'name=q' not found.</status>
    </kw>
    <status status="FAIL"/>
  </test>
  <test name="Checkout">
    <kw name="Wait For Page">
      <status status="FAIL">Timeout 30s exceeded waiting for checkout page</status>
    </kw>
    <status status="FAIL"/>
  </test>
</suite>
</robot>`

const passingReport = `<?xml version="1.0" encoding="UTF-8"?>
<robot><suite name="Shop">
  <test name="Home Page"><status status="PASS"/></test>
  <test name="About Page"><status status="PASS"/></test>
</suite></robot>`

// writeFile writes content to name inside a temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	// Keep history and config lookups away from the real home directory.
	t.Setenv("QATRIAGE_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
