package main

import (
	"os"
	"strings"
	"testing"

	"github.com/intern-ship-it/new-chinese-sub016/internal/config"
)

func TestRunSetup_Project(t *testing.T) {
	t.Chdir(t.TempDir())
	setupFlags = setupOptions{
		project: true,
		apiURL:  "https://temple.example.com/api/v1",
		tenant:  "temple-9",
	}
	t.Cleanup(func() { setupFlags = setupOptions{} })

	if err := runSetup(setupCmd, nil); err != nil {
		t.Fatalf("runSetup() error = %v", err)
	}
	data, err := os.ReadFile(config.ProjectPath())
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "tenant: temple-9") {
		t.Errorf("config missing tenant:\n%s", data)
	}

	err = runSetup(setupCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second runSetup() error = %v, want already exists", err)
	}

	setupFlags.force = true
	if err := runSetup(setupCmd, nil); err != nil {
		t.Errorf("runSetup() with force error = %v", err)
	}
}

func TestRunSetup_RejectsBadURL(t *testing.T) {
	t.Chdir(t.TempDir())
	setupFlags = setupOptions{project: true, apiURL: "not a url"}
	t.Cleanup(func() { setupFlags = setupOptions{} })

	if err := runSetup(setupCmd, nil); err == nil {
		t.Error("runSetup() should reject an invalid api url")
	}
	if fileExists(config.ProjectPath()) {
		t.Error("config must not be written when invalid")
	}
}
