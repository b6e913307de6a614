package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvLoaderDoesNotOverridePresetValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	content := "LIVEKIT_URL=ws://from-file:7880\nSIP_OUTBOUND_TRUNK_ID=ST_file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvLiveKitURL, "ws://from-env:7880")
	t.Setenv(EnvSIPTrunkID, "")
	os.Unsetenv(EnvSIPTrunkID)

	found, err := NewEnvLoader(path).Load()
	if err != nil || !found {
		t.Fatalf("Load() = %v, %v", found, err)
	}

	env := ReadEnvironment()
	if env.LiveKitURL != "ws://from-env:7880" {
		t.Errorf("LiveKitURL = %q, process env should win", env.LiveKitURL)
	}
	if env.SIPTrunkID != "ST_file" {
		t.Errorf("SIPTrunkID = %q, want value from file", env.SIPTrunkID)
	}
}

func TestEnvLoaderReloadPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	if err := os.WriteFile(path, []byte("SIP_OUTBOUND_TRUNK_ID=ST_one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvSIPTrunkID, "")
	os.Unsetenv(EnvSIPTrunkID)

	loader := NewEnvLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("SIP_OUTBOUND_TRUNK_ID=ST_two\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(EnvSIPTrunkID); got != "ST_two" {
		t.Errorf("SIP_OUTBOUND_TRUNK_ID = %q, want ST_two", got)
	}
}

func TestEnvLoaderReloadKeepsShellValueForNewKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	if err := os.WriteFile(path, []byte("SIP_OUTBOUND_TRUNK_ID=ST_file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLiveKitURL, "ws://shell:7880")
	t.Setenv(EnvSIPTrunkID, "")
	os.Unsetenv(EnvSIPTrunkID)

	loader := NewEnvLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}

	content := "SIP_OUTBOUND_TRUNK_ID=ST_file\nLIVEKIT_URL=ws://file:9999\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(EnvLiveKitURL); got != "ws://shell:7880" {
		t.Errorf("LIVEKIT_URL = %q, shell value should win after reload", got)
	}
	if got := os.Getenv(EnvSIPTrunkID); got != "ST_file" {
		t.Errorf("SIP_OUTBOUND_TRUNK_ID = %q, want ST_file", got)
	}
}

func TestEnvLoaderMissingFile(t *testing.T) {
	found, err := NewEnvLoader(filepath.Join(t.TempDir(), "nope")).Load()
	if err != nil {
		t.Fatalf("missing env file should not be an error: %v", err)
	}
	if found {
		t.Error("found should be false for a missing file")
	}
}

func TestDisplayValue(t *testing.T) {
	if DisplayValue("  ") != "Not configured" {
		t.Error("blank value should display as Not configured")
	}
	if DisplayValue("ws://host:7880") != "ws://host:7880" {
		t.Error("configured value should be shown as is")
	}
}
