package config

import (
	"strings"
	"sync"
	"testing"
)

func TestGetJSON_RedactsSecrets(t *testing.T) {
	secret := "provider-key"
	m := NewManager(&Config{
		Telegram:  Telegram{Token: "bot-token"},
		Abs:       Abs{APIToken: "abs-token"},
		Providers: Providers{"audible": {Enabled: true, Secret: &secret}},
	})

	out := m.GetJSON()
	for _, leaked := range []string{"bot-token", "abs-token", "provider-key"} {
		if strings.Contains(out, leaked) {
			t.Errorf("secret %q leaked into JSON output", leaked)
		}
	}
	if !strings.Contains(out, "<redacted>") {
		t.Error("expected redaction markers in output")
	}
}

func TestGetJSON_ConcurrentWithUpdate(t *testing.T) {
	m := NewManager(&Config{LibraryPath: "/library"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Update(&Config{LibraryPath: "/library"})
				if m.GetJSON() == "" {
					t.Error("empty config JSON")
				}
				if m.GetYAML() == "" {
					t.Error("empty config YAML")
				}
			}
		}()
	}
	wg.Wait()
}
