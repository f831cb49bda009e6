package browser

import (
	"fmt"
	"math/rand"
)

// StealthConfig configures fingerprint spoofing injected on top of
// go-rod/stealth.
type StealthConfig struct {
	Language            string
	Platform            string
	Timezone            string
	HardwareConcurrency int
	DeviceMemory        int
}

// DefaultStealthConfig returns values that match a typical Indonesian
// desktop visitor.
func DefaultStealthConfig(language, timezone string) *StealthConfig {
	if language == "" {
		language = "id-ID"
	}
	return &StealthConfig{
		Language:            language,
		Platform:            "Win32",
		Timezone:            timezone,
		HardwareConcurrency: 4 + 2*rand.Intn(5), // 4-12 cores
		DeviceMemory:        8,
	}
}

// StealthJS returns a self-invoking script evaluated on every new document
// before the page's own scripts.
func (sc *StealthConfig) StealthJS() string {
	return fmt.Sprintf(`(() => {
Object.defineProperty(navigator, 'platform', { get: () => '%s' });
Object.defineProperty(navigator, 'language', { get: () => '%s' });
Object.defineProperty(navigator, 'languages', { get: () => ['%s', 'id', 'en-US', 'en'] });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => %d });
Object.defineProperty(navigator, 'deviceMemory', { get: () => %d });
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
if (!window.chrome) {
	window.chrome = { runtime: {}, loadTimes: () => ({}), csi: () => ({}) };
}
})();`, sc.Platform, sc.Language, sc.Language, sc.HardwareConcurrency, sc.DeviceMemory)
}
