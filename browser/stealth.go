package browser

import (
	"math/rand"

	"github.com/chromedp/chromedp"
)

// Recent desktop Chrome builds. Each launch picks one so consecutive runs
// do not share a fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
}

func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// stealthScript runs before any page script and removes the properties
// Facebook and Craigslist probe for automation.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
`

// launchFlags are the Chrome command-line switches for a launch. A visible
// browser is used for interactive login, so headless is per launch.
// disable-blink-features=AutomationControlled drops navigator.webdriver and
// headless=new is the harder to detect headless mode.
func launchFlags(headless bool) map[string]interface{} {
	flags := map[string]interface{}{
		"disable-blink-features": "AutomationControlled",
		"disable-notifications":  true,
		"no-sandbox":             true,
		"disable-dev-shm-usage":  true,
		"disable-gpu":            true,
	}
	if headless {
		flags["headless"] = "new"
	}
	return flags
}

func allocatorOptions(headless bool, chromePath string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		// Bots often run at the default 800x600.
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(RandomUserAgent()),
	}
	for name, value := range launchFlags(headless) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	return opts
}
