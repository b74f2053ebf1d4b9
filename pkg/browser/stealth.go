package browser

import "math/rand"

// launchArgs are Chromium switches that suppress the most common automation
// markers. Applied to every session, login or headless alike.
func launchArgs() []string {
	return []string{
		"--disable-blink-features=AutomationControlled",
		"--no-sandbox",
		"--disable-infobars",
		"--disable-dev-shm-usage",
	}
}

// launchJitterMs returns a small random per-action delay in milliseconds.
// Uniform instant input is itself a fingerprint.
func launchJitterMs() float64 {
	return 40 + rand.Float64()*80
}

// stealthScript runs in every new document before any page script. It
// overrides the navigator properties that headless Chromium exposes
// differently from a real browser.
const stealthScript = `
(() => {
  Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
  Object.defineProperty(navigator, 'languages', { get: () => ['zh-CN', 'zh'] });
  Object.defineProperty(navigator, 'plugins', {
    get: () => [1, 2, 3, 4, 5],
  });
  window.chrome = window.chrome || { runtime: {} };
  const originalQuery = window.navigator.permissions.query;
  window.navigator.permissions.query = (parameters) =>
    parameters.name === 'notifications'
      ? Promise.resolve({ state: Notification.permission })
      : originalQuery(parameters);
})();
`
