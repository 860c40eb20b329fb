package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser hands a provider's consent page to the desktop's default browser.
//
// Only http and https URLs are accepted, since the URL ends up as an argument to a system launcher.
// The launcher is started and reaped in the background, so a nil error does not mean a page was shown.
// Callers print the URL when this fails.
func OpenBrowser(consentURL string) error {
	u, err := url.Parse(consentURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: not a web URL: %q", ErrInvalidArgument, consentURL)
	}

	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = exec.Command("open", consentURL)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", consentURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", consentURL)
	default:
		return fmt.Errorf("%w: no browser launcher for %s", ErrServiceUnavailable, rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	go func() { _ = cmd.Wait() }()
	return nil
}
