package gmail

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// OpenUnsubscribeLink opens a stored unsubscribe link. Links without a
// scheme are bare addresses taken from a mailto: and are reopened as one.
func OpenUnsubscribeLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("empty unsubscribe link")
	}
	lower := strings.ToLower(link)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if !strings.Contains(link, "@") {
			return fmt.Errorf("unsupported unsubscribe link: %s", link)
		}
		link = "mailto:" + link
	}
	return OpenBrowser(link)
}

// OpenBrowser hands url to the platform's default handler.
func OpenBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	// Validate scheme to prevent command injection
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "mailto:") {
		return fmt.Errorf("refusing to open URL with unsupported scheme: %s", url)
	}

	return exec.Command(cmd, args...).Start()
}
