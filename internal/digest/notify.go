package digest

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// CommandNotifier runs a shell command template for each summary. Errors
// are logged, not returned: a broken notifier must not stall the sweep.
func CommandNotifier(command string) NotifyFunc {
	return func(s Summary) {
		cmdStr := templateSummary(command, s)
		cmd := exec.Command("sh", "-c", cmdStr)
		if out, err := cmd.CombinedOutput(); err != nil {
			log.Printf("digest: notify command failed for %s: %v: %s",
				s.UserID, err, strings.TrimSpace(string(out)))
		}
	}
}

// templateSummary replaces placeholders in the command template with
// summary values.
func templateSummary(command string, s Summary) string {
	r := strings.NewReplacer(
		"{{.UserID}}", s.UserID,
		"{{.Unread}}", fmt.Sprintf("%d", s.Unread),
		"{{.Conversations}}", fmt.Sprintf("%d", s.Conversations),
		"{{.Body}}", fmt.Sprintf("%s has %d unread messages in %d conversations", s.UserID, s.Unread, s.Conversations),
	)
	return r.Replace(command)
}
