package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// commandSender shells out to the platform's notification tool.
type commandSender struct {
	name string
	args func(title, message string) []string
}

func (c commandSender) Send(title, message string) error {
	return exec.Command(c.name, c.args(title, message)...).Run()
}

// applescriptQuote escapes s for a double-quoted AppleScript string.
func applescriptQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

var platformSenders = map[string]commandSender{
	"linux": {
		name: "notify-send",
		args: func(title, message string) []string {
			return []string{"--app-name=roost", title, message}
		},
	},
	"darwin": {
		name: "osascript",
		args: func(title, message string) []string {
			return []string{"-e", "display notification " + applescriptQuote(message) + " with title " + applescriptQuote(title)}
		},
	},
	"windows": {
		name: "powershell",
		args: func(title, message string) []string {
			script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms; `+
				`$n = New-Object System.Windows.Forms.NotifyIcon; `+
				`$n.Icon = [System.Drawing.SystemIcons]::Information; $n.Visible = $true; `+
				`$n.ShowBalloonTip(5000, '%s', '%s', 'Info')`,
				strings.ReplaceAll(title, "'", "''"), strings.ReplaceAll(message, "'", "''"))
			return []string{"-NoProfile", "-NonInteractive", "-Command", script}
		},
	},
}

// Notifier echoes batch outcomes to Output and, where the platform has a
// notification tool, to the desktop.
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. Unsupported
// platforms only get the terminal line.
func NewNotifier() *Notifier {
	n := &Notifier{}
	if s, ok := platformSenders[runtime.GOOS]; ok {
		n.sender = s
	}
	return n
}

// BatchFinished reports how a followers/friends batch ended.
func (n *Notifier) BatchFinished(listing string, collected, unavailable, failed int) {
	msg := fmt.Sprintf("%s: %d collected, %d unavailable, %d failed", listing, collected, unavailable, failed)
	if failed > 0 {
		n.SendError("roost", msg)
		return
	}
	n.SendSuccess("roost", msg)
}

// SendNotification sends a neutral notification
func (n *Notifier) SendNotification(title, message string) {
	fmt.Fprintf(Output, "\n%s: %s\n", Cyan(title), Yellow(message))
	n.send(title, message)
}

// SendError sends a failure notification
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(Output, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}

// SendSuccess sends a success notification
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(Output, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

// send delivers to the desktop; failures are ignored
func (n *Notifier) send(title, message string) {
	if n == nil || n.sender == nil {
		return
	}
	_ = n.sender.Send(title, message)
}
