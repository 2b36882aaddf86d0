package term

import "github.com/gen2brain/beeep"

// Notify raises a desktop notification for clock events fired from the
// noninteractive entry points. Failures are swallowed: a missing notification
// daemon must not fail a clock-out that already succeeded.
func Notify(title, body string) {
	_ = beeep.Notify(title, body, "")
}
