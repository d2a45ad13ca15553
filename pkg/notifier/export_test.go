package notifier

// SetSend swaps the delivery function so tests can capture messages.
func (n *RunNotifier) SetSend(fn func(title, message string) error) {
	n.send = fn
}
