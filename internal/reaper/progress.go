package reaper

import "log/slog"

// LogProgress reports batch progress on a structured logger.
type LogProgress struct {
	Log *slog.Logger
}

func (p LogProgress) Report(done, total int) {
	if p.Log == nil || total == 0 {
		return
	}
	p.Log.Info("deleting messages",
		"done", done,
		"total", total,
		"percent", done*100/total,
	)
}

// ProgressFunc adapts a plain function to ProgressReporter.
type ProgressFunc func(done, total int)

func (f ProgressFunc) Report(done, total int) {
	f(done, total)
}
