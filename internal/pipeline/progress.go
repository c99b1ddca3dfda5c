package pipeline

// ProgressReporter provides callbacks for reporting build progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when unit discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called once source and entry units are known.
	OnDiscoveryComplete(units, entries int)

	// OnEntryProcessingStart is called before the first entry is built.
	OnEntryProcessingStart(totalEntries int)

	// OnEntryProcessed is called after each entry, whether it succeeded or not.
	OnEntryProcessed(entry string)

	// OnDocsStart is called before documentation pages are written.
	OnDocsStart(pages int)

	// OnComplete is called when the run finishes.
	OnComplete(report *Report)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                       {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(units, entries int)  {}
func (n *NoOpProgressReporter) OnEntryProcessingStart(totalEntries int) {}
func (n *NoOpProgressReporter) OnEntryProcessed(entry string)           {}
func (n *NoOpProgressReporter) OnDocsStart(pages int)                   {}
func (n *NoOpProgressReporter) OnComplete(report *Report)               {}
