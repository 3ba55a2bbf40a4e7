// Package narrative produces the short operator status text that
// accompanies a daily report. Narrators are optional collaborators: callers
// skip the step when New returns nil.
package narrative
