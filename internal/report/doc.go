// Package report renders a finished sprint Result: a distance-time plot, an
// interactive chart, trajectory exports and annotated overlay frames. Nothing
// here feeds back into the analysis.
package report
