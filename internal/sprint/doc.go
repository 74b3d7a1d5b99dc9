// Package sprint times a single subject across a fixed-length track.
//
// Frame 0 calibrates the run: an object detector finds the two gate markers,
// whose x-centres become the MarkerPair, and the region of interest is
// derived from them. Every frame after that is reduced to the subject's
// horizontal position, which drives a three-state Timer
// (NotStarted, Running, Finished). The trajectory of distance over time and
// the average speed make up the Result.
//
// All marker and subject coordinates live in the preprocessed (resized)
// frame. The region of interest in source-frame pixels is carried alongside
// for reporting only.
package sprint
