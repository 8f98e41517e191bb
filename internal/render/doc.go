// Package render draws segmentations: an interactive go-echarts HTML report
// and a static gonum/plot PNG side view. Both write through an io.Writer or
// an fsutil.FileSystem.
package render
