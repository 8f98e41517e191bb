// Package segmentation labels the organs of a plant from its voxel
// skeleton.
//
// Responsibilities: stem/leaf ownership partition, path trimming, organ
// classification, fragment merging and assembly of the final
// organ.Segmentation.
// Key types: Segmenter, Params, StemDetector, RegionAnnexer, MergeRule.
//
// Dependency rule: segmentation depends on voxel, skeleton and organ. The
// stem detector and the region annexer are injected; internal/stem and
// internal/annex provide the defaults.
//
// Pipeline:
//
//	highest segment -> StemDetector -> per-segment leaf component (parallel)
//	-> RegionAnnexer sweep (stem, then each segment in order)
//	-> classify (unknown / cornet_leaf / mature_leaf)
//	-> union-find fragment merge per class -> assemble
package segmentation
