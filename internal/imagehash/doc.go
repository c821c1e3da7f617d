// Package imagehash compares cover images with a perceptual average hash.
//
// An image is reduced to a 32x32 luma grid with an area filter, and each cell
// becomes one bit: set when the cell is darker than the grid mean. Two covers
// are considered the same when at most 10% of the 1024 bits differ. The hash
// depends only on decoded pixel data, so repeated computations over the same
// bytes always yield the same value.
package imagehash
