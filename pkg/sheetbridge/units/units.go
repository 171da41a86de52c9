// Package units converts between device pixels, the unit sizes are carried
// in internally, and the native units of each file format.
//
// The factors are the usual legacy rendering approximations, not exact font
// metrics: one character unit of column width is taken as 8 pixels, and one
// pixel as 0.75 points (96 DPI).
package units

import "math"

// PixelsPerChar is the approximate width of one character unit in pixels.
const PixelsPerChar = 8

// PointsPerPixel is the number of points in one pixel at 96 DPI.
const PointsPerPixel = 0.75

// CharsToPixels converts a column width in character units to pixels.
func CharsToPixels(chars float64) float64 {
	return chars * PixelsPerChar
}

// PixelsToChars converts a column width in pixels to character units.
func PixelsToChars(px float64) float64 {
	return px / PixelsPerChar
}

// PointsToPixels converts a row height in points to whole pixels.
func PointsToPixels(pt float64) float64 {
	return math.Round(pt / PointsPerPixel)
}

// PixelsToPoints converts a row height in pixels to points.
func PixelsToPoints(px float64) float64 {
	return px * PointsPerPixel
}
