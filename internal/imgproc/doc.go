// Package imgproc implements the grayscale image transform engine behind
// polybot.
//
// A Grid holds one brightness value per pixel on the 0-255 scale, stored as
// float64 so that intermediate results (luminance conversion, blur averages,
// contour differences) keep their precision until the grid is written out.
// Grids are loaded from any raster format the registered decoders understand:
//
//   - JPEG, PNG and GIF via the standard library
//   - BMP, TIFF and WebP via golang.org/x/image
//
// Every transform mutates the grid in place. The lifecycle of a grid inside
// the bot is always load, exactly one transform, save:
//
//	g, err := imgproc.Load(path)
//	if err != nil { ... }
//	g.Segment()
//	out, err := g.Save()
//
// Save never overwrites the source file; it writes to a sibling path with
// the "_filtered" suffix inserted before the extension.
package imgproc
