// Package imaging loads dermoscopic images and their ground-truth masks and
// brings them to a common geometry.
//
// # Channel Order
//
// Decoders in the Go image stack already yield RGB(A) samples, so channel
// normalization means converting whatever concrete type the decoder
// returned (*image.YCbCr, *image.Gray, *image.Paletted, ...) into a single
// canonical *image.NRGBA buffer.
//
// # Resizing
//
// Images and masks are resized to the same target width, with the height
// derived from the source aspect ratio by TargetSize. The two never share a
// filter:
//
//   - Images use a continuous filter (box/area by default) chosen by name
//     via ParseFilter.
//   - Masks always use nearest-neighbour sampling. Any smoothing filter would
//     invent label values that were never annotated.
//
// # Thread Safety
//
// Every function in this package is stateless and safe for concurrent use.
package imaging
