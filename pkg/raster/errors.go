package raster

import "errors"

// ErrRasterizerMissing is wrapped into the error returned by ToPages when
// the underlying rasterization binary is not available. Stage-1 maps this
// to the RasterizationMissing error kind.
var ErrRasterizerMissing = errors.New("rasterizer binary unavailable")
