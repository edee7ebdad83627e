// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"bytes"
	"image"

	"github.com/juju/errors"
	"github.com/pixiv/go-libjpeg/jpeg"
)

// JPEGDecoder decodes the JFIF streams carried by Tight's JPEG mode. The
// default implementation uses libjpeg; hosts may substitute their own
// through Config.JPEG.
type JPEGDecoder interface {
	Decode(data []byte) (image.Image, error)
}

// libjpegDecoder is the default JPEGDecoder.
type libjpegDecoder struct{}

func (libjpegDecoder) Decode(data []byte) (image.Image, error) {
	img, err := jpeg.DecodeIntoRGB(bytes.NewReader(data), &jpeg.DecoderOptions{})
	if err != nil {
		return nil, errors.Annotate(err, "jpeg decode")
	}
	return img, nil
}
