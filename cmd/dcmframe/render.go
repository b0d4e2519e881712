package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/image/draw"

	"github.com/caio-sobreiro/dicomframe/imaging"
	"github.com/caio-sobreiro/dicomframe/reader"
)

func runRender(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	frame := fs.Int("frame", 0, "Frame index, 0-based")
	out := fs.String("o", "", "Output PNG path (default FILE.<frame>.png)")
	center := fs.Float64("wc", 0, "Window center")
	width := fs.Float64("ww", 0, "Window width, 0 keeps the object's window")
	maxSize := fs.Int("max", 0, "Scale the longer side down to at most this many pixels")
	stream := fs.Bool("stream", false, "Read the file forward-only")
	jpeglsPatch := fs.Bool("jpegls-patch", false, "Correct JPEG-LS headers that record the allocated bit depth")
	fs.Parse(args)
	path, err := fileArg(fs)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = fmt.Sprintf("%s.%d.png", strings.TrimSuffix(path, ".dcm"), *frame)
	}

	opts := []reader.Option{reader.WithLogger(logger)}
	if *jpeglsPatch {
		opts = append(opts, reader.WithJPEGLSPatch())
	}
	var s *reader.Session
	if *stream {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		// hide the file's io.ReaderAt
		s, err = reader.OpenStream(struct{ io.Reader }{f}, opts...)
		if err != nil {
			return err
		}
	} else {
		s, err = reader.OpenFile(path, opts...)
		if err != nil {
			return err
		}
	}
	defer s.Close()

	params := imaging.DefaultParams()
	if *width != 0 {
		params.WindowCenter = *center
		params.WindowWidth = *width
	}
	res, err := s.ReadImage(*frame, params)
	if err != nil {
		return err
	}
	for _, d := range res.Diagnostics {
		logger.Warn("Rendered with fallback", "frame_index", *frame, "stage", d.Stage, "msg", d.Msg)
	}

	img := res.Image
	if *maxSize > 0 {
		img = scaleDown(img, *maxSize)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("Rendered frame", "frame_index", *frame, "output", *out,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

// scaleDown fits img into a square of maxSize pixels, keeping its aspect
// ratio. Smaller images are returned unchanged.
func scaleDown(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}
	if w >= h {
		w, h = maxSize, max(1, h*maxSize/w)
	} else {
		w, h = max(1, w*maxSize/h), maxSize
	}
	rect := image.Rect(0, 0, w, h)
	var dst draw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	draw.CatmullRom.Scale(dst, rect, img, b, draw.Src, nil)
	return dst
}
