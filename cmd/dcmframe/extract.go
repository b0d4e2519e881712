package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/multiframe"
)

func runExtract(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	frame := fs.Int("frame", -1, "Frame index to extract, -1 for every frame")
	outDir := fs.String("o", ".", "Output directory")
	preserveSeries := fs.Bool("preserve-series", false, "Keep the Series Instance UID")
	format := fs.String("instance-format", multiframe.DefaultInstanceNumberFormat, "Instance Number template (string, int)")
	key := fs.String("key", "", "Key of the UID mapper; equal keys give equal UIDs")
	fs.Parse(args)
	path, err := fileArg(fs)
	if err != nil {
		return err
	}

	mapper, err := multiframe.NewHashUIDMapper([]byte(*key))
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	file, err := dicom.ParseFile(f, dicom.WithBulkDataURI(path))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	opts := []multiframe.Option{
		multiframe.WithUIDMapper(mapper),
		multiframe.WithInstanceNumberFormat(*format),
		multiframe.WithSource(f),
	}
	if *preserveSeries {
		opts = append(opts, multiframe.WithPreserveSeriesInstanceUID())
	}
	conv, err := multiframe.New(opts...)
	if err != nil {
		return err
	}

	first, last := *frame, *frame
	if *frame < 0 {
		first, last = 0, file.Dataset.GetInt(dicom.TagNumberOfFrames, 1)-1
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	for i := first; i <= last; i++ {
		res, err := conv.Extract(file.Dataset, i)
		if err != nil {
			return err
		}
		uid := res.Attributes.GetString(dicom.TagSOPInstanceUID)
		out := filepath.Join(*outDir, uid+".dcm")
		if err := writeFile(out, res.Attributes, file.TransferSyntaxUID, f); err != nil {
			return err
		}
		logger.Info("Extracted frame", "frame_index", i, "sop_instance_uid", uid, "output", out)
	}
	return nil
}

func writeFile(path string, ds *dicom.Dataset, transferSyntaxUID string, src *os.File) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dicom.WriteFile(out, ds, transferSyntaxUID, src); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
