package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/caio-sobreiro/dicomframe/dicom"
	"github.com/caio-sobreiro/dicomframe/multiframe"
	"github.com/caio-sobreiro/dicomframe/reader"
	"github.com/caio-sobreiro/dicomframe/types"
)

func runInfo(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)
	path, err := fileArg(fs)
	if err != nil {
		return err
	}

	s, err := reader.OpenFile(path, reader.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	ds := s.Dataset()
	desc := s.Descriptor()
	sopClass := ds.GetString(dicom.TagSOPClassUID)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "SOP Class\t%s (%s)\n", types.GetSOPClassInfo(sopClass).Name, sopClass)
	fmt.Fprintf(w, "SOP Instance\t%s\n", ds.GetString(dicom.TagSOPInstanceUID))
	fmt.Fprintf(w, "Transfer Syntax\t%s (%s)\n", types.GetTransferSyntaxInfo(s.TransferSyntaxUID()).Name, s.TransferSyntaxUID())
	fmt.Fprintf(w, "Photometric\t%s\n", desc.Photometric)
	fmt.Fprintf(w, "Size\t%dx%d, %d sample(s)\n", desc.Columns, desc.Rows, desc.SamplesPerPixel)
	fmt.Fprintf(w, "Bits\tallocated %d, stored %d, high %d, signed %t\n",
		desc.BitsAllocated, desc.BitsStored, desc.HighBit, desc.Signed())
	fmt.Fprintf(w, "Frames\t%d\n", s.NumFrames())
	fmt.Fprintf(w, "Multi-frame conversion\t%t\n", multiframe.IsSupportedSOPClass(sopClass))
	for _, span := range s.OffsetTable() {
		if span.Resolved() {
			fmt.Fprintf(w, "  frame %d\tposition %d, length %d\n", span.Frame, span.Position, span.Length)
		} else {
			fmt.Fprintf(w, "  frame %d\tdecoder framed\n", span.Frame)
		}
	}
	for _, d := range s.Diagnostics() {
		fmt.Fprintf(w, "Note\t%s\n", d)
	}
	return w.Flush()
}
