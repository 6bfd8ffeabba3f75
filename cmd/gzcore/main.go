// Command gzcore is a minimal gzip-compatible compressor/decompressor
// built on this module's deflate and gzip packages, rather than the
// standard library's compress/gzip.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v2"
	"github.com/spf13/cobra"

	"github.com/jonjohnsonjr/gzcore/deflate"
	"github.com/jonjohnsonjr/gzcore/gzip"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		decompress bool
		level      int
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "gzcore [file]",
		Short: "Compress or decompress a gzip stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := os.Stdin
			size := int64(-1)
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
				if info, err := f.Stat(); err == nil {
					size = info.Size()
				}
			}

			var src io.Reader = in
			if !quiet && size > 0 {
				bar := progressbar.NewOptions64(size, progressbar.OptionSetWriter(os.Stderr))
				src = io.TeeReader(in, bar)
			}

			if decompress {
				return decompressStream(src, os.Stdout)
			}
			return compressStream(src, os.Stdout, level)
		},
	}

	cmd.Flags().BoolVarP(&decompress, "decompress", "d", false, "decompress instead of compress")
	cmd.Flags().IntVarP(&level, "level", "l", deflate.DefaultCompression, "compression level, 1 (fastest) to 9 (best)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the progress bar")

	return cmd
}

func compressStream(r io.Reader, w io.Writer, level int) error {
	zw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return err
	}
	buf := make([]byte, 1<<16)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := zw.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return zw.Close()
}

func decompressStream(r io.Reader, w io.Writer) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, zr)
	return err
}
