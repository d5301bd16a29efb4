package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgbatch"
	"github.com/gogpu/imgbatch/filter"
)

var (
	grayOutDir   string
	grayStrength float32
)

var grayCmd = &cobra.Command{
	Use:   "gray [files...]",
	Short: "Convert images to grayscale",
	Long:  `Loads the given images into a batch with parallel decoding, applies luminance grayscale, and writes each result as PNG.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGray,
}

func init() {
	grayCmd.Flags().StringVarP(&grayOutDir, "out", "o", ".", "Output directory")
	grayCmd.Flags().Float32VarP(&grayStrength, "strength", "s", 1, "Blend strength in [0,1]")
}

func runGray(cmd *cobra.Command, args []string) error {
	b, meta, pool, err := loadBatch(cmd.Context(), args)
	if err != nil {
		return err
	}
	defer pool.Close()

	g := &filter.Grayscale{Strength: grayStrength}
	if err := filter.Batch(b, meta, g); err != nil {
		return err
	}

	if err := os.MkdirAll(grayOutDir, 0o755); err != nil {
		return err
	}

	written := 0
	for i := range args {
		if meta.Status[i] != imgbatch.StatusLoaded {
			continue
		}
		img, err := imgbatch.Extract(b, i)
		if err != nil {
			return err
		}
		out := filepath.Join(grayOutDir, grayName(args[i]))
		if err := img.SavePNG(out); err != nil {
			return err
		}
		written++
	}

	failed := reportFailures(args, meta)
	fmt.Printf("%d written, %d failed\n", written, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(args))
	}
	return nil
}

// grayName maps input.jpg to input_gray.png.
func grayName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_gray.png"
}
