package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgbatch"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Load images and print batch diagnostics",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	b, meta, pool, err := loadBatch(cmd.Context(), args)
	if err != nil {
		return err
	}
	defer pool.Close()

	used := 0
	if n := b.Count(); n > 0 {
		used = b.Offset(n-1) + b.Width(n-1)*b.Height(n-1)*4
	}
	fmt.Printf("slots: %d/%d   pixel elements: %d/%d\n",
		b.Count(), b.Capacity(), used, b.PixelCapacity())

	for i := range args {
		status := meta.Status[i]
		if status == imgbatch.StatusLoaded {
			fmt.Printf("%3d  %-7s %5dx%-5d offset=%-10d %s\n",
				i, status, b.Width(i), b.Height(i), b.Offset(i), args[i])
			continue
		}
		fmt.Printf("%3d  %-7s %s (%s)\n", i, status, args[i], meta.ErrorCodes[i])
	}
	return nil
}
