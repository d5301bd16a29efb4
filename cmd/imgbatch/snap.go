package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgbatch/snapshot"
)

var snapOut string

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Save and inspect batch snapshots",
}

var snapSaveCmd = &cobra.Command{
	Use:   "save [files...]",
	Short: "Load images and write a batch snapshot",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSnapSave,
}

var snapInfoCmd = &cobra.Command{
	Use:   "info [snapshot]",
	Short: "Print a snapshot's header and slot table",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapInfo,
}

func init() {
	snapSaveCmd.Flags().StringVarP(&snapOut, "out", "o", "batch.ibsn", "Snapshot file")
	snapCmd.AddCommand(snapSaveCmd, snapInfoCmd)
}

func runSnapSave(cmd *cobra.Command, args []string) error {
	b, meta, pool, err := loadBatch(cmd.Context(), args)
	if err != nil {
		return err
	}
	defer pool.Close()

	reportFailures(args, meta)

	f, err := os.Create(filepath.Clean(snapOut))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	id, err := snapshot.Save(f, b, meta)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d slots, id %s\n", snapOut, b.Count(), id)
	return nil
}

func runSnapInfo(cmd *cobra.Command, args []string) error {
	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	b, meta, hdr, err := snapshot.Load(f)
	if err != nil {
		return err
	}

	fmt.Printf("id: %s\nslots: %d/%d\npixel elements: %d/%d\n",
		hdr.ID, hdr.Count, hdr.Capacity, hdr.PixelUsed, hdr.PixelCapacity)
	for i := 0; i < b.Count(); i++ {
		fmt.Printf("%3d  %-7s %5dx%-5d offset=%-10d source=%s\n",
			i, meta.Status[i], b.Width(i), b.Height(i), b.Offset(i),
			meta.SourceTypes[i])
	}
	return nil
}
