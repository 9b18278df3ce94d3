package rwlock

import (
	"github.com/spf13/cobra"
)

var (
	writerCmd = &cobra.Command{
		Use:   "writer",
		Short: "Exclusive (writer) side of a reader/writer lock",
	}

	readerCmd = &cobra.Command{
		Use:   "reader",
		Short: "Shared (reader) side of a reader/writer lock",
	}

	writerID    string
	readerID    string
	readerLimit int
)

func init() {
	writerCmd.AddCommand(
		&cobra.Command{
			Use:   "acquire [key]",
			Short: "Acquire the writer lock",
			Long:  "Acquire the writer lock. Without --id a new lock id is generated and printed, it is needed to release or refresh the lock.",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				h := handle(args[0], writerID, 0)
				return acquire(h, h.AcquireWriter, h.AcquireWriterBlocking)
			},
		},
		&cobra.Command{
			Use:   "release [key] [lockID]",
			Short: "Release the writer lock held by lockID",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return printOk("released")(handle(args[0], args[1], 0).ReleaseWriter())
			},
		},
		&cobra.Command{
			Use:   "refresh [key] [lockID]",
			Short: "Replace the expiration of the writer lock by --ttl from now",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return printOk("refreshed")(handle(args[0], args[1], 0).RefreshWriter())
			},
		},
		&cobra.Command{
			Use:   "force-release [key]",
			Short: "Release the writer lock regardless of its owner",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return printOk("released")(manager.Open(args[0], "", 0).ForceReleaseWriter())
			},
		},
	)

	readerCmd.AddCommand(
		&cobra.Command{
			Use:   "acquire [key]",
			Short: "Acquire a reader slot",
			Long:  "Acquire a reader slot. --limit is the capacity of the semaphore and only takes effect if this call creates it.",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				h := handle(args[0], readerID, readerLimit)
				return acquire(h, h.AcquireReader, h.AcquireReaderBlocking)
			},
		},
		&cobra.Command{
			Use:   "release [key] [lockID]",
			Short: "Release the reader slot held by lockID",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return printOk("released")(handle(args[0], args[1], 0).ReleaseReader())
			},
		},
		&cobra.Command{
			Use:   "refresh [key] [lockID]",
			Short: "Replace the expiration of the reader slot by --ttl from now",
			Args:  cobra.ExactArgs(2),
			RunE: func(_ *cobra.Command, args []string) error {
				return printOk("refreshed")(handle(args[0], args[1], 0).RefreshReader())
			},
		},
		&cobra.Command{
			Use:   "force-release [key]",
			Short: "Release all reader slots of the key",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				return printOk("released")(manager.Open(args[0], "", 0).ForceReleaseAllReaders())
			},
		},
	)

	for _, c := range writerCmd.Commands() {
		if c.Name() == "acquire" {
			c.Flags().StringVar(&writerID, "id", "", "Lock id to acquire the lock with (default: a new uuid)")
		}
	}
	for _, c := range readerCmd.Commands() {
		if c.Name() == "acquire" {
			c.Flags().StringVar(&readerID, "id", "", "Reader id to acquire the slot with (default: a new uuid)")
			c.Flags().IntVar(&readerLimit, "limit", 1, "Capacity of the reader semaphore if it is created by this call")
		}
	}
}
