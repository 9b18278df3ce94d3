package rwlock

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/sharedlock"
	"github.com/ValentinKolb/dLock/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcSharedLock sharedlock.ISharedLockAdapter
	manager       lockmgr.ISharedLockManager

	// RWLockCommands represents the reader/writer lock command group
	RWLockCommands = &cobra.Command{
		Use:                "rwlock",
		Aliases:            []string{"sharedlock"},
		Short:              "Perform reader/writer lock operations",
		PersistentPreRunE:  setupSharedLockClient,
		PersistentPostRunE: closeSharedLockClient,
	}

	forceReleaseCmd = &cobra.Command{
		Use:   "force-release [key]",
		Short: "Release whatever holds the key, the writer or all readers",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return printOk("released")(manager.Open(args[0], "", 0).ForceRelease())
		},
	}

	stateCmd = &cobra.Command{
		Use:   "state [key]",
		Short: "Show the writer or the readers holding the key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			state, err := rpcSharedLock.GetState(args[0])
			if err != nil {
				return fmt.Errorf("failed to get lock state: %w", err)
			}
			fmt.Println(util.FormatSharedLockState(args[0], state))
			return nil
		},
	}
)

func init() {
	RWLockCommands.AddCommand(writerCmd)
	RWLockCommands.AddCommand(readerCmd)
	RWLockCommands.AddCommand(forceReleaseCmd)
	RWLockCommands.AddCommand(stateCmd)

	util.SetupRPCClientFlags(RWLockCommands, 100)

	key := "ttl"
	RWLockCommands.PersistentFlags().Duration(key, 30*time.Second, util.WrapString("Time to live of acquisitions and refreshes (0 for no expiration)"))

	key = "wait"
	RWLockCommands.PersistentFlags().Duration(key, 0, util.WrapString("How long acquire retries while the key is held (0 tries once)"))

	key = "retry-interval"
	RWLockCommands.PersistentFlags().Duration(key, lockmgr.DefaultRetryInterval, util.WrapString("Polling interval of acquire with --wait"))
}

// setupSharedLockClient initializes the shared lock client and the lock manager on top of it
func setupSharedLockClient(cmd *cobra.Command, _ []string) error {
	config, s, t, err := util.SetupClient(cmd)
	if err != nil {
		return err
	}

	rpcSharedLock, err = client.NewRPCSharedLock(util.GetShardID(), *config, t, s)
	if err != nil {
		return err
	}

	manager = lockmgr.NewSharedLockManager(
		rpcSharedLock,
		lockmgr.WithDefaultTTL(viper.GetDuration("ttl")),
		lockmgr.WithRetryInterval(viper.GetDuration("retry-interval")),
	)
	return nil
}

func closeSharedLockClient(_ *cobra.Command, _ []string) error {
	if rpcSharedLock == nil {
		return nil
	}
	return rpcSharedLock.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// handle returns a handle with the given id, or a new id if id is empty
func handle(key, id string, limit int) lockmgr.ISharedLock {
	if id == "" {
		return manager.Create(key, limit)
	}
	return manager.Open(key, id, limit)
}

// acquire runs a single attempt, or retries for --wait if it is set
func acquire(h lockmgr.ISharedLock, once func() (bool, error), blocking func(ctx context.Context) error) error {
	var ok bool
	var err error

	if wait := viper.GetDuration("wait"); wait > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		err = blocking(ctx)
		ok = err == nil
		if ctx.Err() != nil {
			err = nil
		}
	} else {
		ok, err = once()
	}

	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		fmt.Println("acquired=false")
		return nil
	}
	fmt.Printf("acquired=true lockID=%s\n", h.ID())
	return nil
}

// printOk prints the result of a boolean operation as name=result
func printOk(name string) func(ok bool, err error) error {
	return func(ok bool, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Printf("%s=%v\n", name, ok)
		return nil
	}
}
