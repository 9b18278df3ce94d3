package lock

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lock"
	"github.com/ValentinKolb/dLock/rpc/client"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	rpcLock lock.ILockAdapter
	lockTTL time.Duration
	lockID  string

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:                "lock",
		Short:              "Perform exclusive lock operations",
		PersistentPreRunE:  setupLockClient,
		PersistentPostRunE: closeLockClient,
	}

	acquireCmd = &cobra.Command{
		Use:   "acquire [key]",
		Short: "Acquire a lock",
		Long:  "Acquire a lock. Without --id a new lock id is generated and printed, it is needed to release or refresh the lock.",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	releaseCmd = &cobra.Command{
		Use:   "release [key] [lockID]",
		Short: "Release a previously acquired lock",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}

	forceReleaseCmd = &cobra.Command{
		Use:   "force-release [key]",
		Short: "Release a lock regardless of its owner",
		Args:  cobra.ExactArgs(1),
		RunE:  runForceRelease,
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh [key] [lockID]",
		Short: "Replace the expiration of a lock by --ttl from now",
		Args:  cobra.ExactArgs(2),
		RunE:  runRefresh,
	}

	stateCmd = &cobra.Command{
		Use:   "state [key]",
		Short: "Show the owner and expiration of a lock",
		Args:  cobra.ExactArgs(1),
		RunE:  runState,
	}
)

func init() {
	LockCommands.AddCommand(acquireCmd)
	LockCommands.AddCommand(releaseCmd)
	LockCommands.AddCommand(forceReleaseCmd)
	LockCommands.AddCommand(refreshCmd)
	LockCommands.AddCommand(stateCmd)

	// lock shards default to 200 (shared lock shards to 100)
	util.SetupRPCClientFlags(LockCommands, 200)

	acquireCmd.Flags().DurationVar(&lockTTL, "ttl", 30*time.Second, "Time to live of the lock (0 for no expiration)")
	acquireCmd.Flags().StringVar(&lockID, "id", "", "Lock id to acquire the lock with (default: a new uuid)")
	refreshCmd.Flags().DurationVar(&lockTTL, "ttl", 30*time.Second, "New time to live of the lock")
}

// setupLockClient initializes the lock client
func setupLockClient(cmd *cobra.Command, _ []string) error {
	config, s, t, err := util.SetupClient(cmd)
	if err != nil {
		return err
	}

	rpcLock, err = client.NewRPCLock(util.GetShardID(), *config, t, s)
	return err
}

func closeLockClient(_ *cobra.Command, _ []string) error {
	if rpcLock == nil {
		return nil
	}
	return rpcLock.Close()
}

func runAcquire(_ *cobra.Command, args []string) error {
	key := args[0]
	id := lockID
	if id == "" {
		id = uuid.NewString()
	}

	acquired, err := rpcLock.Acquire(key, id, lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !acquired {
		fmt.Println("acquired=false")
		return nil
	}
	fmt.Printf("acquired=true lockID=%s\n", id)
	return nil
}

func runRelease(_ *cobra.Command, args []string) error {
	released, err := rpcLock.Release(args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	fmt.Printf("released=%v\n", released)
	return nil
}

func runForceRelease(_ *cobra.Command, args []string) error {
	released, err := rpcLock.ForceRelease(args[0])
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	fmt.Printf("released=%v\n", released)
	return nil
}

func runRefresh(_ *cobra.Command, args []string) error {
	refreshed, err := rpcLock.Refresh(args[0], args[1], lockTTL)
	if err != nil {
		return fmt.Errorf("failed to refresh lock: %w", err)
	}
	fmt.Printf("refreshed=%v\n", refreshed)
	return nil
}

func runState(_ *cobra.Command, args []string) error {
	state, err := rpcLock.GetState(args[0])
	if err != nil {
		return fmt.Errorf("failed to get lock state: %w", err)
	}
	fmt.Println(util.FormatLockState(args[0], state))
	return nil
}
