package lockmgr

import (
	"context"
	"time"

	"github.com/ValentinKolb/dLock/lib/sharedlock"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("lockmgr")

type lockMgmImpl struct {
	adapter sharedlock.ISharedLockAdapter
	conf    config
}

// NewSharedLockManager creates a lock manager on adapter
func NewSharedLockManager(adapter sharedlock.ISharedLockAdapter, opts ...Option) ISharedLockManager {
	conf := config{
		ttl:           sharedlock.NoTTL,
		retryInterval: DefaultRetryInterval,
		newID:         generateLockID,
	}
	for _, opt := range opts {
		opt(&conf)
	}
	return &lockMgmImpl{
		adapter: adapter,
		conf:    conf,
	}
}

func (lm *lockMgmImpl) Create(key string, limit int) ISharedLock {
	return lm.Open(key, lm.conf.newID(), limit)
}

func (lm *lockMgmImpl) Open(key, lockID string, limit int) ISharedLock {
	return &sharedLock{
		mgr:   lm,
		key:   key,
		id:    lockID,
		limit: limit,
	}
}

// --------------------------------------------------------------------------
// Lock Handle
// --------------------------------------------------------------------------

type sharedLock struct {
	mgr   *lockMgmImpl
	key   string
	id    string
	limit int
}

func (l *sharedLock) ID() string {
	return l.id
}

func (l *sharedLock) Key() string {
	return l.key
}

func (l *sharedLock) AcquireWriter() (bool, error) {
	return l.mgr.adapter.AcquireWriter(l.key, l.id, l.mgr.conf.ttl)
}

func (l *sharedLock) AcquireWriterBlocking(ctx context.Context) error {
	return l.retry(ctx, "writer", l.AcquireWriter)
}

func (l *sharedLock) ReleaseWriter() (bool, error) {
	return l.mgr.adapter.ReleaseWriter(l.key, l.id)
}

func (l *sharedLock) RefreshWriter() (bool, error) {
	return l.mgr.adapter.RefreshWriter(l.key, l.id, l.mgr.conf.ttl)
}

func (l *sharedLock) ForceReleaseWriter() (bool, error) {
	return l.mgr.adapter.ForceReleaseWriter(l.key)
}

func (l *sharedLock) AcquireReader() (bool, error) {
	return l.mgr.adapter.AcquireReader(sharedlock.AcquireSettings{
		Key:    l.key,
		LockID: l.id,
		Limit:  l.limit,
		TTL:    l.mgr.conf.ttl,
	})
}

func (l *sharedLock) AcquireReaderBlocking(ctx context.Context) error {
	return l.retry(ctx, "reader", l.AcquireReader)
}

func (l *sharedLock) ReleaseReader() (bool, error) {
	return l.mgr.adapter.ReleaseReader(l.key, l.id)
}

func (l *sharedLock) RefreshReader() (bool, error) {
	return l.mgr.adapter.RefreshReader(l.key, l.id, l.mgr.conf.ttl)
}

func (l *sharedLock) ForceReleaseAllReaders() (bool, error) {
	return l.mgr.adapter.ForceReleaseAllReaders(l.key)
}

func (l *sharedLock) ForceRelease() (bool, error) {
	return l.mgr.adapter.ForceRelease(l.key)
}

func (l *sharedLock) GetState() (*sharedlock.State, error) {
	return l.mgr.adapter.GetState(l.key)
}

// retry calls acquire until it succeeds, fails with an error or ctx is done
func (l *sharedLock) retry(ctx context.Context, mode string, acquire func() (bool, error)) error {
	ticker := time.NewTicker(l.mgr.conf.retryInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		ok, err := acquire()
		if err != nil {
			return err
		}
		if ok {
			if attempt > 1 {
				Logger.Debugf("acquired %s lock %q for %s after %d attempts", mode, l.key, l.id, attempt)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
