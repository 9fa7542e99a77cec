package service

import (
	"sync"

	"gorm.io/gorm"
)

// setLocks 按套系ID的进程内互斥（引用计数，空闲即回收）
type setLocks struct {
	mu    sync.Mutex
	locks map[string]*setLock
}

type setLock struct {
	mu   sync.Mutex
	refs int
}

func newSetLocks() *setLocks {
	return &setLocks{locks: make(map[string]*setLock)}
}

// Lock 阻塞直到拿到该套系的锁，返回释放函数
func (l *setLocks) Lock(setID string) func() {
	l.mu.Lock()
	lk, ok := l.locks[setID]
	if !ok {
		lk = &setLock{}
		l.locks[setID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, setID)
		}
		l.mu.Unlock()
	}
}

// advisoryLock PostgreSQL 事务级咨询锁，多实例部署时串行化同一套系；其它方言不做处理
func advisoryLock(tx *gorm.DB, setID string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", setID).Error
}
