package tweak

import (
	"bytes"
	"runtime"
)

func (s *Store) lockWrite() error {
	gid := curGoroutineID()
	if s.writeMu.TryLock() {
		s.writeOwner.Store(gid)
		return nil
	}
	// An observer calling back into a write API would self-deadlock.
	owner := s.writeOwner.Load()
	if gid != 0 && owner == gid {
		return ErrReentrantWrite
	}
	if gid == 0 && owner == 0 {
		return ErrReentrantWrite
	}
	s.writeMu.Lock()
	s.writeOwner.Store(gid)
	return nil
}

func (s *Store) unlockWrite() {
	s.writeOwner.Store(0)
	s.writeMu.Unlock()
}

// curGoroutineID parses the "goroutine N [...]" header of runtime.Stack.
// It returns 0 if parsing fails. Only used on the write path.
func curGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	var id uint64
	for _, c := range b[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
