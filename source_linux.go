//go:build linux

package panoptes

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// inotifyMask is the fixed set of events requested on every watched
// directory. IN_DELETE_SELF/IN_MOVE_SELF cover the watched directory itself
// disappearing out from under its own watch; everything else is per-entry
// activity inside the directory.
const inotifyMask = unix.IN_CREATE | unix.IN_MODIFY | unix.IN_ATTRIB |
	unix.IN_CLOSE_WRITE | unix.IN_MOVED_FROM | unix.IN_MOVED_TO |
	unix.IN_DELETE | unix.IN_DELETE_SELF | unix.IN_MOVE_SELF

// inotifyEventHeaderSize is sizeof(struct inotify_event) without the
// variable-length name field (fsnotify-fsnotify/backend_inotify.go uses the
// same raw-buffer decoding approach).
const inotifyEventHeaderSize = unix.SizeofInotifyEvent

func newPlatformSource(deps sourceDeps) (platformSource, error) {
	info, err := os.Stat(deps.normalizer.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRootNotExist
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrRootNotDir
	}

	// IN_NONBLOCK lets run's inner read loop drain every pending event after
	// a single epoll wakeup without risking a second call blocking forever
	// because nothing more happens to arrive.
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, err
	}

	// wakeFd is a self-pipe-style eventfd added to the same epoll set as fd,
	// so that stop can interrupt a blocked run without racing a close
	// against an in-flight read (spec.md §4.2.B).
	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(wakeFd)
		unix.Close(fd)
		return nil, err
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}); err != nil {
		unix.Close(epfd)
		unix.Close(wakeFd)
		unix.Close(fd)
		return nil, err
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}); err != nil {
		unix.Close(epfd)
		unix.Close(wakeFd)
		unix.Close(fd)
		return nil, err
	}

	s := &linuxSource{
		deps:   deps,
		fd:     fd,
		epfd:   epfd,
		wakeFd: wakeFd,
		wdPath: make(map[int32]string),
		pathWd: make(map[string]int32),
	}

	if err := s.addTree(deps.normalizer.Root()); err != nil {
		unix.Close(epfd)
		unix.Close(wakeFd)
		unix.Close(fd)
		return nil, err
	}

	return s, nil
}

// linuxSource is the inotify-backed platformSource. It owns the bidirectional
// watch-descriptor/path table required to support recursive watching, since
// inotify itself only ever watches a single directory non-recursively
// (spec.md §4.2.B).
type linuxSource struct {
	deps   sourceDeps
	fd     int
	epfd   int
	wakeFd int

	mu     sync.Mutex
	wdPath map[int32]string
	pathWd map[string]int32

	stopped bool
}

// addTree registers a watch on dir and every existing subdirectory beneath
// it, used both at startup and when a new directory appears (spec.md
// §4.2.B: a directory moved in from outside the watch may already contain
// children that need their own watches).
func (s *linuxSource) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return s.addWatch(path)
	})
}

func (s *linuxSource) addWatch(path string) error {
	wd, err := unix.InotifyAddWatch(s.fd, path, inotifyMask)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.wdPath[int32(wd)] = path
	s.pathWd[path] = int32(wd)
	s.mu.Unlock()
	return nil
}

func (s *linuxSource) removeWatch(path string) {
	s.mu.Lock()
	wd, ok := s.pathWd[path]
	if ok {
		delete(s.pathWd, path)
		delete(s.wdPath, wd)
	}
	s.mu.Unlock()
	if ok {
		unix.InotifyRmWatch(s.fd, uint32(wd))
	}
}

// removeTree tears down the watch on dir and every watch registered beneath
// it. A single IN_MOVED_FROM for a directory covers its entire subtree at
// once (unlike a recursive delete, which unlinks each entry individually and
// so generates its own IN_DELETE_SELF per directory), so the watch table
// needs an equivalent bulk removal to match.
func (s *linuxSource) removeTree(dir string) {
	prefix := dir + string(filepath.Separator)

	s.mu.Lock()
	var wds []int32
	var paths []string
	for path, wd := range s.pathWd {
		if path == dir || strings.HasPrefix(path, prefix) {
			wds = append(wds, wd)
			paths = append(paths, path)
		}
	}
	for _, p := range paths {
		delete(s.pathWd, p)
	}
	for _, wd := range wds {
		delete(s.wdPath, wd)
	}
	s.mu.Unlock()

	for _, wd := range wds {
		unix.InotifyRmWatch(s.fd, uint32(wd))
	}
}

func (s *linuxSource) dirFor(wd int32) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.wdPath[wd]
	return p, ok
}

func (s *linuxSource) run(c *collector) {
	defer unix.Close(s.epfd)
	defer unix.Close(s.wakeFd)
	defer unix.Close(s.fd)

	bufSize := s.deps.opts.bufferSize
	if bufSize < inotifyEventHeaderSize+unix.PathMax+1 {
		bufSize = inotifyEventHeaderSize + unix.PathMax + 1
	}
	buf := make([]byte, bufSize)
	epollEvents := make([]unix.EpollEvent, 2)

	for {
		n, err := unix.EpollWait(s.epfd, epollEvents, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			s.deps.logger.Errorf("epoll_wait failed: %v", err)
			c.push(rawEvent{path: failedDiagnostic, typ: Failed})
			return
		}

		woken := false
		readable := false
		for _, ev := range epollEvents[:n] {
			switch int(ev.Fd) {
			case s.wakeFd:
				woken = true
			case s.fd:
				readable = true
			}
		}
		if woken {
			return
		}
		if !readable {
			continue
		}

		for {
			m, err := unix.Read(s.fd, buf)
			if err != nil {
				if err == unix.EAGAIN {
					break
				}
				if s.isStopped() {
					return
				}
				s.deps.logger.Errorf("inotify read failed: %v", err)
				c.push(rawEvent{path: failedDiagnostic, typ: Failed})
				return
			}
			if m <= 0 {
				return
			}
			s.decode(buf[:m], c)
			if m < len(buf) {
				break
			}
		}
	}
}

func (s *linuxSource) decode(buf []byte, c *collector) {
	var offset int
	for offset+inotifyEventHeaderSize <= len(buf) {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameStart := offset + inotifyEventHeaderSize
		nameEnd := nameStart + int(raw.Len)
		if nameEnd > len(buf) {
			s.deps.logger.Warnf("inotify event truncated, skipping remainder of buffer")
			return
		}
		name := ""
		if raw.Len > 0 {
			name = cString(buf[nameStart:nameEnd])
		}
		offset = nameEnd

		s.handleEvent(raw, name, c)
	}
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func (s *linuxSource) handleEvent(raw *unix.InotifyEvent, name string, c *collector) {
	mask := uint32(raw.Mask)

	if mask&unix.IN_Q_OVERFLOW != 0 {
		c.push(rawEvent{path: "", typ: BufferOverflow})
		return
	}

	dir, ok := s.dirFor(int32(raw.Wd))
	if !ok {
		return
	}
	abs := dir
	if name != "" {
		abs = filepath.Join(dir, name)
	}

	if mask&unix.IN_IGNORED != 0 {
		return
	}
	if mask&(unix.IN_DELETE_SELF|unix.IN_MOVE_SELF) != 0 {
		s.removeWatch(dir)
		s.emit(c, dir, Deleted)
		return
	}

	isDir := mask&unix.IN_ISDIR != 0

	switch {
	case mask&unix.IN_MOVED_FROM != 0:
		// spec.md §4.2.B's translation table maps IN_MOVED_FROM to
		// DELETED|RENAMED unconditionally: the destination half of the
		// rename may never arrive (the target can be outside this watch
		// entirely), so the old path's notification cannot wait on
		// pairing to be delivered.
		typ := Deleted
		if s.deps.opts.renamePairing {
			typ = typ.Union(Renamed)
		}
		s.emit(c, abs, typ)
		if isDir {
			s.removeTree(abs)
		}
	case mask&unix.IN_MOVED_TO != 0:
		typ := Created
		if s.deps.opts.renamePairing {
			typ = typ.Union(Renamed)
		}
		s.emit(c, abs, typ)
		if isDir {
			if err := s.addTree(abs); err != nil {
				s.deps.logger.Warnf("failed to watch moved-in directory %s: %v", abs, err)
			}
		}
	case mask&unix.IN_CREATE != 0:
		s.emit(c, abs, Created)
		if isDir {
			if err := s.addTree(abs); err != nil {
				s.deps.logger.Warnf("failed to watch new directory %s: %v", abs, err)
			}
		}
	case mask&unix.IN_DELETE != 0:
		s.emit(c, abs, Deleted)
		if isDir {
			s.removeWatch(abs)
		}
	case mask&(unix.IN_MODIFY|unix.IN_ATTRIB|unix.IN_CLOSE_WRITE) != 0:
		s.emit(c, abs, Modified)
	}
}

func (s *linuxSource) emit(c *collector, abs string, typ EventType) {
	rel, ok := s.deps.normalizer.Relativize(abs)
	if !ok {
		return
	}
	c.push(rawEvent{path: rel, typ: typ})
}

func (s *linuxSource) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// stop wakes a blocked run via wakeFd rather than closing fd out from under
// it: closing a file descriptor concurrently with a blocking read on it is
// a race on Linux (the descriptor number can be reused by an unrelated
// open before the read call observes EBADF), so shutdown must go through
// the same epoll set run is already waiting on.
func (s *linuxSource) stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, 1)
	_, err := unix.Write(s.wakeFd, buf)
	return err
}
