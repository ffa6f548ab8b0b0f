//go:build windows

package panoptes

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// fileNotifyInformation mirrors the win32 FILE_NOTIFY_INFORMATION layout, as
// fsnotify's own Windows backend parses it: a variable-length record with a
// UTF-16 file name tail, chained via NextEntryOffset.
type fileNotifyInformation struct {
	NextEntryOffset uint32
	Action          uint32
	FileNameLength  uint32
	FileName        [1]uint16
}

const notifyFilter = windows.FILE_NOTIFY_CHANGE_FILE_NAME |
	windows.FILE_NOTIFY_CHANGE_DIR_NAME |
	windows.FILE_NOTIFY_CHANGE_ATTRIBUTES |
	windows.FILE_NOTIFY_CHANGE_SIZE |
	windows.FILE_NOTIFY_CHANGE_LAST_WRITE |
	windows.FILE_NOTIFY_CHANGE_CREATION

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

	root := deps.normalizer.Root()
	path, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateFile(
		path,
		windows.FILE_LIST_DIRECTORY,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OVERLAPPED,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", failedDiagnostic, err)
	}

	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, err
	}

	return &windowsSource{
		deps:   deps,
		handle: handle,
		event:  event,
	}, nil
}

// windowsSource is the ReadDirectoryChangesW-backed platformSource.
// ReadDirectoryChangesW supports a native recursive flag (the watchSubTree
// argument below), so like darwinSource it needs no watch-descriptor table.
type windowsSource struct {
	deps   sourceDeps
	handle windows.Handle
	event  windows.Handle

	mu      sync.Mutex
	stopped bool
}

func (s *windowsSource) run(c *collector) {
	bufSize := s.deps.opts.bufferSize
	if bufSize < 4096 {
		bufSize = 4096
	}
	buf := make([]byte, bufSize)

	for {
		var overlapped windows.Overlapped
		overlapped.HEvent = s.event

		var bytesReturned uint32
		err := windows.ReadDirectoryChanges(s.handle, &buf[0], uint32(len(buf)), true, notifyFilter, &bytesReturned, &overlapped, 0)
		if err != nil && err != windows.ERROR_IO_PENDING {
			if s.isStopped() {
				return
			}
			s.deps.logger.Errorf("ReadDirectoryChangesW failed: %v", err)
			c.push(rawEvent{path: failedDiagnostic, typ: Failed})
			return
		}

		err = windows.GetOverlappedResult(s.handle, &overlapped, &bytesReturned, true)
		if err != nil {
			if s.isStopped() {
				return
			}
			s.deps.logger.Errorf("GetOverlappedResult failed: %v", err)
			c.push(rawEvent{path: failedDiagnostic, typ: Failed})
			return
		}

		if bytesReturned == 0 {
			// An empty, successful completion with no buffer content means
			// the kernel could not keep pace with the change volume.
			c.push(rawEvent{path: "", typ: BufferOverflow})
			continue
		}

		s.decode(buf[:bytesReturned], c)
	}
}

func (s *windowsSource) decode(buf []byte, c *collector) {
	root := s.deps.normalizer.Root()
	offset := 0
	for {
		if offset+int(unsafe.Sizeof(fileNotifyInformation{})) > len(buf) {
			return
		}
		raw := (*fileNotifyInformation)(unsafe.Pointer(&buf[offset]))

		nameBytes := (*[1 << 20]uint16)(unsafe.Pointer(&raw.FileName[0]))[: raw.FileNameLength/2 : raw.FileNameLength/2]
		name := syscall.UTF16ToString(nameBytes)
		abs := filepath.Join(root, name)

		s.handleAction(raw.Action, abs, c)

		if raw.NextEntryOffset == 0 {
			return
		}
		offset += int(raw.NextEntryOffset)
	}
}

func (s *windowsSource) handleAction(action uint32, abs string, c *collector) {
	switch action {
	case windows.FILE_ACTION_ADDED:
		s.emit(c, abs, Created)
	case windows.FILE_ACTION_REMOVED:
		s.emit(c, abs, Deleted)
	case windows.FILE_ACTION_MODIFIED:
		s.emit(c, abs, Modified)
	case windows.FILE_ACTION_RENAMED_OLD_NAME:
		// spec.md §4.2.C's translation table maps the old-name half of a
		// rename to DELETED|RENAMED unconditionally, matching the Linux
		// IN_MOVED_FROM translation (source_linux.go): a move out of the
		// watched tree still delivers this record with no corresponding
		// new-name record to pair it with.
		typ := Deleted
		if s.deps.opts.renamePairing {
			typ = typ.Union(Renamed)
		}
		s.emit(c, abs, typ)
	case windows.FILE_ACTION_RENAMED_NEW_NAME:
		typ := Created
		if s.deps.opts.renamePairing {
			typ = typ.Union(Renamed)
		}
		s.emit(c, abs, typ)
	}
}

func (s *windowsSource) emit(c *collector, abs string, typ EventType) {
	rel, ok := s.deps.normalizer.Relativize(abs)
	if !ok {
		return
	}
	c.push(rawEvent{path: rel, typ: typ})
}

func (s *windowsSource) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *windowsSource) stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	windows.CancelIoEx(s.handle, nil)
	windows.CloseHandle(s.event)
	return windows.CloseHandle(s.handle)
}
