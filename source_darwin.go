//go:build darwin

package panoptes

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsevents"
)

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

	stream := &fsevents.EventStream{
		Paths:   []string{deps.normalizer.Root()},
		Latency: 0,
		Flags:   fsevents.FileEvents | fsevents.WatchRoot | fsevents.NoDefer,
		EventID: fsevents.LatestEventID,
	}

	s := &darwinSource{deps: deps, stream: stream}
	stream.Start()
	return s, nil
}

// darwinSource is the FSEvents-backed platformSource. FSEvents is natively
// recursive, so unlike the Linux backend there is no watch-descriptor table
// to maintain (spec.md §4.2.B names Linux specifically as the platform that
// needs one).
type darwinSource struct {
	deps   sourceDeps
	stream *fsevents.EventStream
}

func (s *darwinSource) run(c *collector) {
	for events := range s.stream.Events {
		for _, ev := range events {
			s.handle(ev, c)
		}
	}
}

func (s *darwinSource) handle(ev fsevents.Event, c *collector) {
	if ev.Flags&(fsevents.KernelDropped|fsevents.UserDropped) != 0 {
		c.push(rawEvent{path: "", typ: BufferOverflow})
		return
	}
	if ev.Flags&fsevents.MustScanSubDirs != 0 {
		// The kernel coalesced too aggressively to report individual
		// children; treat it the same as a dropped-event overflow so the
		// consumer knows to rescan.
		c.push(rawEvent{path: "", typ: BufferOverflow})
		return
	}
	if ev.Flags&(fsevents.RootChanged|fsevents.HistoryDone) != 0 {
		c.push(rawEvent{path: "", typ: BufferOverflow})
		return
	}
	if ev.Flags&(fsevents.Mount|fsevents.Unmount) != 0 {
		return
	}

	abs := ev.Path
	if !filepath.IsAbs(abs) {
		abs = string(filepath.Separator) + abs
	}
	rel, ok := s.deps.normalizer.Relativize(abs)
	if !ok {
		return
	}

	var typ EventType
	if ev.Flags&fsevents.ItemCreated != 0 {
		typ = typ.Union(Created)
	}
	if ev.Flags&fsevents.ItemRemoved != 0 {
		typ = typ.Union(Deleted)
	}
	if ev.Flags&fsevents.ItemRenamed != 0 {
		typ = typ.Union(Renamed)
	}
	if ev.Flags&(fsevents.ItemModified|fsevents.ItemInodeMetaMod|fsevents.ItemXattrMod|
		fsevents.ItemChangeOwner|fsevents.ItemFinderInfoMod) != 0 {
		typ = typ.Union(Modified)
	}

	if typ == Noop {
		return
	}
	c.push(rawEvent{path: rel, typ: typ})
}

func (s *darwinSource) stop() error {
	s.stream.Stop()
	return nil
}
