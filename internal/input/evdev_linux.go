//go:build linux

package input

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// pollMillis bounds how long a reader waits before rechecking its context.
const pollMillis = 250

// NativeEventSize is the input_event record size of this platform.
var NativeEventSize = int(binary.Size(unix.Timeval{})) + 2 + 2 + 4

// EvdevSource attaches every /dev/input/event* node, including ones that
// appear later, and forwards their events to the monitor.
type EvdevSource struct {
	Dir    string
	Logger Logger

	// QuitKey, when non-zero, is a key code whose press calls OnQuit.
	QuitKey uint16
	OnQuit  func()

	monitor *Monitor
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	handles map[string]*Handle
}

func NewEvdevSource(dir string) *EvdevSource {
	if dir == "" {
		dir = "/dev/input"
	}
	return &EvdevSource{Dir: dir, handles: make(map[string]*Handle)}
}

func (s *EvdevSource) Name() string { return "evdev:" + s.Dir }

func (s *EvdevSource) Start(ctx context.Context, m *Monitor) error {
	if st, err := os.Stat(s.Dir); err != nil {
		return fmt.Errorf("input dir: %w", err)
	} else if !st.IsDir() {
		return fmt.Errorf("input dir %s is not a directory", s.Dir)
	}

	inotifyFd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return fmt.Errorf("inotify init: %w", err)
	}
	if _, err := unix.InotifyAddWatch(inotifyFd, s.Dir, unix.IN_CREATE|unix.IN_ATTRIB); err != nil {
		unix.Close(inotifyFd)
		return fmt.Errorf("watch %s: %w", s.Dir, err)
	}

	s.monitor = m
	if s.handles == nil {
		s.handles = make(map[string]*Handle)
	}
	srcCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	paths, _ := filepath.Glob(filepath.Join(s.Dir, "event*"))
	if len(paths) == 0 && s.Logger != nil {
		s.Logger.Infof("input", "no evdev devices under %s yet", s.Dir)
	}
	for _, path := range paths {
		s.attach(srcCtx, path)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unix.Close(inotifyFd)
		s.watch(srcCtx, inotifyFd)
	}()
	return nil
}

// Stop ends hotplug watching and disconnects every device.
func (s *EvdevSource) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]*Handle)
	s.mu.Unlock()
	for _, h := range handles {
		s.monitor.Disconnect(h)
	}
	return nil
}

func (s *EvdevSource) attach(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[path]; ok {
		return
	}
	dev := &evdevDevice{path: path, fd: -1}
	h, err := s.monitor.Connect(dev)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Errorf("input", "attach %s: %v", path, err)
		}
		return
	}
	s.handles[path] = h
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.read(ctx, path, h, dev)
	}()
}

// detach drops a device whose reads failed.
func (s *EvdevSource) detach(path string, h *Handle) {
	s.mu.Lock()
	if cur, ok := s.handles[path]; ok && cur == h {
		delete(s.handles, path)
	}
	s.mu.Unlock()
	s.monitor.Disconnect(h)
}

func (s *EvdevSource) read(ctx context.Context, path string, h *Handle, dev *evdevDevice) {
	parser := &Parser{Size: NativeEventSize}
	buf := make([]byte, 64*NativeEventSize)
	emit := func(ev Event) {
		s.monitor.Event(h, ev.Type, ev.Code, ev.Value)
		if s.isQuit(ev) {
			s.OnQuit()
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}
		pollFds := []unix.PollFd{{Fd: int32(dev.fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, pollMillis); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			s.detach(path, h)
			return
		}
		if pollFds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			// Device went away.
			s.detach(path, h)
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}
		n, err := unix.Read(dev.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			s.detach(path, h)
			return
		}
		if n == 0 {
			s.detach(path, h)
			return
		}
		parser.Feed(buf[:n], emit)
	}
}

func (s *EvdevSource) isQuit(ev Event) bool {
	return s.OnQuit != nil && s.QuitKey != 0 && ev.Type == EvKey && ev.Code == s.QuitKey && ev.Value == 1
}

func (s *EvdevSource) watch(ctx context.Context, fd int) {
	buf := make([]byte, 4096)
	for ctx.Err() == nil {
		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, pollMillis); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if s.Logger != nil {
				s.Logger.Errorf("input", "hotplug watch stopped: %v", err)
			}
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}
		n, err := unix.Read(fd, buf)
		if err != nil {
			continue
		}
		for _, name := range inotifyNames(buf[:n]) {
			if strings.HasPrefix(name, "event") {
				s.attach(ctx, filepath.Join(s.Dir, name))
			}
		}
	}
}

// inotifyNames extracts the file names from a buffer of inotify_event records.
func inotifyNames(buf []byte) []string {
	var names []string
	for off := 0; off+unix.SizeofInotifyEvent <= len(buf); {
		nameLen := int(binary.NativeEndian.Uint32(buf[off+12 : off+16]))
		start := off + unix.SizeofInotifyEvent
		end := start + nameLen
		if end > len(buf) {
			break
		}
		if name := strings.TrimRight(string(buf[start:end]), "\x00"); name != "" {
			names = append(names, name)
		}
		off = end
	}
	return names
}

type evdevDevice struct {
	path string
	fd   int
}

func (d *evdevDevice) Name() string { return d.path }

func (d *evdevDevice) Open() error {
	fd, err := unix.Open(d.path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	d.fd = fd
	return nil
}

func (d *evdevDevice) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
