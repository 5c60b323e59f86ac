// monitor.go
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor 监控单个数据文件的变化
// 监听所在目录，兼容先写临时文件再rename的保存方式
type FileMonitor struct {
	target  string
	watcher *fsnotify.Watcher
	lastMod time.Time
	mu      sync.Mutex
}

func NewFileMonitor(path string) (*FileMonitor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	m := &FileMonitor{
		target:  abs,
		watcher: watcher,
	}
	if info, err := os.Stat(abs); err == nil {
		m.lastMod = info.ModTime()
	}
	return m, nil
}

// Watch 阻塞监听，文件更新后调用handler，ctx取消时返回
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			info, err := os.Stat(m.target)
			if err != nil {
				continue
			}

			m.mu.Lock()
			changed := !info.ModTime().Before(m.lastMod)
			if changed {
				m.lastMod = info.ModTime()
			}
			m.mu.Unlock()

			if changed {
				handler(m.target)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
