package cache

// LoadStatus - состояние загрузки списка.
type LoadStatus int

// Состояния загрузки.
const (
	LoadIdle LoadStatus = iota
	LoadLoading
	LoadLoaded
	LoadFailed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadLoaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// LoadState - результат последней загрузки. Err задан только в LoadFailed.
type LoadState struct {
	Status LoadStatus
	Err    error
}

// LoadState возвращает состояние загрузки.
func (c *Cache) LoadState() LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load
}

// SetLoadState фиксирует состояние загрузки.
func (c *Cache) SetLoadState(status LoadStatus, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status != LoadFailed {
		err = nil
	}
	c.load = LoadState{Status: status, Err: err}
}
