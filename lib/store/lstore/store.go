package lstore

import (
	"sync"

	"github.com/ValentinKolb/tKV/lib/command"
	"github.com/ValentinKolb/tKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

type storeImpl struct {
	mu   sync.Mutex
	data map[string]string
}

// NewLocalStore creates a new local store instance.
// The returned store is meant to be shared by pointer between all connections.
func NewLocalStore() store.IStore {
	return &storeImpl{
		data: make(map[string]string),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Execute(line string) (string, error) {
	cmd, err := command.Parse(line)
	if err != nil {
		Logger.Debugf("rejected request: %v", err)
		return "", err
	}
	return s.Apply(cmd)
}

func (s *storeImpl) Apply(cmd command.Command) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Kind {
	case command.KindGet:
		value, ok := s.data[cmd.Key]
		if !ok {
			return "", store.ErrNotFound()
		}
		return value, nil

	case command.KindSet:
		old, ok := s.data[cmd.Key]
		s.data[cmd.Key] = cmd.Value
		if ok {
			return store.MsgUpdated(cmd.Key, old, cmd.Value), nil
		}
		return store.MsgSet(cmd.Key, cmd.Value), nil

	case command.KindDel:
		value, ok := s.data[cmd.Key]
		if !ok {
			return "", store.ErrNotFound()
		}
		delete(s.data, cmd.Key)
		return store.MsgDeleted(value), nil

	default:
		return "", store.NewError(store.RetCInvalidOperation, "Invalid command")
	}
}

func (s *storeImpl) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
