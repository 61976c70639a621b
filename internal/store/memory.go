package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemorySize = 256

// Memory is a bounded in-process store. Values are copied on the way in and out.
type Memory struct {
	lru *lru.Cache[string, []byte]
}

func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = defaultMemorySize
	}
	l, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Memory{lru: l}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.lru.Add(key, append([]byte(nil), value...))
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
