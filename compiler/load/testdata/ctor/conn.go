package ctor

import "errors"

// Conn is built through its constructor.
type Conn struct {
	addr string
	opts []string
}

// NewConn validates its arguments.
//
//stagegen:builder
func NewConn(host string, port int, opts ...string) (*Conn, error) {
	if host == "" || port == 0 {
		return nil, errors.New("incomplete address")
	}
	return &Conn{addr: host, opts: opts}, nil
}

// Pair is generic.
type Pair[K comparable, V any] struct {
	key   K
	value V
}

//stagegen:builder
func NewPair[K comparable, V any](key K, value V) Pair[K, V] {
	return Pair[K, V]{key: key, value: value}
}

//stagegen:builder
func (c *Conn) Reset() {}
